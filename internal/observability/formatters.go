// Package observability provides formatted verdict output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/fan-verifier/internal/textnorm"
	"github.com/jonathan/fan-verifier/internal/types"
	"github.com/jonathan/fan-verifier/internal/verify"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// previewRunes caps extracted text previews
	previewRunes = 160
)

// Printer handles formatted output for human-readable mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Widths are in runes.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to width runes, marking the cut with "...".
func clip(s string, width int) string {
	if len([]rune(s)) <= width {
		return s
	}
	return textnorm.Truncate(s, width-3) + "..."
}

// wrap breaks text into lines of at most width runes on word boundaries.
func wrap(text string, width int) []string {
	var lines []string
	var line strings.Builder
	n := 0
	for _, word := range strings.Fields(text) {
		w := len([]rune(word))
		if n > 0 && n+1+w > width {
			lines = append(lines, line.String())
			line.Reset()
			n = 0
		}
		if n > 0 {
			line.WriteByte(' ')
			n++
		}
		line.WriteString(word)
		n += w
	}
	if n > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

// PrintIdentityVerdict outputs the result of matching a document against a name.
func (p *Printer) PrintIdentityVerdict(name string, verdict types.IdentityVerdict) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Candidate: %s\n", name))
	sb.WriteString(fmt.Sprintf("Matched:   %s\n", yesNo(verdict.Matched)))
	sb.WriteString(fmt.Sprintf("Rule:      %s\n", verdict.Rule))
	if verdict.PartsTotal > 0 {
		sb.WriteString(fmt.Sprintf("Parts:     %d of %d found\n", verdict.PartsFound, verdict.PartsTotal))
	}

	sb.WriteString("\n")
	if !verdict.ExtractedText.Valid {
		sb.WriteString("(no text could be extracted)")
	} else {
		sb.WriteString("Extracted text:\n")
		preview := textnorm.Truncate(textnorm.CollapseSpace(verdict.ExtractedText.Text), previewRunes)
		for _, line := range wrap(preview, boxWidth-6) {
			sb.WriteString(fmt.Sprintf("  %s\n", line))
		}
	}

	p.printBox("IDENTITY DOCUMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSocialProfile outputs a profile's relevance verdict.
func (p *Printer) PrintSocialProfile(profile *types.SocialProfile) {
	if profile == nil {
		return
	}
	p.printBox("SOCIAL PROFILE", profileSummary(profile))
}

func profileSummary(profile *types.SocialProfile) string {
	var sb strings.Builder
	result := profile.Result

	sb.WriteString(fmt.Sprintf("Platform:   %s\n", profile.Platform))
	sb.WriteString(fmt.Sprintf("URL:        %s\n", profile.URL))
	sb.WriteString(fmt.Sprintf("Strategy:   %s\n", profile.Strategy))
	sb.WriteString(fmt.Sprintf("Relevant:   %s (confidence %.2f)\n", yesNo(result.Relevant), result.Confidence))

	if len(result.MatchedKeywords) > 0 {
		sb.WriteString(fmt.Sprintf("Keywords:   %s\n", joinLimited(result.MatchedKeywords)))
	}
	if len(result.MatchedInterests) > 0 {
		sb.WriteString(fmt.Sprintf("Interests:  %s\n", joinLimited(result.MatchedInterests)))
	}
	for _, line := range wrap(result.Reason, boxWidth-4) {
		sb.WriteString(line + "\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func joinLimited(items []string) string {
	if len(items) <= maxItemsToShow {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s ... and %d more", strings.Join(items[:maxItemsToShow], ", "), len(items)-maxItemsToShow)
}

// PrintBatch outputs every outcome of a batch followed by a tally.
func (p *Printer) PrintBatch(outcomes []verify.ProfileOutcome) {
	if len(outcomes) == 0 {
		return
	}

	var sb strings.Builder
	relevant, invalid := 0, 0
	for i, o := range outcomes {
		switch {
		case !o.Valid:
			invalid++
			sb.WriteString(fmt.Sprintf("#%d  %s  INVALID\n", i+1, o.URL))
			sb.WriteString(fmt.Sprintf("    %s\n", o.Error))
		case o.Profile != nil:
			if o.Profile.Result.Relevant {
				relevant++
			}
			sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, o.URL))
			sb.WriteString(fmt.Sprintf("    %s via %s: relevant=%s confidence=%.2f\n",
				o.Platform, o.Profile.Strategy, yesNo(o.Profile.Result.Relevant), o.Profile.Result.Confidence))
		}
	}
	sb.WriteString(fmt.Sprintf("\n%d profiles: %d relevant, %d invalid", len(outcomes), relevant, invalid))

	p.printBox("PROFILE BATCH", sb.String())
}
