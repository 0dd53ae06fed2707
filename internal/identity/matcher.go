// Package identity decides whether OCR text extracted from an identity document
// names a given candidate.
package identity

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/fan-verifier/internal/textnorm"
	"github.com/jonathan/fan-verifier/internal/types"
)

// minPartLength is the rune length a name part must exceed to count in the
// part-wise fallback; short particles like "da" and "de" are ignored.
const minPartLength = 2

// nonWord matches anything that is not a letter, digit, underscore or whitespace.
// Go's \w is ASCII-only, so the Unicode classes are spelled out.
var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// Normalize lowercases s, strips punctuation and symbols, and collapses whitespace.
func Normalize(s string) string {
	s = textnorm.Lower(s)
	s = nonWord.ReplaceAllString(s, "")
	return textnorm.CollapseSpace(s)
}

// Matches reports whether the extracted text names the candidate.
func Matches(text types.ExtractedText, name string) bool {
	return Match(text, name).Matched
}

// Match compares extracted document text against a candidate name.
//
// The full normalized name matching as a substring wins outright. Otherwise the
// name is split into parts and every part longer than two runes is looked up on
// its own, which tolerates OCR noise breaking the name apart. The name matches
// when at least half of all parts, rounded up, are found.
func Match(text types.ExtractedText, name string) types.IdentityVerdict {
	verdict := types.IdentityVerdict{Rule: types.MatchRuleNone, ExtractedText: text}
	if text.Empty() || strings.TrimSpace(name) == "" {
		return verdict
	}

	normalizedText := Normalize(text.Text)
	normalizedName := Normalize(name)
	if normalizedText == "" || normalizedName == "" {
		return verdict
	}

	parts := strings.Fields(normalizedName)
	verdict.PartsTotal = len(parts)

	if strings.Contains(normalizedText, normalizedName) {
		verdict.Matched = true
		verdict.Rule = types.MatchRuleFullName
		verdict.PartsFound = len(parts)
		return verdict
	}

	found := 0
	for _, part := range parts {
		if utf8.RuneCountInString(part) > minPartLength && strings.Contains(normalizedText, part) {
			found++
		}
	}
	verdict.PartsFound = found

	if found >= requiredParts(len(parts)) {
		verdict.Matched = true
		verdict.Rule = types.MatchRuleNameParts
	}
	return verdict
}

// requiredParts is ceil(total/2).
func requiredParts(total int) int {
	return (total + 1) / 2
}
