// Package fetch - extract.go applies structural and generic text extraction to
// static HTML.
package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jonathan/fan-verifier/internal/textnorm"
)

// DefaultGenericTextLimit caps generic page text, in runes.
const DefaultGenericTextLimit = 5000

// ParseHTML parses markup and strips script and style nodes.
func ParseHTML(markup string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	return doc, nil
}

// StructuralText applies a selector set to a parsed page: the first bio match,
// then every match of each item selector in order. Pieces are whitespace
// normalized and joined with single spaces. It returns "" when nothing matched.
func StructuralText(doc *goquery.Document, sel Selectors) string {
	var pieces []string

	if sel.Bio != "" {
		if bio := doc.Find(sel.Bio).First(); bio.Length() > 0 {
			pieces = appendNonBlank(pieces, visibleText(bio))
		}
	}

	for _, item := range sel.Items {
		doc.Find(item).Each(func(_ int, s *goquery.Selection) {
			pieces = appendNonBlank(pieces, visibleText(s))
		})
	}

	return strings.Join(pieces, " ")
}

// GenericText returns all visible text of the page, whitespace normalized and
// truncated to limit runes.
func GenericText(doc *goquery.Document, limit int) string {
	if limit <= 0 {
		limit = DefaultGenericTextLimit
	}
	return textnorm.Truncate(visibleText(doc.Selection), limit)
}

// visibleText joins every text node under the selection with spaces. Unlike
// Selection.Text it keeps adjacent block elements from running together.
func visibleText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if text := strings.TrimSpace(n.Data); text != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(text)
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return textnorm.CollapseSpace(b.String())
}

func appendNonBlank(dst []string, texts ...string) []string {
	for _, text := range texts {
		if text = textnorm.CollapseSpace(text); text != "" {
			dst = append(dst, text)
		}
	}
	return dst
}
