// Package textnorm provides Unicode-aware lowercasing, whitespace cleanup and
// word tokenization shared by the identity and relevance checks.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Language is the language used for case mapping. Registrants and their documents
// are Brazilian, so Portuguese rules apply.
var Language = language.BrazilianPortuguese

// Lower composes the text to NFC and lowercases it with Portuguese case rules.
// cases.Caser is stateful, so a new one is made per call.
func Lower(s string) string {
	return cases.Lower(Language).String(norm.NFC.String(s))
}

// CollapseSpace replaces every run of whitespace with a single space and trims the result.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// infix separators always split a token
func isInfix(r rune) bool {
	switch r {
	case '/', '\\', '|', ',', ';', '(', ')', '[', ']', '{', '}', '"', '!', '?', '…', '“', '”', '«', '»':
		return true
	}
	return false
}

// edge runes are stripped from the start and end of a token; they survive inside
// one ("cs:go", "counter-strike", "d'água")
func isEdge(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// Tokenize lowercases text and splits it into word tokens. Tokens are split on
// whitespace and on infix separators, then leading and trailing punctuation and
// symbols (hashtags, mentions, emoji, trailing periods) are removed. Internal
// colons, hyphens, periods and apostrophes are kept so game titles like "cs:go"
// remain a single token.
func Tokenize(text string) []string {
	lowered := Lower(text)
	chunks := strings.FieldsFunc(lowered, func(r rune) bool {
		return unicode.IsSpace(r) || isInfix(r)
	})

	tokens := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		token := strings.TrimFunc(chunk, isEdge)
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
