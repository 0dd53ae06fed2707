// Package lexicon holds the fixed esports vocabulary used for relevance scoring
// and helpers for the free-text interest lists supplied at registration.
package lexicon

import (
	"strings"

	"github.com/jonathan/fan-verifier/internal/textnorm"
)

// esportsKeywords spans generic esports vocabulary (English and Portuguese) and
// game titles. Multi-word entries are kept for completeness but only ever match
// a single token, so they never score.
var esportsKeywords = []string{
	"game", "gaming", "esport", "esports", "tournament", "torneio",
	"competição", "competicao", "player", "jogador", "team", "equipe",
	"match", "partida", "furia", "cs:go", "csgo", "counter-strike",
	"league of legends", "lol", "dota", "valorant", "overwatch",
	"fps", "moba", "battle royale", "streamer", "streaming",
}

var keywordSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(esportsKeywords))
	for _, kw := range esportsKeywords {
		set[kw] = struct{}{}
	}
	return set
}()

// IsKeyword reports whether a lowercased token is an esports keyword.
func IsKeyword(token string) bool {
	_, ok := keywordSet[token]
	return ok
}

// InterestSet is a lowercased, deduplicated lookup over a candidate's interests.
type InterestSet map[string]struct{}

// NewInterestSet lowercases and trims each interest. The input slice is not modified.
func NewInterestSet(interests []string) InterestSet {
	set := make(InterestSet, len(interests))
	for _, interest := range interests {
		normalized := strings.TrimSpace(textnorm.Lower(interest))
		if normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return set
}

// Contains reports whether a lowercased token equals one of the interests.
func (s InterestSet) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

// ParseInterests splits a stored comma-separated interest string ("CS:GO, LoL")
// into trimmed, non-empty entries.
func ParseInterests(raw string) []string {
	parts := strings.Split(raw, ",")
	interests := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			interests = append(interests, part)
		}
	}
	return interests
}
