// Package relevance scores extracted profile content for esports relevance
// against the fixed lexicon and the candidate's declared interests.
package relevance

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jonathan/fan-verifier/internal/lexicon"
	"github.com/jonathan/fan-verifier/internal/textnorm"
	"github.com/jonathan/fan-verifier/internal/types"
)

// Scoring weights and thresholds
const (
	keywordWeight  = 0.5
	interestWeight = 1.0
	scoreScale     = 5.0

	// Threshold is the minimum confidence for a profile to be considered relevant.
	Threshold = 0.3
)

// Reasons reported when no positive verdict is reached
const (
	ReasonNoContent  = "no content extracted"
	ReasonIrrelevant = "profile has no relevant esports or interest-related content"
)

// Validate scores content against the esports lexicon and the interests.
// It never mutates interests.
func Validate(content string, interests []string) types.RelevanceResult {
	if strings.TrimSpace(content) == "" {
		return types.RelevanceResult{
			Relevant:         false,
			Confidence:       0.0,
			MatchedKeywords:  []string{},
			MatchedInterests: []string{},
			Reason:           ReasonNoContent,
		}
	}

	interestSet := lexicon.NewInterestSet(interests)
	keywords := make(map[string]struct{})
	matchedInterests := make(map[string]struct{})

	for _, token := range textnorm.Tokenize(content) {
		if lexicon.IsKeyword(token) {
			keywords[token] = struct{}{}
		}
		if interestSet.Contains(token) {
			matchedInterests[token] = struct{}{}
		}
	}

	result := types.RelevanceResult{
		MatchedKeywords:  sortedKeys(keywords),
		MatchedInterests: sortedKeys(matchedInterests),
	}
	result.Confidence = Confidence(len(result.MatchedKeywords), len(result.MatchedInterests))
	result.Relevant = result.Confidence >= Threshold
	result.Reason = reason(result)
	return result
}

// Confidence converts match counts to a score in [0, 1], rounded to two decimals.
func Confidence(keywordMatches, interestMatches int) float64 {
	score := keywordWeight*float64(keywordMatches) + interestWeight*float64(interestMatches)
	confidence := math.Min(score/scoreScale, 1.0)
	return math.Round(confidence*100) / 100
}

func reason(result types.RelevanceResult) string {
	if !result.Relevant {
		return ReasonIrrelevant
	}
	interests := strings.Join(result.MatchedInterests, ", ")
	if len(result.MatchedKeywords) == 0 {
		return fmt.Sprintf("profile contains user interests (%s)", interests)
	}
	msg := fmt.Sprintf("profile contains esports terms (%s)", strings.Join(result.MatchedKeywords, ", "))
	if len(result.MatchedInterests) > 0 {
		msg += fmt.Sprintf(" and user interests (%s)", interests)
	}
	return msg
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
