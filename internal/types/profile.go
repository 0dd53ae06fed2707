package types

import (
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Platform identifies the social network a profile URL belongs to.
type Platform string

const (
	// PlatformInstagram is an Instagram profile
	PlatformInstagram Platform = "instagram"
	// PlatformTwitter is a Twitter / X profile
	PlatformTwitter Platform = "twitter"
	// PlatformSteam is a Steam Community profile
	PlatformSteam Platform = "steam"
	// PlatformGamersClub is a Gamers Club player page
	PlatformGamersClub Platform = "gamersclub"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// KnownPlatforms returns every platform with dedicated extraction rules.
func KnownPlatforms() []Platform {
	return []Platform{PlatformInstagram, PlatformTwitter, PlatformSteam, PlatformGamersClub}
}

// ParsePlatform normalizes a platform tag. Unrecognized tags are returned as-is
// (lowercased) so callers can still run generic extraction for them.
func ParsePlatform(s string) Platform {
	return Platform(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether the platform has dedicated extraction rules.
func (p Platform) Known() bool {
	return slices.Contains(KnownPlatforms(), p)
}

// RelevanceResult is the esports relevance verdict for a profile's content.
type RelevanceResult struct {
	Relevant         bool     `json:"relevant"`
	Confidence       float64  `json:"confidence"`
	MatchedKeywords  []string `json:"matched_keywords"`
	MatchedInterests []string `json:"matched_interests"`
	Reason           string   `json:"reason"`
}

// SocialProfile is a declared profile together with what was extracted from it
// and the resulting verdict.
type SocialProfile struct {
	Platform Platform        `json:"platform"`
	URL      string          `json:"url"`
	Content  string          `json:"content"`
	Strategy string          `json:"strategy"`
	Result   RelevanceResult `json:"result"`
}

// ProfileRequest is one entry of a batch profile verification.
type ProfileRequest struct {
	Platform Platform `json:"platform" validate:"required,oneof=instagram twitter steam gamersclub"`
	URL      string   `json:"url" validate:"required,url"`
}

// Validate checks that the platform is supported and the URL is well formed.
// Per-platform URL pattern checks live with the extraction rules.
func (r *ProfileRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
