// Package fetch - platform.go provides platform detection, profile URL validation
// and the per-platform structural extraction rules.
package fetch

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/jonathan/fan-verifier/internal/types"
)

// Selectors locates the text-bearing regions of a profile page. Bio is the profile
// description; Items are repeated content elements (posts, tweets, games, stats),
// collected in the order listed.
type Selectors struct {
	Bio   string
	Items []string
}

// Rule is the extraction rule set for one platform. Landmark is the element whose
// presence means the rendered page has loaded. Rendered selectors run against the
// live DOM; Static selectors run against fetched markup, which differs from what
// the browser sees on client-rendered sites.
type Rule struct {
	Landmark string
	Rendered Selectors
	Static   Selectors
}

// Rules maps each supported platform to its extraction rules.
var Rules = map[types.Platform]Rule{
	types.PlatformInstagram: {
		Landmark: "main",
		Rendered: Selectors{
			Bio:   "header div[class*='bio']",
			Items: []string{"article div[class*='caption']"},
		},
		Static: Selectors{
			Bio:   "header section div",
			Items: []string{"article div > span"},
		},
	},
	types.PlatformTwitter: {
		Landmark: "article",
		Rendered: Selectors{
			Bio:   "div[data-testid='UserDescription']",
			Items: []string{"article div[data-testid='tweetText']"},
		},
		Static: Selectors{
			Bio:   "div[data-testid='UserDescription']",
			Items: []string{"article"},
		},
	},
	types.PlatformSteam: {
		Landmark: ".profile_page",
		Rendered: Selectors{
			Bio:   ".profile_summary",
			Items: []string{".game_name"},
		},
		Static: Selectors{
			Bio:   ".profile_summary",
			Items: []string{".game_name"},
		},
	},
	types.PlatformGamersClub: {
		Landmark: ".player-info",
		Rendered: Selectors{
			Items: []string{".player-stats", ".game-item"},
		},
		Static: Selectors{
			Items: []string{".player-stats", ".game-item"},
		},
	},
}

// RuleFor returns the rules for a platform. Unknown platforms get the zero Rule,
// which never matches structurally.
func RuleFor(platform types.Platform) Rule {
	return Rules[platform]
}

// profileURLPatterns are the accepted shapes of a profile URL per platform.
var profileURLPatterns = map[types.Platform]*regexp.Regexp{
	types.PlatformInstagram:  regexp.MustCompile(`^https?://(?:www\.)?instagram\.com/[a-zA-Z0-9_.]+/?$`),
	types.PlatformTwitter:    regexp.MustCompile(`^https?://(?:www\.)?(?:twitter|x)\.com/[a-zA-Z0-9_]+/?$`),
	types.PlatformSteam:      regexp.MustCompile(`^https?://(?:www\.)?steamcommunity\.com/(?:id|profiles)/[a-zA-Z0-9_]+/?$`),
	types.PlatformGamersClub: regexp.MustCompile(`^https?://(?:www\.)?gamersclub\.com\.br/player/[a-zA-Z0-9_]+/?$`),
}

// ValidProfileURL reports whether urlStr is a profile URL for the platform.
func ValidProfileURL(urlStr string, platform types.Platform) bool {
	pattern, ok := profileURLPatterns[platform]
	if !ok {
		return false
	}
	return pattern.MatchString(strings.TrimSpace(urlStr))
}

// DetectPlatform identifies the social platform from a URL's host.
func DetectPlatform(urlStr string) types.Platform {
	parsed, err := url.Parse(strings.TrimSpace(urlStr))
	if err != nil {
		return types.PlatformUnknown
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	switch {
	case host == "instagram.com":
		return types.PlatformInstagram
	case host == "twitter.com" || host == "x.com" || host == "mobile.twitter.com":
		return types.PlatformTwitter
	case host == "steamcommunity.com":
		return types.PlatformSteam
	case host == "gamersclub.com.br" || strings.HasSuffix(host, ".gamersclub.com.br"):
		return types.PlatformGamersClub
	default:
		return types.PlatformUnknown
	}
}
