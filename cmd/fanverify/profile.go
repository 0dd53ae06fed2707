package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/fan-verifier/internal/fetch"
	"github.com/jonathan/fan-verifier/internal/lexicon"
	"github.com/jonathan/fan-verifier/internal/observability"
	"github.com/jonathan/fan-verifier/internal/types"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Score a social profile for esports relevance",
	Long: "Extracts the text of a social profile (rendered in a headless browser, with a static " +
		"fetch fallback) and scores it against the esports lexicon and the fan's interests.",
	RunE: runProfile,
}

var (
	profileURL       string
	profilePlatform  string
	profileInterests string
)

func init() {
	profileCmd.Flags().StringVarP(&profileURL, "url", "u", "", "Profile URL (required)")
	profileCmd.Flags().StringVarP(&profilePlatform, "platform", "p", "",
		fmt.Sprintf("Platform (%s); detected from the URL when omitted", platformList()))
	profileCmd.Flags().StringVarP(&profileInterests, "interests", "i", "", "Comma-separated fan interests")

	if err := profileCmd.MarkFlagRequired("url"); err != nil {
		panic(fmt.Sprintf("failed to mark url flag as required: %v", err))
	}

	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, _ []string) error {
	url := strings.TrimSpace(profileURL)
	platform := types.ParsePlatform(profilePlatform)
	if platform == "" {
		platform = fetch.DetectPlatform(url)
	}

	logger := zerolog.Ctx(cmd.Context())
	if !platform.Known() {
		logger.Warn().Str("url", url).Msg("unrecognized platform, only generic extraction applies")
	} else if !fetch.ValidProfileURL(url, platform) {
		logger.Warn().Str("url", url).Str("platform", string(platform)).Msg("URL does not look like a profile page")
	}

	svc, err := service()
	if err != nil {
		return err
	}

	profile := svc.VerifyProfile(cmd.Context(), url, platform, lexicon.ParseInterests(profileInterests))

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), profile)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintSocialProfile(&profile)
	return nil
}

func platformList() string {
	known := types.KnownPlatforms()
	names := make([]string, 0, len(known))
	for _, p := range known {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}
