package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/fan-verifier/internal/fetch"
	"github.com/jonathan/fan-verifier/internal/observability"
	"github.com/jonathan/fan-verifier/internal/schemas"
	"github.com/jonathan/fan-verifier/internal/types"
	"github.com/jonathan/fan-verifier/internal/verify"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score every social profile of a fan",
	Long:  "Validates a profile batch file against its schema, then verifies each profile on a bounded worker pool.",
	RunE:  runBatch,
}

var (
	batchFile        string
	batchWorkers     int
	batchMetricsFile string
)

func init() {
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "Path to profile batch JSON file (required)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "Concurrent extractions (overrides config)")
	batchCmd.Flags().StringVar(&batchMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")

	if err := batchCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	rootCmd.AddCommand(batchCmd)
}

// profileBatch is the batch file layout described by the embedded schema.
type profileBatch struct {
	Fan       string   `json:"fan,omitempty"`
	Interests []string `json:"interests,omitempty"`
	Profiles  []struct {
		URL      string `json:"url"`
		Platform string `json:"platform,omitempty"`
	} `json:"profiles"`
}

// batchReport is the JSON output of the batch command.
type batchReport struct {
	Fan      string                  `json:"fan,omitempty"`
	Outcomes []verify.ProfileOutcome `json:"outcomes"`
}

func readBatch(path string) (*profileBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	if err := schemas.ValidateProfileBatch(data); err != nil {
		return nil, fmt.Errorf("invalid batch file %s: %w", path, err)
	}

	var batch profileBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch file: %w", err)
	}
	return &batch, nil
}

// requests resolves each entry's platform, detecting it from the URL when omitted.
func (b *profileBatch) requests() []types.ProfileRequest {
	reqs := make([]types.ProfileRequest, 0, len(b.Profiles))
	for _, p := range b.Profiles {
		url := strings.TrimSpace(p.URL)
		platform := types.ParsePlatform(p.Platform)
		if platform == "" {
			platform = fetch.DetectPlatform(url)
		}
		reqs = append(reqs, types.ProfileRequest{Platform: platform, URL: url})
	}
	return reqs
}

func runBatch(cmd *cobra.Command, _ []string) error {
	batch, err := readBatch(batchFile)
	if err != nil {
		return err
	}

	if batchWorkers > 0 {
		app.cfg.Batch.Workers = batchWorkers
	}
	if batchMetricsFile != "" {
		app.cfg.Metrics.File = batchMetricsFile
	}

	svc, err := service()
	if err != nil {
		return err
	}

	outcomes := svc.VerifyProfiles(cmd.Context(), batch.requests(), batch.Interests)

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), batchReport{Fan: batch.Fan, Outcomes: outcomes})
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintBatch(outcomes)
	return nil
}
