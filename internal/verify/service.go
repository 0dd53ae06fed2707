// Package verify runs the two fan verification pipelines: identity documents
// against a candidate name, and social profiles against the esports lexicon and
// the fan's interests.
package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/fan-verifier/internal/fetch"
	"github.com/jonathan/fan-verifier/internal/identity"
	"github.com/jonathan/fan-verifier/internal/metrics"
	"github.com/jonathan/fan-verifier/internal/ocr"
	"github.com/jonathan/fan-verifier/internal/relevance"
	"github.com/jonathan/fan-verifier/internal/types"
)

// ErrInvalidProfileURL marks a batch entry whose URL does not fit its platform.
var ErrInvalidProfileURL = errors.New("invalid profile URL for platform")

// DefaultWorkers bounds concurrent profile extractions in a batch.
const DefaultWorkers = 2

// TextExtractor turns document bytes into text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, contentType types.ContentType) (types.ExtractedText, error)
}

// ProfileExtractor turns a profile URL into text.
type ProfileExtractor interface {
	Extract(ctx context.Context, url string, platform types.Platform) fetch.Extraction
}

// Options configures a Service.
type Options struct {
	// Workers bounds concurrent extractions in VerifyProfiles.
	Workers int
	// MaxDocumentBytes skips recognition of larger documents; 0 disables the cap.
	MaxDocumentBytes int64
	Metrics          *metrics.Metrics
}

// Service verifies identity documents and social profiles.
type Service struct {
	documents TextExtractor
	profiles  ProfileExtractor
	opts      Options
}

// NewService creates a Service.
func NewService(documents TextExtractor, profiles ProfileExtractor, opts Options) *Service {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Service{documents: documents, profiles: profiles, opts: opts}
}

// withRequestID tags ctx's logger with a fresh request id and the operation name.
func withRequestID(ctx context.Context, operation string) (context.Context, *zerolog.Logger) {
	logger := zerolog.Ctx(ctx).With().
		Str("request_id", uuid.NewString()).
		Str("operation", operation).
		Logger()
	return logger.WithContext(ctx), &logger
}

// VerifyDocument extracts the text of an identity document and matches it
// against the candidate name. The only error is a wrapped
// ocr.ErrUnsupportedContentType; every extraction failure yields a not-matched
// verdict instead.
func (s *Service) VerifyDocument(ctx context.Context, req types.DocumentRequest) (types.IdentityVerdict, error) {
	if err := req.Validate(); err != nil {
		return types.IdentityVerdict{}, ocr.UnsupportedContentTypeError(req.ContentType)
	}

	ctx, logger := withRequestID(ctx, metrics.OperationDocument)
	start := time.Now()
	defer func() {
		s.opts.Metrics.ObserveOperationLatency(metrics.OperationDocument, time.Since(start))
	}()

	text := types.AbsentText()
	if limit := s.opts.MaxDocumentBytes; limit > 0 && int64(len(req.Data)) > limit {
		logger.Warn().Int("bytes", len(req.Data)).Int64("limit", limit).Msg("document too large, skipping recognition")
	} else {
		var err error
		text, err = s.documents.Extract(ctx, req.Data, req.ContentType)
		if err != nil {
			return types.IdentityVerdict{}, err
		}
	}

	if text.Empty() {
		s.opts.Metrics.IncrementOCRFailure(string(req.ContentType))
	}

	verdict := identity.Match(text, req.CandidateName)
	s.opts.Metrics.IncrementDocumentVerdict(documentOutcome(verdict))

	logger.Info().
		Bool("matched", verdict.Matched).
		Str("rule", string(verdict.Rule)).
		Int("parts_found", verdict.PartsFound).
		Int("parts_total", verdict.PartsTotal).
		Dur("elapsed", time.Since(start)).
		Msg("document verified")
	return verdict, nil
}

func documentOutcome(v types.IdentityVerdict) string {
	switch {
	case v.ExtractedText.Empty():
		return metrics.OutcomeNoText
	case v.Matched:
		return metrics.OutcomeMatched
	default:
		return metrics.OutcomeNotMatched
	}
}

// VerifyProfile extracts a profile's content and scores its relevance. It never
// fails; an unreachable profile scores as not relevant.
func (s *Service) VerifyProfile(ctx context.Context, url string, platform types.Platform, interests []string) types.SocialProfile {
	ctx, logger := withRequestID(ctx, metrics.OperationProfile)
	start := time.Now()
	defer func() {
		s.opts.Metrics.ObserveOperationLatency(metrics.OperationProfile, time.Since(start))
	}()

	extraction := s.profiles.Extract(ctx, url, platform)
	result := relevance.Validate(extraction.Text, interests)

	s.opts.Metrics.IncrementProfileExtraction(string(platform), string(extraction.Strategy))
	s.opts.Metrics.IncrementRelevanceVerdict(string(platform), result.Relevant)

	logger.Info().
		Str("url", url).
		Str("platform", string(platform)).
		Str("strategy", string(extraction.Strategy)).
		Bool("relevant", result.Relevant).
		Float64("confidence", result.Confidence).
		Dur("elapsed", time.Since(start)).
		Msg("profile verified")

	return types.SocialProfile{
		Platform: platform,
		URL:      url,
		Content:  extraction.Text,
		Strategy: string(extraction.Strategy),
		Result:   result,
	}
}

// ProfileOutcome is the result for one entry of a batch.
type ProfileOutcome struct {
	Platform types.Platform       `json:"platform"`
	URL      string               `json:"url"`
	Valid    bool                 `json:"valid"`
	Error    string               `json:"error,omitempty"`
	Profile  *types.SocialProfile `json:"profile,omitempty"`
}

// VerifyProfiles verifies a fan's profiles on a bounded worker pool. Outcomes are
// returned in request order. Entries with an unsupported platform or a URL that
// does not fit the platform are reported invalid and never fetched.
func (s *Service) VerifyProfiles(ctx context.Context, reqs []types.ProfileRequest, interests []string) []ProfileOutcome {
	outcomes := make([]ProfileOutcome, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)

	for i, req := range reqs {
		outcomes[i] = ProfileOutcome{Platform: req.Platform, URL: req.URL}
		if err := checkProfileRequest(req); err != nil {
			outcomes[i].Error = err.Error()
			zerolog.Ctx(ctx).Warn().Err(err).Str("url", req.URL).Msg("skipping profile")
			continue
		}
		outcomes[i].Valid = true

		g.Go(func() error {
			profile := s.VerifyProfile(ctx, req.URL, req.Platform, interests)
			outcomes[i].Profile = &profile
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}

func checkProfileRequest(req types.ProfileRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid profile request: %w", err)
	}
	if !fetch.ValidProfileURL(req.URL, req.Platform) {
		return fmt.Errorf("%w: %s", ErrInvalidProfileURL, req.Platform)
	}
	return nil
}
