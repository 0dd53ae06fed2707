// Package fetch - extractor.go runs the ordered extraction strategies for a
// social profile.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/jonathan/fan-verifier/internal/textnorm"
	"github.com/jonathan/fan-verifier/internal/types"
)

// Strategy names the extraction step that produced a profile's text.
type Strategy string

const (
	StrategyRendered Strategy = "rendered"
	StrategyCaptured Strategy = "captured"
	StrategyStatic   Strategy = "static"
	StrategyGeneric  Strategy = "generic"
	StrategyNone     Strategy = "none"
)

// Extraction is the outcome of extracting a profile. Text is empty exactly when
// Strategy is StrategyNone.
type Extraction struct {
	Text     string
	Strategy Strategy
}

// Empty reports whether no strategy produced text.
func (e Extraction) Empty() bool {
	return e.Text == ""
}

// ExtractorOptions configures the extraction waits and caps.
type ExtractorOptions struct {
	// LandmarkTimeout bounds the wait for the platform landmark element.
	LandmarkTimeout time.Duration
	// SettleDelay lets client-rendered content populate after the landmark appears.
	SettleDelay      time.Duration
	GenericTextLimit int
}

// DefaultExtractorOptions returns the standard waits.
func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		LandmarkTimeout:  10 * time.Second,
		SettleDelay:      3 * time.Second,
		GenericTextLimit: DefaultGenericTextLimit,
	}
}

// Extractor turns a profile URL into text.
type Extractor struct {
	browser Browser
	client  *Client
	opts    ExtractorOptions
}

// NewExtractor creates an extractor. A nil browser skips the rendered strategy;
// a nil client gets the default static client.
func NewExtractor(browser Browser, client *Client, opts ExtractorOptions) *Extractor {
	defaults := DefaultExtractorOptions()
	if opts.LandmarkTimeout <= 0 {
		opts.LandmarkTimeout = defaults.LandmarkTimeout
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.GenericTextLimit <= 0 {
		opts.GenericTextLimit = defaults.GenericTextLimit
	}
	if client == nil {
		client = NewClient(nil, nil)
	}
	return &Extractor{browser: browser, client: client, opts: opts}
}

// attempt carries state between the steps of one extraction.
type attempt struct {
	url  string
	rule Rule

	// captured is markup salvaged from a failed rendering attempt.
	captured string
	// fetched is the statically fetched page, parsed.
	fetched *goquery.Document
	// halt stops the chain; set when the site answered with a non-200 status.
	halt bool
}

type step struct {
	strategy Strategy
	run      func(ctx context.Context, a *attempt) string
}

// Extract tries each strategy in order and returns the first non-blank text. It
// never fails: total failure yields an empty Extraction with StrategyNone.
func (e *Extractor) Extract(ctx context.Context, url string, platform types.Platform) Extraction {
	logger := zerolog.Ctx(ctx).With().Str("url", url).Str("platform", string(platform)).Logger()
	ctx = logger.WithContext(ctx)

	a := &attempt{url: url, rule: RuleFor(platform)}
	steps := []step{
		{StrategyRendered, e.rendered},
		{StrategyCaptured, e.fromCaptured},
		{StrategyStatic, e.static},
		{StrategyGeneric, e.generic},
	}

	for _, s := range steps {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("profile extraction abandoned")
			break
		}
		if text := textnorm.CollapseSpace(s.run(ctx, a)); text != "" {
			logger.Debug().Str("strategy", string(s.strategy)).Int("chars", len(text)).Msg("profile content extracted")
			return Extraction{Text: text, Strategy: s.strategy}
		}
		if a.halt {
			break
		}
	}

	logger.Info().Msg("no profile content extracted")
	return Extraction{Strategy: StrategyNone}
}

func (e *Extractor) rendered(ctx context.Context, a *attempt) string {
	if e.browser == nil {
		return ""
	}

	var text string
	err := e.browser.WithSession(ctx, func(s Session) error {
		var err error
		text, err = e.render(ctx, s, a)
		if err != nil {
			if markup, srcErr := s.PageSource(); srcErr == nil {
				a.captured = markup
			}
		}
		return err
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Bool("captured", a.captured != "").Msg("rendered extraction failed")
		return ""
	}
	return text
}

func (e *Extractor) render(ctx context.Context, s Session, a *attempt) (string, error) {
	if err := s.Navigate(a.url); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}

	landmark := a.rule.Landmark
	if landmark == "" {
		landmark = "body"
	}
	if err := s.WaitFor(landmark, e.opts.LandmarkTimeout); err != nil {
		return "", fmt.Errorf("wait for %s: %w", landmark, err)
	}
	if err := sleep(ctx, e.opts.SettleDelay); err != nil {
		return "", err
	}

	var pieces []string
	if bio := a.rule.Rendered.Bio; bio != "" {
		texts, err := s.FindText(bio)
		if err != nil {
			return "", err
		}
		pieces = appendNonBlank(pieces, texts...)
	}
	for _, sel := range a.rule.Rendered.Items {
		texts, err := s.FindText(sel)
		if err != nil {
			return "", err
		}
		pieces = appendNonBlank(pieces, texts...)
	}
	if len(pieces) > 0 {
		return strings.Join(pieces, " "), nil
	}

	body, err := s.FindText("body")
	if err != nil {
		return "", err
	}
	return strings.Join(appendNonBlank(nil, body...), " "), nil
}

func (e *Extractor) fromCaptured(ctx context.Context, a *attempt) string {
	if strings.TrimSpace(a.captured) == "" {
		return ""
	}
	doc, err := ParseHTML(a.captured)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("captured markup unusable")
		return ""
	}
	return StructuralText(doc, a.rule.Static)
}

func (e *Extractor) static(ctx context.Context, a *attempt) string {
	res, err := e.client.Get(ctx, a.url)
	if err != nil {
		var fetchErr *Error
		if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 {
			a.halt = true
		}
		zerolog.Ctx(ctx).Warn().Err(err).Msg("static fetch failed")
		return ""
	}

	doc, err := ParseHTML(res.HTML)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("static markup unusable")
		return ""
	}
	a.fetched = doc
	return StructuralText(doc, a.rule.Static)
}

// generic reads the whole fetched page, or the captured page when the fetch failed.
func (e *Extractor) generic(_ context.Context, a *attempt) string {
	doc := a.fetched
	if doc == nil && a.captured != "" {
		doc, _ = ParseHTML(a.captured)
	}
	if doc == nil {
		return ""
	}
	return GenericText(doc, e.opts.GenericTextLimit)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
