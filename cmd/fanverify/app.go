package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/fan-verifier/internal/config"
	"github.com/jonathan/fan-verifier/internal/fetch"
	"github.com/jonathan/fan-verifier/internal/metrics"
	"github.com/jonathan/fan-verifier/internal/ocr"
	"github.com/jonathan/fan-verifier/internal/verify"
)

// app holds the per-invocation state built by setup.
var app struct {
	cfg      *config.Config
	registry *prometheus.Registry
	closers  []func() error
}

// buildService wires the verification service. Tests replace it with fakes.
var buildService = newService

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}
	zerolog.DefaultContextLogger = &logger
	cmd.SetContext(logger.WithContext(cmd.Context()))

	app.cfg = cfg
	app.registry = prometheus.NewRegistry()
	app.closers = nil
	return nil
}

func newLogger(w io.Writer, cfg config.LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	out := w
	if !cfg.JSON {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// newService builds the production service: Tesseract and MuPDF for documents,
// headless Chrome (when enabled) and the static client for profiles.
func newService(cfg *config.Config, m *metrics.Metrics) (*verify.Service, error) {
	tesseract := ocr.NewTesseract()
	app.closers = append(app.closers, tesseract.Close)

	engine := ocr.NewEngine(tesseract, ocr.Fitz{}, ocr.Options{
		Language:       cfg.OCR.Language,
		PDFDPI:         cfg.OCR.DPI,
		ContrastFactor: cfg.OCR.ContrastFactor,
	})

	client := fetch.NewClient(nil, &fetch.Options{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
		Attempts:  cfg.Fetch.Attempts,
	})

	var browser fetch.Browser
	if cfg.Browser.Enabled {
		chrome := fetch.NewChrome(fetch.BrowserOptions{
			UserAgent:      cfg.Fetch.UserAgent,
			SessionTimeout: cfg.Browser.SessionTimeout,
			ExecPath:       cfg.Browser.ExecPath,
		})
		app.closers = append(app.closers, chrome.Close)
		browser = chrome
	}

	extractor := fetch.NewExtractor(browser, client, fetch.ExtractorOptions{
		LandmarkTimeout:  cfg.Browser.LandmarkTimeout,
		SettleDelay:      cfg.Browser.SettleDelay,
		GenericTextLimit: fetch.DefaultGenericTextLimit,
	})

	return verify.NewService(engine, extractor, verify.Options{
		Workers:          cfg.Batch.Workers,
		MaxDocumentBytes: cfg.OCR.MaxDocumentBytes,
		Metrics:          m,
	}), nil
}

func service() (*verify.Service, error) {
	return buildService(app.cfg, metrics.New(app.registry))
}

// closeApp releases the OCR client and the browser process.
func closeApp() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		_ = app.closers[i]()
	}
	app.closers = nil
}

func writeMetrics() error {
	if app.cfg == nil || app.cfg.Metrics.File == "" || app.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(app.cfg.Metrics.File, app.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
