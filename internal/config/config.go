// Package config provides configuration loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/fan-verifier/internal/fetch"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FANVERIFY_"

// Config is the verifier configuration. Every field has a default; a config file
// and the environment override them in that order.
type Config struct {
	Log     LogConfig     `yaml:"log" json:"log"`
	OCR     OCRConfig     `yaml:"ocr" json:"ocr"`
	Browser BrowserConfig `yaml:"browser" json:"browser"`
	Fetch   FetchConfig   `yaml:"fetch" json:"fetch"`
	Batch   BatchConfig   `yaml:"batch" json:"batch"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=trace debug info warn error"`
	JSON  bool   `yaml:"json" json:"json"`
}

type OCRConfig struct {
	Language       string  `yaml:"language" json:"language" validate:"required"`
	DPI            float64 `yaml:"dpi" json:"dpi" validate:"gte=72,lte=1200"`
	ContrastFactor float64 `yaml:"contrastFactor" json:"contrastFactor" validate:"gt=0"`
	// MaxDocumentBytes rejects larger uploads before decoding; 0 disables the cap.
	MaxDocumentBytes int64 `yaml:"maxDocumentBytes" json:"maxDocumentBytes" validate:"gte=0"`
}

type BrowserConfig struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"`
	ExecPath        string        `yaml:"execPath" json:"execPath"`
	SessionTimeout  time.Duration `yaml:"sessionTimeout" json:"sessionTimeout" validate:"gt=0"`
	LandmarkTimeout time.Duration `yaml:"landmarkTimeout" json:"landmarkTimeout" validate:"gt=0"`
	SettleDelay     time.Duration `yaml:"settleDelay" json:"settleDelay" validate:"gte=0"`
}

type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
	UserAgent string        `yaml:"userAgent" json:"userAgent" validate:"required"`
	Attempts  uint          `yaml:"attempts" json:"attempts" validate:"gte=1,lte=5"`
}

type BatchConfig struct {
	Workers int `yaml:"workers" json:"workers" validate:"gte=1,lte=32"`
}

type MetricsConfig struct {
	// File receives the Prometheus text exposition after a run; empty disables it.
	File string `yaml:"file" json:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		OCR: OCRConfig{
			Language:         "por",
			DPI:              300,
			ContrastFactor:   2.0,
			MaxDocumentBytes: 2 << 20,
		},
		Browser: BrowserConfig{
			Enabled:         true,
			SessionTimeout:  45 * time.Second,
			LandmarkTimeout: 10 * time.Second,
			SettleDelay:     3 * time.Second,
		},
		Fetch: FetchConfig{
			Timeout:   10 * time.Second,
			UserAgent: fetch.DefaultUserAgent,
			Attempts:  2,
		},
		Batch: BatchConfig{Workers: 2},
	}
}

// Load builds the effective configuration: defaults, then the file at path (if
// any), then FANVERIFY_* environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// JSON is decoded as YAML too, so durations such as "30s" parse in both.
	format := "YAML"
	if filepath.Ext(path) == ".json" {
		format = "JSON"
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", format, err)
	}
	return nil
}

// EnvError reports an environment override that could not be parsed.
type EnvError struct {
	Key   string
	Value string
	Err   error
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("config error: %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *EnvError) Unwrap() error {
	return e.Err
}

// ApplyEnv overrides fields from FANVERIFY_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	parse := func(key string, set func(string) error) {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return
		}
		if err := set(strings.TrimSpace(v)); err != nil {
			errs = append(errs, &EnvError{Key: EnvPrefix + key, Value: v, Err: err})
		}
	}
	boolean := func(dst *bool) func(string) error {
		return func(v string) (err error) {
			*dst, err = strconv.ParseBool(v)
			return err
		}
	}
	duration := func(dst *time.Duration) func(string) error {
		return func(v string) (err error) {
			*dst, err = time.ParseDuration(v)
			return err
		}
	}

	str("LOG_LEVEL", &c.Log.Level)
	parse("LOG_JSON", boolean(&c.Log.JSON))

	str("OCR_LANGUAGE", &c.OCR.Language)
	parse("OCR_DPI", func(v string) (err error) {
		c.OCR.DPI, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("OCR_CONTRAST_FACTOR", func(v string) (err error) {
		c.OCR.ContrastFactor, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("OCR_MAX_DOCUMENT_BYTES", func(v string) (err error) {
		c.OCR.MaxDocumentBytes, err = strconv.ParseInt(v, 10, 64)
		return err
	})

	parse("BROWSER_ENABLED", boolean(&c.Browser.Enabled))
	str("BROWSER_EXEC_PATH", &c.Browser.ExecPath)
	parse("BROWSER_SESSION_TIMEOUT", duration(&c.Browser.SessionTimeout))
	parse("BROWSER_LANDMARK_TIMEOUT", duration(&c.Browser.LandmarkTimeout))
	parse("BROWSER_SETTLE_DELAY", duration(&c.Browser.SettleDelay))

	parse("FETCH_TIMEOUT", duration(&c.Fetch.Timeout))
	str("FETCH_USER_AGENT", &c.Fetch.UserAgent)
	parse("FETCH_ATTEMPTS", func(v string) error {
		n, err := strconv.ParseUint(v, 10, 32)
		c.Fetch.Attempts = uint(n)
		return err
	})

	parse("BATCH_WORKERS", func(v string) (err error) {
		c.Batch.Workers, err = strconv.Atoi(v)
		return err
	})
	str("METRICS_FILE", &c.Metrics.File)

	return errors.Join(errs...)
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}
