// Package ocr extracts text from identity documents (JPEG, PNG or PDF) using
// Tesseract, degrading to an absent result instead of failing.
package ocr

import (
	"context"
	"image"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/fan-verifier/internal/types"
)

// Tesseract page segmentation mode 6: assume a single uniform block of text.
const PageSegModeSingleBlock = 6

// Defaults tuned for Brazilian identity documents
const (
	DefaultLanguage       = "por"
	DefaultPDFDPI         = 300.0
	DefaultContrastFactor = 2.0
)

// RecognizeOptions configures a single recognition call.
type RecognizeOptions struct {
	Language                string
	PageSegMode             int
	PreserveInterwordSpaces bool
}

// Recognizer turns an encoded image into text.
type Recognizer interface {
	Recognize(ctx context.Context, img []byte, opts RecognizeOptions) (string, error)
}

// Rasterizer renders every page of a PDF to an image, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte, dpi float64) ([]image.Image, error)
}

// Options configures the engine.
type Options struct {
	Language       string
	PDFDPI         float64
	ContrastFactor float64
	PageSegMode    int
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		Language:       DefaultLanguage,
		PDFDPI:         DefaultPDFDPI,
		ContrastFactor: DefaultContrastFactor,
		PageSegMode:    PageSegModeSingleBlock,
	}
}

// Engine extracts text from documents.
type Engine struct {
	recognizer Recognizer
	rasterizer Rasterizer
	opts       Options
}

// NewEngine creates an engine. Zero-valued options fall back to the defaults.
func NewEngine(recognizer Recognizer, rasterizer Rasterizer, opts Options) *Engine {
	defaults := DefaultOptions()
	if opts.Language == "" {
		opts.Language = defaults.Language
	}
	if opts.PDFDPI <= 0 {
		opts.PDFDPI = defaults.PDFDPI
	}
	if opts.ContrastFactor <= 0 {
		opts.ContrastFactor = defaults.ContrastFactor
	}
	if opts.PageSegMode == 0 {
		opts.PageSegMode = defaults.PageSegMode
	}
	return &Engine{recognizer: recognizer, rasterizer: rasterizer, opts: opts}
}

// Extract returns the text found in a document.
//
// An unsupported content type is rejected with ErrUnsupportedContentType before
// anything is decoded. Every other failure (corrupt image, unreadable PDF,
// recognizer error, cancelled context) is logged and reported as absent text so
// that matching still runs and yields "not matched".
func (e *Engine) Extract(ctx context.Context, data []byte, contentType types.ContentType) (text types.ExtractedText, err error) {
	if !contentType.Supported() {
		return types.AbsentText(), UnsupportedContentTypeError(contentType)
	}

	logger := zerolog.Ctx(ctx).With().Str("content_type", string(contentType)).Int("bytes", len(data)).Logger()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("ocr extraction panicked")
			text, err = types.AbsentText(), nil
		}
	}()

	var raw string
	var extractErr error
	if contentType.IsRaster() {
		raw, extractErr = e.extractImage(ctx, data)
	} else {
		raw, extractErr = e.extractPDF(ctx, data)
	}
	if extractErr != nil {
		logger.Warn().Err(extractErr).Dur("elapsed", time.Since(start)).Msg("ocr extraction failed")
		return types.AbsentText(), nil
	}

	logger.Debug().Int("chars", len(raw)).Dur("elapsed", time.Since(start)).Msg("ocr extraction complete")
	return types.PresentText(raw), nil
}

func (e *Engine) recognizeOptions() RecognizeOptions {
	return RecognizeOptions{
		Language:                e.opts.Language,
		PageSegMode:             e.opts.PageSegMode,
		PreserveInterwordSpaces: true,
	}
}

func (e *Engine) extractImage(ctx context.Context, data []byte) (string, error) {
	img, err := decodeImage(data)
	if err != nil {
		return "", &StageError{Stage: "decode", Cause: err}
	}
	return e.recognize(ctx, img, 0)
}

func (e *Engine) extractPDF(ctx context.Context, data []byte) (string, error) {
	pages, err := e.rasterizer.Rasterize(ctx, data, e.opts.PDFDPI)
	if err != nil {
		return "", &StageError{Stage: "rasterize", Cause: err}
	}

	texts := make([]string, 0, len(pages))
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return "", &StageError{Stage: "recognize", Page: i + 1, Cause: err}
		}
		text, err := e.recognize(ctx, page, i+1)
		if err != nil {
			return "", err
		}
		texts = append(texts, text)
	}
	return strings.Join(texts, "\n"), nil
}

func (e *Engine) recognize(ctx context.Context, img image.Image, page int) (string, error) {
	encoded, err := encodePNG(Preprocess(img, e.opts.ContrastFactor))
	if err != nil {
		return "", &StageError{Stage: "encode", Page: page, Cause: err}
	}
	text, err := e.recognizer.Recognize(ctx, encoded, e.recognizeOptions())
	if err != nil {
		return "", &StageError{Stage: "recognize", Page: page, Cause: err}
	}
	return text, nil
}
