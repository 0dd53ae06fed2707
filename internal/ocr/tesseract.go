package ocr

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
)

// Tesseract is a Recognizer backed by a single process-wide Tesseract client.
// The client is not safe for concurrent use, so calls are serialized.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseract starts a Tesseract client. Call Close on shutdown.
func NewTesseract() *Tesseract {
	return &Tesseract{client: gosseract.NewClient()}
}

// Recognize runs OCR over an encoded image.
func (t *Tesseract) Recognize(ctx context.Context, img []byte, opts RecognizeOptions) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := t.client.SetLanguage(opts.Language); err != nil {
		return "", fmt.Errorf("set language %q: %w", opts.Language, err)
	}
	if err := t.client.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	preserve := "0"
	if opts.PreserveInterwordSpaces {
		preserve = "1"
	}
	if err := t.client.SetVariable("preserve_interword_spaces", preserve); err != nil {
		return "", fmt.Errorf("set preserve_interword_spaces: %w", err)
	}
	if err := t.client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}
	return t.client.Text()
}

// Close releases the Tesseract client.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}

// Fitz is a Rasterizer backed by MuPDF.
type Fitz struct{}

// Rasterize renders every page of pdf at the given resolution.
func (Fitz) Rasterize(ctx context.Context, pdf []byte, dpi float64) ([]image.Image, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = doc.Close() }()

	pages := make([]image.Image, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(n, dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", n+1, err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}
