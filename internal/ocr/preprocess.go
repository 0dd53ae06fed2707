package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// contrastPercentage converts a multiplicative contrast factor (2.0 doubles the
// distance of every tone from mid-gray) into imaging's percentage scale.
func contrastPercentage(factor float64) float64 {
	switch {
	case factor <= 0:
		return -100
	case factor < 1:
		return (factor - 1) * 100
	default:
		return (1 - 1/factor) * 100
	}
}

// Preprocess converts an image to grayscale and boosts its contrast so faded or
// low-quality scans recognize better.
func Preprocess(img image.Image, contrastFactor float64) image.Image {
	gray := imaging.Grayscale(img)
	if contrastFactor == 1 {
		return gray
	}
	return imaging.AdjustContrast(gray, contrastPercentage(contrastFactor))
}

// decodeImage decodes a JPEG or PNG, honoring EXIF orientation so phone photos
// of documents are upright.
func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// encodePNG serializes a preprocessed image for the recognizer.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
