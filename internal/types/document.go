// Package types provides type definitions for the documents, profiles and verdicts
// exchanged between the verification pipelines and their callers.
package types

import (
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ContentType is the declared MIME type of an uploaded identity document.
type ContentType string

const (
	// ContentTypeJPEG is a JPEG raster image
	ContentTypeJPEG ContentType = "image/jpeg"
	// ContentTypePNG is a PNG raster image
	ContentTypePNG ContentType = "image/png"
	// ContentTypePDF is a PDF document, rasterized page by page
	ContentTypePDF ContentType = "application/pdf"
)

// SupportedContentTypes returns the document content types accepted for OCR.
func SupportedContentTypes() []ContentType {
	return []ContentType{ContentTypeJPEG, ContentTypePNG, ContentTypePDF}
}

// Supported reports whether the content type is on the allow-list.
func (c ContentType) Supported() bool {
	return slices.Contains(SupportedContentTypes(), c)
}

// IsRaster reports whether the content type is a raster image.
func (c ContentType) IsRaster() bool {
	return c == ContentTypeJPEG || c == ContentTypePNG
}

// ExtractedText holds OCR output. Valid is false when extraction failed entirely,
// which is distinct from a successful extraction that produced no characters.
type ExtractedText struct {
	Text  string `json:"text"`
	Valid bool   `json:"valid"`
}

// PresentText wraps successfully extracted text.
func PresentText(text string) ExtractedText {
	return ExtractedText{Text: text, Valid: true}
}

// AbsentText is the result of a failed extraction.
func AbsentText() ExtractedText {
	return ExtractedText{}
}

// Empty reports whether there is no usable text.
func (t ExtractedText) Empty() bool {
	return !t.Valid || strings.TrimSpace(t.Text) == ""
}

// MatchRule names the rule that produced an identity verdict.
type MatchRule string

const (
	// MatchRuleNone means the name was not found
	MatchRuleNone MatchRule = "none"
	// MatchRuleFullName means the full normalized name appeared contiguously
	MatchRuleFullName MatchRule = "full_name"
	// MatchRuleNameParts means enough individual name parts were found
	MatchRuleNameParts MatchRule = "name_parts"
)

// IdentityVerdict is the outcome of matching extracted document text against a candidate name.
type IdentityVerdict struct {
	Matched       bool          `json:"matched"`
	Rule          MatchRule     `json:"rule"`
	PartsFound    int           `json:"parts_found,omitempty"`
	PartsTotal    int           `json:"parts_total,omitempty"`
	ExtractedText ExtractedText `json:"extracted_text"`
}

// DocumentRequest is a single identity document submitted for verification.
type DocumentRequest struct {
	Data          []byte      `json:"-"`
	ContentType   ContentType `json:"content_type" validate:"required,oneof=image/jpeg image/png application/pdf"`
	CandidateName string      `json:"candidate_name"`
	Filename      string      `json:"filename,omitempty"`
}

// Validate checks the declared content type against the allow-list.
func (r *DocumentRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
