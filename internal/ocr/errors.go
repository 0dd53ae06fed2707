package ocr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/fan-verifier/internal/types"
)

// ErrUnsupportedContentType is returned when a document's declared content type is
// not on the allow-list. It is the only error Extract surfaces to callers.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// UnsupportedContentTypeError wraps ErrUnsupportedContentType with the rejected
// type and the allow-list.
func UnsupportedContentTypeError(contentType types.ContentType) error {
	return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedContentType, contentType, SupportedContentTypeList())
}

// SupportedContentTypeList renders the allow-list for messages and flag help.
func SupportedContentTypeList() string {
	supported := types.SupportedContentTypes()
	names := make([]string, 0, len(supported))
	for _, ct := range supported {
		names = append(names, string(ct))
	}
	return strings.Join(names, ", ")
}

// StageError records which step of the pipeline failed. It is logged, never returned
// past Extract.
type StageError struct {
	Stage string
	Page  int // 1-based; zero for single-image documents
	Cause error
}

func (e *StageError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("ocr %s failed on page %d: %v", e.Stage, e.Page, e.Cause)
	}
	return fmt.Sprintf("ocr %s failed: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}
