package pipeline

import (
	"errors"
	"fmt"
)

// ErrImageConversion means rasterization produced zero pages for the whole
// document. Non-retryable: the input itself is unusable.
var ErrImageConversion = errors.New("ImageConversionError: no pages produced from source files")

// ErrOCRExtraction means every page of the document came back empty from the
// OCR service. Retryable: attributed to transient service flakiness, not to
// the input.
var ErrOCRExtraction = errors.New("OCRExtractionError: no text extracted from any page")

// StageFailure is the terminal failure of one pipeline stage after its retry
// budget is exhausted. The document has already been driven to ERROR when a
// StageFailure is returned.
type StageFailure struct {
	DocumentID int
	Stage      string
	Err        error
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("stage %s failed for document %d: %v", e.Stage, e.DocumentID, e.Err)
}

func (e *StageFailure) Unwrap() error { return e.Err }
