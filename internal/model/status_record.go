package model

import "time"

// Pipeline stage names as written on processing status records.
const (
	StageRasterize     = "RASTERIZE"
	StageOCRExtraction = "OCR_EXTRACTION"
	StageVectorize     = "VECTORIZE"
	StageFinalize      = "FINALIZE"
)

// ProcessingStatusRecord is one row per (document, stage) attempt.
// History is append-only; rows are superseded, never overwritten.
type ProcessingStatusRecord struct {
	ID          int        `json:"id"`
	DocumentID  int        `json:"document_id"`
	Stage       string     `json:"stage"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
}
