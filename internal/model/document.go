package model

import "time"

// Status is the lifecycle state of a document in the ingestion pipeline.
type Status string

const (
	StatusUploaded    Status = "UPLOADED"
	StatusProcessing  Status = "PROCESSING"
	StatusOCRComplete Status = "OCR_COMPLETE"
	StatusReady       Status = "READY"
	StatusError       Status = "ERROR"
)

// transitions is the legal transition table. ERROR is reachable from every
// non-terminal state and is absorbing for automatic processing.
var transitions = map[Status][]Status{
	StatusUploaded:    {StatusProcessing, StatusError},
	StatusProcessing:  {StatusOCRComplete, StatusError},
	StatusOCRComplete: {StatusReady, StatusError},
	StatusReady:       {},
	StatusError:       {StatusUploaded}, // manual re-trigger only
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends automatic processing.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusError
}

type Document struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Title       string    `json:"title"`
	Notes       string    `json:"notes"`
	Status      Status    `json:"status"`
	SourceFiles []string  `json:"source_files"` // original file paths in upload order
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
