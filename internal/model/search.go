package model

import "time"

// SearchFilters narrows the candidate scan by document metadata.
type SearchFilters struct {
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	FileType      string
	Tags          []string
}

// PageCandidate is a best-page-per-document row from the ANN scan, ordered by
// dense distance ascending.
type PageCandidate struct {
	DocumentID    int
	PageNumber    int
	Distance      float64
	SparseWeights map[string]float64
	Text          string
}
