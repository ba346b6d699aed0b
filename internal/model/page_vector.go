package model

// MetadataPageNumber is the reserved page holding the synthetic title/notes
// text. It is searchable but excluded from document-viewing queries.
const MetadataPageNumber = -1

// PageVector is the dual representation of one extracted page: a dense
// embedding for semantic similarity plus a sparse token-to-weight map for
// keyword relevance. At most one row exists per (document, page);
// re-processing overwrites.
type PageVector struct {
	DocumentID    int
	PageNumber    int
	Embedding     []float32
	SparseWeights map[string]float64
	Text          string
}
