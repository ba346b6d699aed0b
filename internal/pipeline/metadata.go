package pipeline

import (
	"context"
	"fmt"

	"paperbase/internal/model"
)

// MetadataIndexer re-vectorizes only the synthetic title/notes page (-1).
// Used when the user edits document metadata outside a full pipeline run.
type MetadataIndexer struct {
	documents DocumentStore
	vectors   VectorStore
}

func NewMetadataIndexer(documents DocumentStore, vectors VectorStore) *MetadataIndexer {
	return &MetadataIndexer{documents: documents, vectors: vectors}
}

func (m *MetadataIndexer) ReindexMetadata(ctx context.Context, documentID int) error {
	doc, err := m.documents.FindByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load document %d: %w", documentID, err)
	}
	meta := metadataPageText(doc)
	if meta == "" {
		return nil
	}
	return indexPage(ctx, m.vectors, documentID, model.MetadataPageNumber, meta)
}
