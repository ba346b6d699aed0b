package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"paperbase/internal/model"
)

type VectorRepository struct {
	db *pgxpool.Pool
}

func NewVectorRepository(db *pgxpool.Pool) *VectorRepository {
	return &VectorRepository{db: db}
}

// Upsert writes a page vector, overwriting any previous row for the same
// (document, page). Re-processing a page is therefore idempotent.
func (r *VectorRepository) Upsert(ctx context.Context, pv *model.PageVector) error {
	sparse, err := json.Marshal(pv.SparseWeights)
	if err != nil {
		return fmt.Errorf("failed to marshal sparse weights: %w", err)
	}

	query := `
        INSERT INTO page_vectors (document_id, page_number, embedding, sparse_weights, text)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (document_id, page_number)
        DO UPDATE SET embedding = EXCLUDED.embedding,
                      sparse_weights = EXCLUDED.sparse_weights,
                      text = EXCLUDED.text
    `
	_, err = r.db.Exec(ctx, query,
		pv.DocumentID,
		pv.PageNumber,
		pgvector.NewVector(pv.Embedding),
		sparse,
		pv.Text,
	)
	return err
}

// DeleteForDocument removes all page vectors of a document. Normally covered
// by the FK cascade; used when re-processing shrinks a document's page set.
func (r *VectorRepository) DeleteForDocument(ctx context.Context, documentID int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM page_vectors WHERE document_id = $1`, documentID)
	return err
}

// BestPages runs the ANN scan over one owner's pages and keeps, per document,
// only the page closest to the query vector. Results come back ordered by
// dense distance ascending, capped at limit.
func (r *VectorRepository) BestPages(ctx context.Context, ownerID int, query []float32, filters model.SearchFilters, limit int) ([]model.PageCandidate, error) {
	var sb strings.Builder
	args := []any{pgvector.NewVector(query), ownerID}

	sb.WriteString(`
        SELECT best.document_id, best.page_number, best.distance, best.sparse_weights, best.text
        FROM (
            SELECT DISTINCT ON (pv.document_id)
                pv.document_id,
                pv.page_number,
                pv.embedding <=> $1 AS distance,
                pv.sparse_weights,
                pv.text
            FROM page_vectors pv
            JOIN documents d ON d.id = pv.document_id
            WHERE d.user_id = $2 AND d.status = 'READY'
    `)

	if filters.CreatedAfter != nil {
		args = append(args, *filters.CreatedAfter)
		fmt.Fprintf(&sb, " AND d.created_at >= $%d", len(args))
	}
	if filters.CreatedBefore != nil {
		args = append(args, *filters.CreatedBefore)
		fmt.Fprintf(&sb, " AND d.created_at <= $%d", len(args))
	}
	if filters.FileType != "" {
		args = append(args, "%."+filters.FileType)
		fmt.Fprintf(&sb, " AND d.source_files[1] ILIKE $%d", len(args))
	}
	if len(filters.Tags) > 0 {
		args = append(args, filters.Tags)
		fmt.Fprintf(&sb, " AND d.tags && $%d", len(args))
	}

	args = append(args, limit)
	fmt.Fprintf(&sb, `
            ORDER BY pv.document_id, distance
        ) best
        ORDER BY best.distance
        LIMIT $%d
    `, len(args))

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []model.PageCandidate
	for rows.Next() {
		var c model.PageCandidate
		var sparse []byte
		if err := rows.Scan(&c.DocumentID, &c.PageNumber, &c.Distance, &sparse, &c.Text); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(sparse, &c.SparseWeights); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sparse weights for document %d: %w", c.DocumentID, err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
