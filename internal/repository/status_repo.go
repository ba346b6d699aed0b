package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"paperbase/internal/model"
)

type StatusRepository struct {
	db *pgxpool.Pool
}

func NewStatusRepository(db *pgxpool.Pool) *StatusRepository {
	return &StatusRepository{db: db}
}

// OpenStage appends a new in-progress record for (document, stage) and
// returns its id. History is append-only; earlier records for the same stage
// are superseded, never touched.
func (r *StatusRepository) OpenStage(ctx context.Context, documentID int, stage string) (int, error) {
	query := `
        INSERT INTO processing_status (document_id, stage, started_at, retry_count)
        VALUES ($1, $2, NOW(), 0)
        RETURNING id
    `
	var id int
	err := r.db.QueryRow(ctx, query, documentID, stage).Scan(&id)
	return id, err
}

// CompleteStage stamps the record's completion time.
func (r *StatusRepository) CompleteStage(ctx context.Context, recordID int) error {
	query := `
        UPDATE processing_status
        SET completed_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, recordID)
	return err
}

// FailStage records the stage's last error and how many attempts were spent.
func (r *StatusRepository) FailStage(ctx context.Context, recordID int, errMsg string, retryCount int) error {
	query := `
        UPDATE processing_status
        SET completed_at = NOW(), error = $1, retry_count = $2
        WHERE id = $3
    `
	_, err := r.db.Exec(ctx, query, errMsg, retryCount, recordID)
	return err
}

// WriteCompleted appends an immediately-completed record, used for the final
// indexing stage marker.
func (r *StatusRepository) WriteCompleted(ctx context.Context, documentID int, stage string) error {
	query := `
        INSERT INTO processing_status (document_id, stage, started_at, completed_at, retry_count)
        VALUES ($1, $2, NOW(), NOW(), 0)
    `
	_, err := r.db.Exec(ctx, query, documentID, stage)
	return err
}

// History returns all status records for a document, oldest first.
func (r *StatusRepository) History(ctx context.Context, documentID int) ([]model.ProcessingStatusRecord, error) {
	query := `
        SELECT id, document_id, stage, started_at, completed_at, COALESCE(error, ''), retry_count
        FROM processing_status
        WHERE document_id = $1
        ORDER BY started_at, id
    `
	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.ProcessingStatusRecord
	for rows.Next() {
		var rec model.ProcessingStatusRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.DocumentID,
			&rec.Stage,
			&rec.StartedAt,
			&rec.CompletedAt,
			&rec.Error,
			&rec.RetryCount,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
