package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"paperbase/internal/model"
)

type DocumentRepository struct {
	db *pgxpool.Pool
}

func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a new document shell in UPLOADED state.
func (r *DocumentRepository) Create(ctx context.Context, d *model.Document) (int, error) {
	query := `
        INSERT INTO documents (user_id, title, notes, status, source_files, tags, created_at, updated_at)
        VALUES ($1, $2, $3, 'UPLOADED', $4, $5, NOW(), NOW())
        RETURNING id
    `
	var id int
	err := r.db.QueryRow(ctx, query, d.UserID, d.Title, d.Notes, d.SourceFiles, d.Tags).Scan(&id)
	return id, err
}

func (r *DocumentRepository) FindByID(ctx context.Context, id int) (*model.Document, error) {
	query := `
        SELECT id, user_id, title, notes, status, source_files, tags, created_at, updated_at
        FROM documents
        WHERE id = $1
    `
	var d model.Document
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.UserID,
		&d.Title,
		&d.Notes,
		&d.Status,
		&d.SourceFiles,
		&d.Tags,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateStatus moves the document to the given lifecycle status after
// validating the transition against the state machine.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id int, next model.Status) error {
	current, err := r.currentStatus(ctx, id)
	if err != nil {
		return err
	}
	if !current.CanTransition(next) {
		return fmt.Errorf("illegal status transition %s -> %s for document %d", current, next, id)
	}

	query := `
        UPDATE documents
        SET status = $1, updated_at = NOW()
        WHERE id = $2
    `
	_, err = r.db.Exec(ctx, query, next, id)
	return err
}

func (r *DocumentRepository) currentStatus(ctx context.Context, id int) (model.Status, error) {
	var s model.Status
	err := r.db.QueryRow(ctx, `SELECT status FROM documents WHERE id = $1`, id).Scan(&s)
	return s, err
}

// UpdateTitleNotes edits the user-visible metadata. The caller re-indexes the
// synthetic metadata page afterwards.
func (r *DocumentRepository) UpdateTitleNotes(ctx context.Context, id int, title, notes string) error {
	query := `
        UPDATE documents
        SET title = $1, notes = $2, updated_at = NOW()
        WHERE id = $3
    `
	_, err := r.db.Exec(ctx, query, title, notes, id)
	return err
}

// AttachSourceFile appends a file path to the document's ordered source list.
func (r *DocumentRepository) AttachSourceFile(ctx context.Context, id int, filePath string) error {
	query := `
        UPDATE documents
        SET source_files = array_append(source_files, $1), updated_at = NOW()
        WHERE id = $2
    `
	_, err := r.db.Exec(ctx, query, filePath, id)
	return err
}

// Delete removes the document; page vectors and status history cascade.
func (r *DocumentRepository) Delete(ctx context.Context, id, userID int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %d not found for user %d", id, userID)
	}
	return nil
}
