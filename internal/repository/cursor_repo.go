package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"paperbase/internal/model"
)

type CursorRepository struct {
	db *pgxpool.Pool
}

func NewCursorRepository(db *pgxpool.Pool) *CursorRepository {
	return &CursorRepository{db: db}
}

// Upsert stores a user's mailbox settings, keeping last_uid when the row
// already exists.
func (r *CursorRepository) Upsert(ctx context.Context, c *model.MailboxCursor) error {
	query := `
        INSERT INTO mailbox_cursors (user_id, enabled, host, port, username, credential_sealed, folder, last_uid)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
        ON CONFLICT (user_id)
        DO UPDATE SET enabled = EXCLUDED.enabled,
                      host = EXCLUDED.host,
                      port = EXCLUDED.port,
                      username = EXCLUDED.username,
                      credential_sealed = EXCLUDED.credential_sealed,
                      folder = EXCLUDED.folder
    `
	_, err := r.db.Exec(ctx, query,
		c.UserID,
		c.Enabled,
		c.Host,
		c.Port,
		c.Username,
		c.CredentialSealed,
		c.Folder,
	)
	return err
}

// ListEnabled returns all cursors with mailbox ingestion turned on.
func (r *CursorRepository) ListEnabled(ctx context.Context) ([]model.MailboxCursor, error) {
	query := `
        SELECT user_id, enabled, host, port, username, credential_sealed, folder, last_uid
        FROM mailbox_cursors
        WHERE enabled = TRUE
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cursors []model.MailboxCursor
	for rows.Next() {
		var c model.MailboxCursor
		if err := rows.Scan(
			&c.UserID,
			&c.Enabled,
			&c.Host,
			&c.Port,
			&c.Username,
			&c.CredentialSealed,
			&c.Folder,
			&c.LastUID,
		); err != nil {
			return nil, err
		}
		cursors = append(cursors, c)
	}
	return cursors, rows.Err()
}

// AdvanceUID raises last_uid to uid. The watermark never moves backwards.
func (r *CursorRepository) AdvanceUID(ctx context.Context, userID int, uid int64) error {
	query := `
        UPDATE mailbox_cursors
        SET last_uid = GREATEST(last_uid, $1)
        WHERE user_id = $2
    `
	_, err := r.db.Exec(ctx, query, uid, userID)
	return err
}
