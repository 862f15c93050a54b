package ownkeys

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/client/models"
	"github.com/dmitrijs2005/cenkeeper/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// MostRecent lists up to n keys ordered by issuance, newest first.
func (r *SQLiteRepository) MostRecent(ctx context.Context, n int) ([]models.OwnKey, error) {
	query := `SELECT secret, issued_at FROM own_keys ORDER BY issued_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to select own keys: %w", err)
	}
	defer rows.Close()

	var result []models.OwnKey
	for rows.Next() {
		var item models.OwnKey
		var issuedAt int64
		if err := rows.Scan(&item.Secret, &issuedAt); err != nil {
			return nil, err
		}
		item.Issued = time.Unix(issuedAt, 0)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Append stores a new rolling key. It expects exactly one row to be written.
func (r *SQLiteRepository) Append(ctx context.Context, key *models.OwnKey) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO own_keys (secret, issued_at) VALUES (?, ?)`,
		key.Secret, key.Issued.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert own key: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}
