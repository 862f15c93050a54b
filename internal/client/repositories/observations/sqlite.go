package observations

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

// Insert records an observed identifier. Duplicates are ignored; the return
// value reports whether a new row was written.
func (r *SQLiteRepository) Insert(ctx context.Context, o *models.ObservedCEN) (bool, error) {
	query := `INSERT INTO observations (value, seen_at) VALUES (?, ?)
			ON CONFLICT(value) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, o.Value, o.SeenAt.Unix())
	if err != nil {
		return false, fmt.Errorf("failed to insert observation: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra == 1, nil
}

// GetAll lists the whole observation catalogue, oldest first.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.ObservedCEN, error) {
	query := `SELECT value, seen_at FROM observations ORDER BY seen_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select observations: %w", err)
	}
	defer rows.Close()

	var result []models.ObservedCEN
	for rows.Next() {
		var item models.ObservedCEN
		var seenAt int64
		if err := rows.Scan(&item.Value, &seenAt); err != nil {
			return nil, err
		}
		item.SeenAt = time.Unix(seenAt, 0)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// PruneBefore removes observations seen strictly before the cutoff.
func (r *SQLiteRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM observations WHERE seen_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune observations: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra, nil
}
