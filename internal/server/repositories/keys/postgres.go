// Package keys provides a PostgreSQL-backed repository for the disclosure
// feed: published rolling keys ordered by a database-assigned sequence.
package keys

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cenkeeper/internal/dbx"
	"github.com/dmitrijs2005/cenkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, value []byte, reportID string) error {
	query := `
		INSERT INTO disclosed_keys (value, report_id)
		VALUES ($1, $2)
	`
	if _, err := r.db.ExecContext(ctx, query, value, reportID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListSince(ctx context.Context, since uint64, limit int) ([]models.DisclosedKey, error) {
	query := `
		SELECT seq, value, report_id
		FROM disclosed_keys
		WHERE seq > $1
		ORDER BY seq
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var keys []models.DisclosedKey
	for rows.Next() {
		var k models.DisclosedKey
		if err := rows.Scan(&k.Seq, &k.Value, &k.ReportID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return keys, nil
}
