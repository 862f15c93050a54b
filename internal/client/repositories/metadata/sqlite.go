package metadata

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"

	"github.com/dmitrijs2005/cenkeeper/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

// Checkpoint returns the stored disclosure checkpoint, or zero when the
// device has never synchronized.
func (r *SQLiteRepository) Checkpoint(ctx context.Context) (uint64, error) {
	value, err := r.Get(ctx, CheckpointKey)
	if err != nil {
		return 0, err
	}
	if len(value) != 8 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(value), nil
}

// SetCheckpoint persists the disclosure checkpoint.
func (r *SQLiteRepository) SetCheckpoint(ctx context.Context, cp uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, cp)
	return r.Set(ctx, CheckpointKey, buf)
}
