// Package reports provides a PostgreSQL-backed repository for submitted
// symptom reports. Symptoms are stored as a JSONB array.
package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cenkeeper/internal/common"
	"github.com/dmitrijs2005/cenkeeper/internal/dbx"
	"github.com/dmitrijs2005/cenkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, report *models.Report) error {
	symptoms, err := json.Marshal(report.Symptoms)
	if err != nil {
		return fmt.Errorf("marshal symptoms: %w", err)
	}

	query := `
		INSERT INTO reports (id, device_id, symptoms, authored_at, storage_key)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		report.ID, report.DeviceID, symptoms, report.AuthoredAt, report.StorageKey); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByKeyValue(ctx context.Context, value []byte) (*models.Report, error) {
	query := `
		SELECT r.id, r.device_id, r.symptoms, r.authored_at, r.storage_key
		FROM reports r
		JOIN disclosed_keys k ON k.report_id = r.id
		WHERE k.value = $1
	`

	report := &models.Report{}
	var symptoms []byte
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&report.ID, &report.DeviceID, &symptoms, &report.AuthoredAt, &report.StorageKey)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := json.Unmarshal(symptoms, &report.Symptoms); err != nil {
		return nil, fmt.Errorf("unmarshal symptoms: %w", err)
	}

	return report, nil
}
