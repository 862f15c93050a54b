package devices

import (
	"context"
	"database/sql"
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

func (r *PostgresRepository) Create(ctx context.Context, device *models.Device) (*models.Device, error) {

	query :=
		`INSERT INTO devices (name, salt, verifier)
         VALUES ($1, $2, $3)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		device.Name, device.Salt, device.Verifier).Scan(&device.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return device, nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Device, error) {
	query :=
		`SELECT id, name, verifier, salt FROM devices
		 WHERE name = $1
		 `

	device := &models.Device{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&device.ID, &device.Name, &device.Verifier, &device.Salt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return device, nil
}
