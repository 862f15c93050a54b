package reports

import (
	"context"

	"github.com/dmitrijs2005/cenkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, report *models.Report) error

	// GetByKeyValue resolves a disclosed key value to the report it was
	// published with. Returns common.ErrorNotFound when no key matches.
	GetByKeyValue(ctx context.Context, value []byte) (*models.Report, error)
}
