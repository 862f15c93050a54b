package devices

import (
	"context"

	"github.com/dmitrijs2005/cenkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, device *models.Device) (*models.Device, error)
	GetByName(ctx context.Context, name string) (*models.Device, error)
}
