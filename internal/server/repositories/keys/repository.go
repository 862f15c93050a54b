package keys

import (
	"context"

	"github.com/dmitrijs2005/cenkeeper/internal/server/models"
)

type Repository interface {
	// Create publishes a key value bound to a report. The sequence number
	// is assigned by the database.
	Create(ctx context.Context, value []byte, reportID string) error

	// ListSince returns up to limit keys with sequence numbers greater than
	// since, in ascending sequence order.
	ListSince(ctx context.Context, since uint64, limit int) ([]models.DisclosedKey, error)
}
