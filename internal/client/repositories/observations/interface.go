package observations

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/client/models"
)

// Repository is the observation store: every identifier the radio layer has
// seen, with its observation timestamp. The matching workflow only reads it.
type Repository interface {
	// Insert records an observation. Returns true if it was newly inserted,
	// false if the identifier was already present (duplicate broadcast).
	Insert(ctx context.Context, o *models.ObservedCEN) (bool, error)

	// GetAll returns the full catalogue for matching.
	GetAll(ctx context.Context) ([]models.ObservedCEN, error)

	// PruneBefore removes observations older than the cutoff (retention).
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
