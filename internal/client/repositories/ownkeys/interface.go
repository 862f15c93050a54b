package ownkeys

import (
	"context"

	"github.com/dmitrijs2005/cenkeeper/internal/client/models"
)

// Repository is the own-key store: the device's rolling key history.
// The submission pipeline reads a bounded most-recent prefix; rotation
// appends.
type Repository interface {
	// MostRecent returns up to n keys, most recent first.
	MostRecent(ctx context.Context, n int) ([]models.OwnKey, error)

	// Append stores a newly issued key.
	Append(ctx context.Context, key *models.OwnKey) error
}
