// Package api implements the device's client to the disclosure server:
// key-feed retrieval, report retrieval, and authenticated report submission.
package api

import (
	"context"

	"github.com/dmitrijs2005/cenkeeper/internal/client/models"
)

// Client is the network surface the services depend on. The HTTP
// implementation is the real one; tests substitute fakes.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	Register(ctx context.Context, name string, salt, verifier []byte) error
	GetSalt(ctx context.Context, name string) ([]byte, error)
	Login(ctx context.Context, name string, verifier []byte) error

	// FetchKeysSince returns disclosed keys with sequence numbers greater
	// than checkpoint, plus the new checkpoint to resume from.
	FetchKeysSince(ctx context.Context, checkpoint uint64) ([]models.DisclosedKey, uint64, error)

	// FetchReport resolves a matched key value to its symptom report.
	FetchReport(ctx context.Context, keyValue []byte) (*models.ReceivedReport, error)

	// SubmitReport publishes the report bound to the given own keys.
	SubmitReport(ctx context.Context, report models.SymptomReport, keys []models.OwnKey) error
}
