package metadata

import "context"

// CheckpointKey is the metadata slot holding the disclosure-feed checkpoint.
const CheckpointKey = "key_checkpoint"

// Repository is a small key/value store for device-local bookkeeping, most
// importantly the last disclosure-feed checkpoint.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error

	// Checkpoint returns the stored disclosure checkpoint, zero when absent.
	Checkpoint(ctx context.Context) (uint64, error)

	// SetCheckpoint persists the disclosure checkpoint.
	SetCheckpoint(ctx context.Context, cp uint64) error
}
