package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/cen"
	"github.com/dmitrijs2005/cenkeeper/internal/client/models"
	"github.com/dmitrijs2005/cenkeeper/internal/client/repositories/ownkeys"
	"github.com/dmitrijs2005/cenkeeper/internal/common"
	"github.com/dmitrijs2005/cenkeeper/internal/logging"
)

// KeyService rotates the device's own rolling key.
type KeyService struct {
	ownKeys  ownkeys.Repository
	rotation time.Duration
	logger   logging.Logger
}

func NewKeyService(repo ownkeys.Repository, rotation time.Duration, logger logging.Logger) *KeyService {
	return &KeyService{
		ownKeys:  repo,
		rotation: rotation,
		logger:   logger.With("module", "keys"),
	}
}

// EnsureFresh appends a new random rolling key when the newest stored key is
// older than the rotation interval (or none exists yet).
func (s *KeyService) EnsureFresh(ctx context.Context) error {
	keys, err := s.ownKeys.MostRecent(ctx, 1)
	if err != nil {
		return fmt.Errorf("reading own key history: %w", err)
	}

	if len(keys) > 0 && nowFn().Sub(keys[0].Issued) < s.rotation {
		return nil
	}

	key := &models.OwnKey{
		Secret: common.GenerateRandByteArray(cen.SecretLength),
		Issued: nowFn(),
	}
	if err := s.ownKeys.Append(ctx, key); err != nil {
		return fmt.Errorf("storing rotated key: %w", err)
	}

	s.logger.Info(ctx, "rolling key rotated")
	return nil
}
