// Package services contains server-side business logic. This file implements
// DeviceService, which handles registration, login, and issuing/refreshing
// JWTs plus server-stored refresh tokens.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/common"
	"github.com/dmitrijs2005/cenkeeper/internal/dbx"
	"github.com/dmitrijs2005/cenkeeper/internal/server/auth"
	"github.com/dmitrijs2005/cenkeeper/internal/server/config"
	"github.com/dmitrijs2005/cenkeeper/internal/server/models"
	"github.com/dmitrijs2005/cenkeeper/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// DeviceService provides authentication-related operations:
// - Register: create device accounts
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
type DeviceService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewDeviceService constructs a DeviceService using repositories and server config.
func NewDeviceService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *DeviceService {
	return &DeviceService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *DeviceService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("error searching refresh token: %v", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %v", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.DeviceID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Register creates a new device with the given name, salt, and verifier.
func (s *DeviceService) Register(ctx context.Context, name string, salt, verifier []byte) (*models.Device, error) {
	device := &models.Device{Name: name, Salt: salt, Verifier: verifier}
	repo := s.repomanager.Devices(s.db)
	d, err := repo.Create(ctx, device)
	if err != nil {
		return nil, fmt.Errorf("error creating device: %v", err)
	}
	return d, nil
}

// GetSalt returns the device's stored salt or a random salt if the device is
// absent, to avoid leaking existence through timing.
func (s *DeviceService) GetSalt(ctx context.Context, name string) ([]byte, error) {
	repo := s.repomanager.Devices(s.db)
	device, err := repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.getRandomSalt(), nil
		}
		return nil, common.ErrorInternal
	}
	return device.Salt, nil
}

// Login verifies the provided verifierCandidate against the stored verifier
// and, on success, returns a new TokenPair.
func (s *DeviceService) Login(ctx context.Context, name string, verifierCandidate []byte) (*TokenPair, error) {
	repo := s.repomanager.Devices(s.db)
	device, err := repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !s.checkVerifier(device.Verifier, verifierCandidate) {
		return nil, common.ErrorUnauthorized
	}
	return s.generateTokenPair(ctx, device.ID, s.db)
}

// --- helpers below ---

func (s *DeviceService) getRandomSalt() []byte { return common.GenerateRandByteArray(32) }

func (s *DeviceService) generateAccessToken(deviceID string) (string, error) {
	return auth.GenerateToken(deviceID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *DeviceService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *DeviceService) checkVerifier(verifier []byte, candidate []byte) bool {
	return subtle.ConstantTimeCompare(verifier, candidate) == 1
}

func (s *DeviceService) generateTokenPair(ctx context.Context, deviceID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(deviceID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, deviceID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
