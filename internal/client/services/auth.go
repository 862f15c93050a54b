package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cenkeeper/internal/client/api"
	"github.com/dmitrijs2005/cenkeeper/internal/common"
	"github.com/dmitrijs2005/cenkeeper/internal/cryptox"
)

// AuthService handles device registration and login. The device secret
// never leaves the device: the server only ever sees the salt and an
// Argon2-derived verifier.
type AuthService interface {
	Register(ctx context.Context, name string, secret []byte) error
	Login(ctx context.Context, name string, secret []byte) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client api.Client
}

// NewAuthService constructs an AuthService bound to the given API client.
func NewAuthService(client api.Client) AuthService {
	return &authService{client: client}
}

func (a *authService) Register(ctx context.Context, name string, secret []byte) error {
	salt := common.GenerateRandByteArray(16)
	authKey := cryptox.DeriveAuthKey(secret, salt)
	verifier := cryptox.MakeVerifier(authKey)

	if err := a.client.Register(ctx, name, salt, verifier); err != nil {
		return fmt.Errorf("register error: %w", err)
	}
	return nil
}

func (a *authService) Login(ctx context.Context, name string, secret []byte) error {
	salt, err := a.client.GetSalt(ctx, name)
	if err != nil {
		return fmt.Errorf("get salt error: %w", err)
	}

	authKey := cryptox.DeriveAuthKey(secret, salt)
	verifier := cryptox.MakeVerifier(authKey)

	if err := a.client.Login(ctx, name, verifier); err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	return nil
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
