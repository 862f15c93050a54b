package cli

import (
	"context"
	"os"

	"github.com/dmitrijs2005/cenkeeper/internal/common"
)

// getSimpleText and getSecret are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getSecret = GetSecret

// Register prompts for a device name and secret and creates the device
// record on the server. Only the salt and an Argon2-derived verifier leave
// the device; the secret itself is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter device name", os.Stdout)
	if err != nil {
		return err
	}

	secret, err := getSecret(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	if err := a.authService.Register(ctx, name, secret); err != nil {
		printlnFn("Registration failed:", err.Error())
		return err
	}

	printlnFn("Success!")
	return nil
}

// Login prompts for credentials and authenticates against the server. On
// success the device name is remembered for the session, the connectivity
// mode flips to online, and the rolling key is rotated if due.
func (a *App) Login(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter device name", os.Stdout)
	if err != nil {
		return err
	}

	secret, err := getSecret(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	if err := a.authService.Login(ctx, name, secret); err != nil {
		printlnFn("Login failed:", err.Error())
		return err
	}

	a.deviceName = name
	a.setMode(ModeOnline)

	if err := a.keyService.EnsureFresh(ctx); err != nil {
		a.logger.Error(ctx, "rolling key rotation failed", "error", err.Error())
	}

	printlnFn("Logged in as", name)
	return nil
}

// Logout forgets the session identity. Local observations and keys stay on
// the device.
func (a *App) Logout(ctx context.Context) error {
	a.deviceName = ""
	return nil
}
