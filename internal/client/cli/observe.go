package cli

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/cen"
	"github.com/dmitrijs2005/cenkeeper/internal/client/models"
)

// Observe records an identifier as if the radio layer had just seen it.
// It exists so the console can exercise the matching workflow without a
// radio; identifiers are entered hex-encoded.
func (a *App) Observe(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: observe <hex-identifier>")
		return nil
	}

	value, err := hex.DecodeString(args[0])
	if err != nil || len(value) != cen.IdentifierLength {
		printlnFn("Expected a", hex.EncodedLen(cen.IdentifierLength), "character hex identifier")
		return nil
	}

	inserted, err := a.repos.Observations.Insert(ctx, &models.ObservedCEN{
		Value:  value,
		SeenAt: time.Now(),
	})
	if err != nil {
		printlnFn("Recording observation failed:", err.Error())
		return err
	}

	if inserted {
		printlnFn("Observation recorded.")
	} else {
		printlnFn("Already recorded.")
	}
	return nil
}

// Prune drops observations older than the match lookback; keys disclosed
// from now on can never explain them.
func (a *App) Prune(ctx context.Context) error {
	cutoff := time.Now().Add(-a.config.MatchLookback)

	n, err := a.repos.Observations.PruneBefore(ctx, cutoff)
	if err != nil {
		printlnFn("Prune failed:", err.Error())
		return err
	}

	printlnFn("Pruned", n, "observation(s).")
	return nil
}
