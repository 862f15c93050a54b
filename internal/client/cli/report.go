package cli

import (
	"context"
	"os"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/client/models"
	"github.com/google/uuid"
)

// getMultiline is an indirection used to facilitate testing.
var getMultiline = GetMultiline

// Report prompts for symptoms and queues the report for submission. The
// trigger returns immediately; the outcome arrives through the state
// printer started in Run.
func (a *App) Report(ctx context.Context) error {
	symptoms, err := getMultiline(a.reader, "Enter symptoms, one per line", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.keyService.EnsureFresh(ctx); err != nil {
		a.logger.Error(ctx, "rolling key rotation failed", "error", err.Error())
	}

	a.reportService.Submit(models.SymptomReport{
		ID:         uuid.NewString(),
		Symptoms:   symptoms,
		AuthoredAt: time.Now(),
	})

	printlnFn("Report queued.")
	return nil
}
