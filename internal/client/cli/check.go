package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/cenkeeper/internal/netx"
)

var downloadAttachment = netx.DownloadFromS3PresignedURL

// Check runs one exposure reconciliation pass. The disclosure-feed
// checkpoint is loaded from local metadata before the run and persisted
// afterwards, so failed runs are retried from the same position.
func (a *App) Check(ctx context.Context) error {
	checkpoint, err := a.repos.Metadata.Checkpoint(ctx)
	if err != nil {
		printlnFn("Check failed:", err.Error())
		return err
	}

	outcome, err := a.exposureService.Check(ctx, checkpoint)
	if err != nil {
		printlnFn("Check failed:", err.Error())
		return err
	}

	if err := a.repos.Metadata.SetCheckpoint(ctx, outcome.Checkpoint); err != nil {
		printlnFn("Saving checkpoint failed:", err.Error())
		return err
	}

	if len(outcome.Reports) == 0 {
		printlnFn("No exposure found.")
		return nil
	}

	printlnFn(fmt.Sprintf("Exposure: %d report(s) received", len(outcome.Reports)))
	for _, r := range outcome.Reports {
		printlnFn(fmt.Sprintf("  key=%s authored=%s symptoms=%s",
			hex.EncodeToString(r.KeyValue),
			r.Report.AuthoredAt.Format("2006-01-02 15:04"),
			strings.Join(r.Report.Symptoms, ", ")))
		if r.AttachmentURL != "" {
			path, err := a.saveAttachment(r.Report.ID, r.AttachmentURL)
			if err != nil {
				// The report itself was already delivered; a lost
				// attachment does not fail the check.
				printlnFn("  attachment download failed:", err.Error())
				continue
			}
			printlnFn("  attachment saved to", path)
		}
	}
	return nil
}

// saveAttachment fetches the attachment behind the presigned URL and stores
// it under the data directory, named after the report.
func (a *App) saveAttachment(reportID, url string) (string, error) {
	data, err := downloadAttachment(url)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(a.dataDir, "attachments")
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", err
	}

	path := filepath.Join(dir, reportID)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
