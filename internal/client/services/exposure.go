// Package services contains the device-side business logic: the exposure
// check workflow, the report submission pipeline, own-key rotation, and
// device authentication.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/cen"
	"github.com/dmitrijs2005/cenkeeper/internal/client/api"
	"github.com/dmitrijs2005/cenkeeper/internal/client/models"
	"github.com/dmitrijs2005/cenkeeper/internal/client/repositories/observations"
	"github.com/dmitrijs2005/cenkeeper/internal/logging"
)

// Test seams.
var (
	nowFn    = time.Now
	hasMatch = cen.HasMatch
)

// ExposureService reconciles locally observed identifiers against newly
// disclosed keys and retrieves the reports behind any matches.
type ExposureService struct {
	client       api.Client
	observations observations.Repository
	lookback     time.Duration
	logger       logging.Logger
}

func NewExposureService(client api.Client, repo observations.Repository,
	lookback time.Duration, logger logging.Logger) *ExposureService {
	return &ExposureService{
		client:       client,
		observations: repo,
		lookback:     lookback,
		logger:       logger.With("module", "exposure"),
	}
}

// CheckOutcome is the result of one reconciliation run. Checkpoint is the
// feed position to resume from; callers persist it only on success.
type CheckOutcome struct {
	Reports    []models.ReceivedReport
	Checkpoint uint64
}

// Check runs one reconciliation pass starting after the given checkpoint:
// fetch disclosed keys, deduplicate, match against the observation
// catalogue, and fetch the report for every matched key.
//
// Report fetches run concurrently and tolerate partial failure: any
// successfully fetched subset is returned and failures are only logged.
// Only when keys matched and every fetch failed does Check return
// ErrNoReportsFetched — then the checkpoint must not be advanced so the
// next run retries. Zero matches is the normal no-exposure outcome and
// returns an empty report list.
func (s *ExposureService) Check(ctx context.Context, checkpoint uint64) (*CheckOutcome, error) {
	fetched, next, err := s.client.FetchKeysSince(ctx, checkpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchKeysFailed, err)
	}

	stamp := nowFn()

	// The same disclosure may be delivered more than once; each key value is
	// evaluated against the matcher at most once.
	seen := make(map[string]struct{}, len(fetched))
	keys := make([]models.DisclosedKey, 0, len(fetched))
	for _, k := range fetched {
		if len(k.Value) != cen.SecretLength {
			s.logger.Warn(ctx, "skipping disclosed key of wrong length", "len", len(k.Value), "seq", k.Seq)
			continue
		}
		if _, dup := seen[string(k.Value)]; dup {
			continue
		}
		seen[string(k.Value)] = struct{}{}
		k.StampedAt = stamp
		keys = append(keys, k)
	}

	if len(keys) == 0 {
		return &CheckOutcome{Checkpoint: next}, nil
	}

	catalogue, err := s.observations.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading observation catalogue: %w", err)
	}
	obs := make([]cen.Observation, 0, len(catalogue))
	for _, o := range catalogue {
		obs = append(obs, cen.Observation{Identifier: o.Value, SeenAt: o.SeenAt})
	}

	var matched []models.DisclosedKey
	for _, k := range keys {
		if hasMatch(k.Key(s.lookback), stamp, obs) {
			matched = append(matched, k)
		}
	}

	if len(matched) == 0 {
		return &CheckOutcome{Checkpoint: next}, nil
	}

	s.logger.Info(ctx, "disclosed keys matched local observations", "count", len(matched))

	reports, failures := s.fetchReports(ctx, matched)

	if len(reports) == 0 && failures > 0 {
		return nil, ErrNoReportsFetched
	}
	return &CheckOutcome{Reports: reports, Checkpoint: next}, nil
}

// fetchReports retrieves the report for each matched key concurrently and
// collects every outcome before returning.
func (s *ExposureService) fetchReports(ctx context.Context, matched []models.DisclosedKey) ([]models.ReceivedReport, int) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		reports  []models.ReceivedReport
		failures int
	)

	for _, k := range matched {
		wg.Add(1)
		go func(k models.DisclosedKey) {
			defer wg.Done()

			report, err := s.client.FetchReport(ctx, k.Value)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				s.logger.Error(ctx, "report fetch failed", "seq", k.Seq, "error", err.Error())
				return
			}
			reports = append(reports, *report)
		}(k)
	}

	wg.Wait()
	return reports, failures
}
