package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/client/models"
)

// fakeClient is a programmable api.Client for service tests.
type fakeClient struct {
	mu sync.Mutex

	keys         []models.DisclosedKey
	nextCheckp   uint64
	fetchKeysErr error

	reports   map[string]*models.ReceivedReport
	reportErr map[string]error

	submitErr     error
	submitGate    chan struct{} // when non-nil, SubmitReport blocks until a value arrives
	submittedIDs  []string
	submittedKeys [][]models.OwnKey
}

func (f *fakeClient) Close() error                                           { return nil }
func (f *fakeClient) Ping(ctx context.Context) error                         { return nil }
func (f *fakeClient) Register(ctx context.Context, n string, s, v []byte) error { return nil }
func (f *fakeClient) GetSalt(ctx context.Context, n string) ([]byte, error)  { return []byte("salt"), nil }
func (f *fakeClient) Login(ctx context.Context, n string, v []byte) error    { return nil }

func (f *fakeClient) FetchKeysSince(ctx context.Context, checkpoint uint64) ([]models.DisclosedKey, uint64, error) {
	if f.fetchKeysErr != nil {
		return nil, 0, f.fetchKeysErr
	}
	return f.keys, f.nextCheckp, nil
}

func (f *fakeClient) FetchReport(ctx context.Context, keyValue []byte) (*models.ReceivedReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.reportErr[string(keyValue)]; ok {
		return nil, err
	}
	if r, ok := f.reports[string(keyValue)]; ok {
		return r, nil
	}
	return &models.ReceivedReport{KeyValue: keyValue}, nil
}

func (f *fakeClient) SubmitReport(ctx context.Context, report models.SymptomReport, keys []models.OwnKey) error {
	if f.submitGate != nil {
		<-f.submitGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submittedIDs = append(f.submittedIDs, report.ID)
	f.submittedKeys = append(f.submittedKeys, keys)
	return f.submitErr
}

func (f *fakeClient) submitted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.submittedIDs...)
}

// fakeObservations is a read-only observation store.
type fakeObservations struct {
	all    []models.ObservedCEN
	allErr error
}

func (f *fakeObservations) Insert(ctx context.Context, o *models.ObservedCEN) (bool, error) {
	f.all = append(f.all, *o)
	return true, nil
}

func (f *fakeObservations) GetAll(ctx context.Context) ([]models.ObservedCEN, error) {
	return f.all, f.allErr
}

func (f *fakeObservations) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// fakeOwnKeys is an own-key store with optional errors.
type fakeOwnKeys struct {
	mu       sync.Mutex
	keys     []models.OwnKey // most recent first
	readErr  error
	writeErr error
}

func (f *fakeOwnKeys) MostRecent(ctx context.Context, n int) ([]models.OwnKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	if len(f.keys) <= n {
		return append([]models.OwnKey(nil), f.keys...), nil
	}
	return append([]models.OwnKey(nil), f.keys[:n]...), nil
}

func (f *fakeOwnKeys) Append(ctx context.Context, key *models.OwnKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.keys = append([]models.OwnKey{*key}, f.keys...)
	return nil
}
