package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cenkeeper/internal/client/api"
	"github.com/dmitrijs2005/cenkeeper/internal/client/models"
	"github.com/dmitrijs2005/cenkeeper/internal/client/repositories/ownkeys"
	"github.com/dmitrijs2005/cenkeeper/internal/client/sendstate"
	"github.com/dmitrijs2005/cenkeeper/internal/logging"
)

// queueCapacity bounds pending submissions; Submit blocks once it is full.
const queueCapacity = 16

// ReportService is the outbound submission pipeline. Triggers are queued and
// processed strictly in arrival order by a single consumer goroutine, so two
// submissions are never interleaved and none is dropped. Lifecycle states
// are published to subscribers; the trigger itself never fails.
type ReportService struct {
	client   api.Client
	ownKeys  ownkeys.Repository
	keyCount int
	logger   logging.Logger
	states   *sendstate.Broadcaster
	queue    chan models.SymptomReport
}

func NewReportService(client api.Client, repo ownkeys.Repository,
	keyCount int, logger logging.Logger) *ReportService {
	l := logger.With("module", "report")
	return &ReportService{
		client:   client,
		ownKeys:  repo,
		keyCount: keyCount,
		logger:   l,
		states:   sendstate.NewBroadcaster(l),
		queue:    make(chan models.SymptomReport, queueCapacity),
	}
}

// States exposes the lifecycle broadcaster for UI observers.
func (s *ReportService) States() *sendstate.Broadcaster {
	return s.states
}

// Submit enqueues a report for sending. It never returns an error; the
// outcome is delivered through States.
func (s *ReportService) Submit(report models.SymptomReport) {
	s.queue <- report
}

// Run consumes the submission queue until the context is cancelled. It must
// be started on a background goroutine before the first Submit.
func (s *ReportService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case report := <-s.queue:
			s.process(ctx, report)
		}
	}
}

func (s *ReportService) process(ctx context.Context, report models.SymptomReport) {
	s.states.Publish(sendstate.State{Kind: sendstate.InProgress})

	keys, err := s.ownKeys.MostRecent(ctx, s.keyCount)
	if err != nil {
		s.logger.Error(ctx, "reading own key history failed", "error", err.Error())
		s.states.Publish(sendstate.State{Kind: sendstate.Failed, Err: err})
		s.states.Publish(sendstate.State{Kind: sendstate.Idle})
		return
	}

	// An empty key history means the report cannot be bound to any identifier
	// the device ever broadcast. Nothing is sent; the failure is surfaced
	// instead of pretending the report went out.
	if len(keys) == 0 {
		s.logger.Error(ctx, "no own keys recorded, report not sent", "report_id", report.ID)
		s.states.Publish(sendstate.State{Kind: sendstate.Failed, Err: ErrNoOwnKeys})
		s.states.Publish(sendstate.State{Kind: sendstate.Idle})
		return
	}

	if err := s.client.SubmitReport(ctx, report, keys); err != nil {
		s.logger.Error(ctx, "report submission failed", "report_id", report.ID, "error", err.Error())
		s.states.Publish(sendstate.State{
			Kind: sendstate.Failed,
			Err:  fmt.Errorf("%w: %v", ErrSubmissionFailed, err),
		})
		s.states.Publish(sendstate.State{Kind: sendstate.Idle})
		return
	}

	s.logger.Info(ctx, "report submitted", "report_id", report.ID, "keys", len(keys))
	s.states.Publish(sendstate.State{Kind: sendstate.Succeeded})
	s.states.Publish(sendstate.State{Kind: sendstate.Idle})
}
