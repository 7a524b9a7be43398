package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
	"github.com/RaythaHQ/ticket-system-sub001/internal/events"
	"github.com/RaythaHQ/ticket-system-sub001/internal/observability"
	"github.com/RaythaHQ/ticket-system-sub001/internal/repository"
	"github.com/RaythaHQ/ticket-system-sub001/internal/sla"
)

// SweepLock guards a sweep against concurrent runs from other service
// instances. persistence.ScanLock implements it; tests use fakes.
type SweepLock interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// BreachScanner periodically walks tickets with an open compliance state and
// drives them through the state machine. One sweep at a time: an in-process
// flag skips overlapping timer fires, and the optional cross-instance lock
// keeps multiple deployments from sweeping concurrently.
type BreachScanner struct {
	tickets    repository.TicketRepository
	machine    *sla.ComplianceStateMachine
	lock       SweepLock
	dispatcher events.Dispatcher
	metrics    *observability.ScanMetrics
	logger     *zap.Logger

	interval  time.Duration
	batchSize int

	inFlight atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// BreachScannerDeps bundles scanner collaborators.
type BreachScannerDeps struct {
	TicketRepo repository.TicketRepository
	Machine    *sla.ComplianceStateMachine
	Lock       SweepLock
	Dispatcher events.Dispatcher
	Metrics    *observability.ScanMetrics
	Logger     *zap.Logger
	Interval   time.Duration
	BatchSize  int
}

// NewBreachScanner constructs the scanner.
func NewBreachScanner(deps BreachScannerDeps) *BreachScanner {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := deps.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	batchSize := deps.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}
	return &BreachScanner{
		tickets:    deps.TicketRepo,
		machine:    deps.Machine,
		lock:       deps.Lock,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		interval:   interval,
		batchSize:  batchSize,
	}
}

// Start launches the periodic sweep loop.
func (s *BreachScanner) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)
	s.logger.Info("breach scanner started", zap.Duration("interval", s.interval))
}

// Stop cancels the loop and waits for an in-flight sweep to finish, so no
// partially emitted events are left behind.
func (s *BreachScanner) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("breach scanner stopped")
}

func (s *BreachScanner) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.inFlight.CompareAndSwap(false, true) {
				s.metrics.RecordSkippedSweep()
				s.logger.Debug("previous sweep still running, skipping")
				continue
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer s.inFlight.Store(false)
				if _, err := s.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
					s.logger.Error("sweep failed", zap.Error(err))
				}
			}()
		}
	}
}

// Sweep runs one pass over all open-SLA tickets in keyset batches. A single
// ticket's failure is logged and does not stop the rest of the sweep.
// Returns the number of tickets examined.
func (s *BreachScanner) Sweep(ctx context.Context) (int, error) {
	if s.lock != nil {
		acquired, err := s.lock.TryAcquire(ctx)
		if err != nil {
			return 0, err
		}
		if !acquired {
			s.metrics.RecordSkippedSweep()
			return 0, nil
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release sweep lock", zap.Error(err))
			}
		}()
	}

	scanned := 0
	afterID := ""
	for {
		if err := ctx.Err(); err != nil {
			return scanned, err
		}
		batch, err := s.tickets.ListOpenSlaBatch(ctx, afterID, s.batchSize)
		if err != nil {
			return scanned, err
		}
		if len(batch) == 0 {
			break
		}
		for i := range batch {
			s.scanOne(ctx, &batch[i])
			scanned++
		}
		afterID = batch[len(batch)-1].ID
		if len(batch) < s.batchSize {
			break
		}
	}
	s.metrics.RecordSweep(scanned)
	return scanned, nil
}

// scanOne advances one ticket and persists before emitting, so a failed
// write never produces a notification and a later sweep retries cleanly. A
// lost version race means an edit just landed; the next sweep re-reads.
func (s *BreachScanner) scanOne(ctx context.Context, ticket *domain.Ticket) {
	transitions := s.machine.Advance(ticket)
	if len(transitions) == 0 {
		return
	}

	if err := s.tickets.UpdateSla(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			s.logger.Debug("ticket changed mid-sweep, deferring",
				zap.String("ticket_id", ticket.ID))
			return
		}
		s.metrics.RecordItemFailure()
		s.logger.Warn("failed to persist compliance transition",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}

	for _, transition := range transitions {
		s.metrics.RecordTransition(string(transition.To))
		s.emit(ctx, ticket, transition)
	}
}

func (s *BreachScanner) emit(ctx context.Context, ticket *domain.Ticket, transition sla.Transition) {
	if s.dispatcher == nil {
		return
	}
	var eventType events.EventType
	switch transition.To {
	case domain.SlaStatusApproachingBreach:
		eventType = events.EventSlaApproaching
	case domain.SlaStatusBreached:
		eventType = events.EventSlaBreached
	default:
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		Actor:     events.Actor{Type: domain.ActorTypeSystem},
		Timestamp: transition.At,
		Payload: events.SlaCompliancePayload{
			RuleID:    ticket.SlaRuleID,
			DueAt:     *ticket.SlaDueAt,
			OldStatus: transition.From,
			NewStatus: transition.To,
		},
	})
}
