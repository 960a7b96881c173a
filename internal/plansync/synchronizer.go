package plansync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ecoeats/mealplanner/pkg/logger"
	"github.com/ecoeats/mealplanner/pkg/metrics"
	"github.com/ecoeats/mealplanner/pkg/types"
	"github.com/google/uuid"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("plan synchronizer closed")

// Writer persists a full plan document, keyed by its user and week start.
type Writer interface {
	SavePlan(ctx context.Context, plan *types.WeekPlan) error
}

// Journal keeps documents whose write failed so they can be replayed later.
type Journal interface {
	Record(ctx context.Context, plan *types.WeekPlan, cause error) error
	Clear(ctx context.Context, userID, weekStart string) error
}

// Result reports the outcome of one write.
type Result struct {
	CommandID uuid.UUID
	WeekKey   string
	Revision  int64
	Err       error
}

// Command is one queued full-document write.
type Command struct {
	WeekKey  string
	Revision int64
	Document *types.WeekPlan
	OnDone   func(ctx context.Context, res Result)

	id  uuid.UUID
	ctx context.Context
}

// Params configure a Synchronizer.
type Params struct {
	Writer  Writer
	Journal Journal
	Metrics *metrics.PlanSyncMetrics
	Logger  *logger.Logger
}

// Synchronizer applies plan writes one at a time, in the order they were
// enqueued, on a single worker goroutine. Callers never wait on the network.
// Failed writes are not retried.
type Synchronizer struct {
	writer  Writer
	journal Journal
	metrics *metrics.PlanSyncMetrics
	logg    *logger.Logger

	mu       sync.Mutex
	pending  []*Command
	inFlight bool
	closed   bool
	idle     chan struct{}

	wake    chan struct{}
	stopped chan struct{}
}

// New starts the worker.
func New(params Params) (*Synchronizer, error) {
	if params.Writer == nil {
		return nil, errors.New("plan writer required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Synchronizer{
		writer:  params.Writer,
		journal: params.Journal,
		metrics: params.Metrics,
		logg:    logg,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Enqueue schedules cmd and returns its id. The context is kept for logging
// fields only; cancelling it does not cancel the write.
func (s *Synchronizer) Enqueue(ctx context.Context, cmd Command) (uuid.UUID, error) {
	if cmd.Document == nil {
		return uuid.Nil, errors.New("plan document required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.id = uuid.New()
	cmd.ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return uuid.Nil, ErrClosed
	}
	s.pending = append(s.pending, &cmd)
	s.mu.Unlock()

	s.signal()
	return cmd.id, nil
}

// Pending returns the number of writes queued or in flight.
func (s *Synchronizer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pending)
	if s.inFlight {
		n++
	}
	return n
}

// Flush blocks until every write enqueued so far has completed or ctx ends.
func (s *Synchronizer) Flush(ctx context.Context) error {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 && !s.inFlight {
			s.mu.Unlock()
			return nil
		}
		if s.idle == nil {
			s.idle = make(chan struct{})
		}
		idle := s.idle
		s.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting writes, lets the worker finish what is queued and
// waits for it to exit.
func (s *Synchronizer) Close() error {
	s.mu.Lock()
	already := s.closed
	s.closed = true
	s.mu.Unlock()
	if !already {
		s.signal()
	}
	<-s.stopped
	return nil
}

func (s *Synchronizer) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Synchronizer) run() {
	defer close(s.stopped)
	for {
		s.mu.Lock()
		for len(s.pending) == 0 {
			if s.idle != nil {
				close(s.idle)
				s.idle = nil
			}
			if s.closed {
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			<-s.wake
			s.mu.Lock()
		}
		cmd := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.inFlight = true
		s.mu.Unlock()

		s.apply(cmd)

		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}
}

func (s *Synchronizer) apply(cmd *Command) {
	ctx := s.logg.WithFields(cmd.ctx, map[string]any{
		"command_id": cmd.id.String(),
		"week_start": cmd.WeekKey,
		"revision":   cmd.Revision,
	})

	start := time.Now()
	err := s.writer.SavePlan(ctx, cmd.Document)
	s.metrics.ObserveDuration(metrics.OpSavePlan, time.Since(start))

	if err != nil {
		s.metrics.IncFailure(metrics.OpSavePlan)
		s.logg.Error(ctx, "plan write failed", err)
		if s.journal != nil {
			if jerr := s.journal.Record(ctx, cmd.Document, err); jerr != nil {
				s.logg.Error(ctx, "failed to journal plan write", jerr)
			}
		}
	} else {
		s.metrics.IncSuccess(metrics.OpSavePlan)
		s.logg.Debug(ctx, "plan write accepted")
		if s.journal != nil {
			if jerr := s.journal.Clear(ctx, cmd.Document.UserID, cmd.Document.WeekStart); jerr != nil {
				s.logg.Warn(ctx, "failed to clear journaled plan write")
			}
		}
	}

	if cmd.OnDone != nil {
		cmd.OnDone(ctx, Result{
			CommandID: cmd.id,
			WeekKey:   cmd.WeekKey,
			Revision:  cmd.Revision,
			Err:       err,
		})
	}
}
