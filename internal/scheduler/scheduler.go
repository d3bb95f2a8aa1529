// Package scheduler triggers the recurrence check once on boot and then at
// every local midnight.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chdeimos/moneyo/internal/ledger"
)

type Checker interface {
	Check(ctx context.Context) (ledger.Result, error)
}

type Scheduler struct {
	checker Checker
	logger  *slog.Logger
	loc     *time.Location
	now     func() time.Time
	after   func(time.Duration) <-chan time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(checker Checker, loc *time.Location, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		checker: checker,
		logger:  logger,
		loc:     loc,
		now:     time.Now,
		after:   time.After,
	}
}

// NextRun returns the first midnight in loc strictly after now.
func NextRun(now time.Time, loc *time.Location) time.Time {
	now = now.In(loc)
	y, m, d := now.Date()

	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// Start runs a check immediately and then daily until Stop or ctx ends.
// Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)

	go s.run(ctx)

	s.logger.Info("recurrence scheduler started", "timezone", s.loc.String())
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.cancel = nil

	s.logger.Info("recurrence scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	s.check(ctx, "boot")

	for {
		next := NextRun(s.now(), s.loc)

		select {
		case <-ctx.Done():
			return
		case <-s.after(next.Sub(s.now())):
			s.check(ctx, "midnight")
		}
	}
}

func (s *Scheduler) check(ctx context.Context, trigger string) {
	res, err := s.checker.Check(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "recurrence check failed", "trigger", trigger, "error", err)
		return
	}

	s.logger.InfoContext(ctx, "recurrence check complete",
		"trigger", trigger,
		"created", res.Created,
		"failed", res.Failed)
}
