package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxCatchUp bounds the occurrences one subscription may execute in a
// single pass.
const DefaultMaxCatchUp = 50

// Result summarizes one processor pass.
type Result struct {
	Created       int
	Subscriptions int
	Failed        int
}

// Execution describes one committed occurrence.
type Execution struct {
	SubscriptionID    uuid.UUID
	TransactionID     uuid.UUID
	Amount            string
	Type              Type
	Date              time.Time
	NextExecutionDate time.Time
	Remaining         *int
	Paused            bool
}

type ProcessorOption func(*Processor)

func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

func WithPublisher(pub Publisher) ProcessorOption {
	return func(p *Processor) { p.publisher = pub }
}

func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

func WithLocation(loc *time.Location) ProcessorOption {
	return func(p *Processor) { p.loc = loc }
}

func WithMaxCatchUp(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.maxCatchUp = n
		}
	}
}

// Processor executes due subscriptions, catching up missed occurrences.
type Processor struct {
	store      Store
	publisher  Publisher
	logger     *slog.Logger
	now        func() time.Time
	loc        *time.Location
	maxCatchUp int

	group singleflight.Group
}

func NewProcessor(store Store, opts ...ProcessorOption) *Processor {
	p := &Processor{
		store:      store,
		logger:     slog.Default(),
		now:        time.Now,
		loc:        time.Local,
		maxCatchUp: DefaultMaxCatchUp,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Check runs one pass at the current time. Concurrent callers share the pass
// already in flight, so it is not cancelled with the caller that started it.
func (p *Processor) Check(ctx context.Context) (Result, error) {
	v, err, _ := p.group.Do("check", func() (any, error) {
		return p.Run(context.WithoutCancel(ctx), p.now())
	})
	if err != nil {
		return Result{}, err
	}

	return v.(Result), nil
}

// Run executes every occurrence due by the end of now's day. A failing
// subscription is logged and skipped; only failing to list candidates is
// returned as an error.
func (p *Processor) Run(ctx context.Context, now time.Time) (Result, error) {
	cutoff := EndOfDay(now, p.loc)

	subs, err := p.store.ListDueSubscriptions(ctx, cutoff)
	if err != nil {
		return Result{}, fmt.Errorf("listing due subscriptions: %w", err)
	}

	var res Result

	if len(subs) == 0 {
		p.logger.InfoContext(ctx, "no recurring transactions due", "cutoff", cutoff)
		return res, nil
	}

	for _, s := range subs {
		res.Subscriptions++

		created, err := p.catchUp(ctx, s.ID, cutoff, now)
		res.Created += created

		if err != nil {
			res.Failed++

			p.logger.ErrorContext(ctx, "recurring subscription failed",
				"subscription_id", s.ID,
				"created", created,
				"error", err)

			continue
		}

		if created >= p.maxCatchUp {
			p.logger.WarnContext(ctx, "catch-up limit reached",
				"subscription_id", s.ID,
				"limit", p.maxCatchUp)
		}
	}

	p.logger.InfoContext(ctx, "recurring transactions processed",
		"created", res.Created,
		"subscriptions", res.Subscriptions,
		"failed", res.Failed)

	return res, nil
}

func (p *Processor) catchUp(ctx context.Context, id uuid.UUID, cutoff, now time.Time) (int, error) {
	created := 0

	for created < p.maxCatchUp {
		exec, err := p.execute(ctx, id, cutoff, now)
		if err != nil {
			return created, err
		}

		if exec == nil {
			break
		}

		created++

		p.publish(ctx, *exec)
	}

	return created, nil
}

// execute runs the next occurrence of subscription id in its own unit of
// work. It returns nil when the subscription is no longer due.
func (p *Processor) execute(ctx context.Context, id uuid.UUID, cutoff, now time.Time) (*Execution, error) {
	tx, err := p.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning unit of work: %w", err)
	}
	defer tx.Rollback()

	s, err := tx.GetSubscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting subscription: %w", err)
	}

	if !s.Due(cutoff) {
		return nil, nil
	}

	t, err := Materialize(ctx, tx, s, s.NextExecutionDate)
	if err != nil {
		return nil, fmt.Errorf("materializing occurrence %s: %w", s.NextExecutionDate.Format(time.DateOnly), err)
	}

	next := Step(*s, now)
	if err := tx.UpdateSchedule(ctx, &next); err != nil {
		return nil, fmt.Errorf("updating schedule: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing occurrence: %w", err)
	}

	return &Execution{
		SubscriptionID:    s.ID,
		TransactionID:     t.ID,
		Amount:            t.Amount.StringFixed(2),
		Type:              t.Type,
		Date:              t.Date,
		NextExecutionDate: next.NextExecutionDate,
		Remaining:         next.RecurrenceInterval,
		Paused:            next.IsPaused,
	}, nil
}

func (p *Processor) publish(ctx context.Context, e Execution) {
	if p.publisher == nil {
		return
	}

	if err := p.publisher.PublishExecution(ctx, e); err != nil {
		p.logger.WarnContext(ctx, "failed to publish execution",
			"subscription_id", e.SubscriptionID,
			"transaction_id", e.TransactionID,
			"error", err)
	}
}
