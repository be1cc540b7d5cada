package analytics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// ErrClosed is returned by Close when called more than once.
var ErrClosed = errors.New("dispatcher closed")

type batch struct {
	ctx     context.Context
	events  []domain.Event
	records []domain.AnswerRecord
}

// Dispatcher is an asynchronous, at-least-once delivery queue for sinks.
type Dispatcher struct {
	logger    *slog.Logger
	events    []ports.AnalyticsSink
	answers   []ports.AnswerSink
	queueSize int
	attempts  int
	backoff   time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan batch
	done   chan struct{}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used to report dropped or failed deliveries.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithAnalyticsSinks adds event sinks.
func WithAnalyticsSinks(sinks ...ports.AnalyticsSink) Option {
	return func(d *Dispatcher) {
		d.events = append(d.events, sinks...)
	}
}

// WithAnswerSinks adds answer sinks.
func WithAnswerSinks(sinks ...ports.AnswerSink) Option {
	return func(d *Dispatcher) {
		d.answers = append(d.answers, sinks...)
	}
}

// WithQueueSize bounds the number of pending batches. Batches beyond it are dropped.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// WithRetry sets how many times a delivery is attempted and the initial backoff,
// doubled after each failure.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(d *Dispatcher) {
		if attempts > 0 {
			d.attempts = attempts
		}
		d.backoff = backoff
	}
}

// New creates a dispatcher and starts its worker.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		queueSize: 1024,
		attempts:  3,
		backoff:   50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = make(chan batch, d.queueSize)
	d.done = make(chan struct{})
	go d.run()
	return d
}

// Emit enqueues a batch without blocking. The caller's context values are kept
// but its cancellation is not, so delivery outlives the request that produced it.
func (d *Dispatcher) Emit(ctx context.Context, events []domain.Event, records []domain.AnswerRecord) {
	if len(events) == 0 && len(records) == 0 {
		return
	}
	if len(d.events) == 0 && len(d.answers) == 0 {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("analytics dispatcher closed, dropping batch", "events", len(events), "records", len(records))
		return
	}

	select {
	case d.queue <- batch{ctx: context.WithoutCancel(ctx), events: events, records: records}:
	default:
		d.logger.Warn("analytics queue full, dropping batch", "events", len(events), "records", len(records))
	}
}

// Close stops accepting batches and waits for pending ones to be delivered,
// or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("analytics drain interrupted: %w", ctx.Err())
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for b := range d.queue {
		if err := d.deliver(b); err != nil {
			d.logger.Error("analytics delivery failed", "err", err)
		}
	}
}

// deliver fans a batch out to every sink concurrently. Events keep their order per sink.
func (d *Dispatcher) deliver(b batch) error {
	var g errgroup.Group

	if len(b.events) > 0 {
		for _, sink := range d.events {
			g.Go(func() error {
				for _, ev := range b.events {
					err := d.retry(b.ctx, func(ctx context.Context) error {
						return sink.Publish(ctx, ev)
					})
					if err != nil {
						return fmt.Errorf("publish %s event %s: %w", ev.Type, ev.ID, err)
					}
				}
				return nil
			})
		}
	}

	if len(b.records) > 0 {
		for _, sink := range d.answers {
			g.Go(func() error {
				return d.retry(b.ctx, func(ctx context.Context) error {
					return sink.Record(ctx, b.records)
				})
			})
		}
	}

	return g.Wait()
}

func (d *Dispatcher) retry(ctx context.Context, fn func(context.Context) error) error {
	wait := d.backoff
	var err error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == d.attempts {
			break
		}
		d.logger.Debug("analytics delivery retry", "attempt", attempt, "err", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		wait *= 2
	}
	return err
}
