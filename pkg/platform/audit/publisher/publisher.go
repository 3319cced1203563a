// Package publisher delivers audit events to an audit.Store, either inline or
// through a bounded buffer drained by a background worker.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "studioreg/pkg/platform/audit"
	"studioreg/pkg/platform/audit/worker"
	"studioreg/pkg/platform/sentinel"
)

// ErrBufferFull is returned by Emit in async mode when the buffer has no room.
// The event is dropped.
var ErrBufferFull = errors.New("audit buffer full")

// Publisher emits events to a store. The zero buffer size means synchronous writes.
type Publisher struct {
	store      audit.Store
	logger     *slog.Logger
	metrics    *Metrics
	bufferSize int
	now        func() time.Time

	mu     sync.RWMutex
	closed bool
	inbox  chan audit.Event
	done   chan struct{}
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches to asynchronous delivery with a buffer of n events.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.bufferSize = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithClock overrides the timestamp source for events emitted without one.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
		w := worker.NewWorker(store, p.inbox,
			worker.WithLogger(p.logger),
			worker.WithErrorHook(p.incPersistFailures),
		)
		go func() {
			defer close(p.done)
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Emit records an event. Missing ID, category and timestamp are filled in.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	event = event.Normalize(p.now())

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return sentinel.ErrClosed
	}

	if p.inbox == nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.incPersistFailures()
			return err
		}
		p.incEmitted()
		return nil
	}

	select {
	case p.inbox <- event:
		p.incEmitted()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.incDropped()
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping event",
				"action", event.Action,
				"event_id", event.ID,
			)
		}
		return ErrBufferFull
	}
}

// ListRecent reads the store behind the publisher.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	return p.store.ListRecent(ctx, limit)
}

// Close stops accepting events and, in async mode, waits for the buffer to drain.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.inbox != nil {
		close(p.inbox)
	}
	p.mu.Unlock()

	if p.done != nil {
		<-p.done
	}
	return nil
}

func (p *Publisher) incEmitted() {
	if p.metrics != nil {
		p.metrics.EventsEmitted.Inc()
	}
}

func (p *Publisher) incDropped() {
	if p.metrics != nil {
		p.metrics.EventsDropped.Inc()
	}
}

func (p *Publisher) incPersistFailures() {
	if p.metrics != nil {
		p.metrics.PersistFailures.Inc()
	}
}
