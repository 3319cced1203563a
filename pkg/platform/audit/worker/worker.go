package worker

import (
	"context"
	"log/slog"
	"time"

	audit "studioreg/pkg/platform/audit"
)

const defaultAppendTimeout = 5 * time.Second

// Worker consumes audit events from a channel and persists them until the
// channel is closed. A failed append is logged and the worker moves on so one
// bad write cannot stall the queue.
type Worker struct {
	store   audit.Store
	inbox   <-chan audit.Event
	logger  *slog.Logger
	onError func()
}

// Option configures a Worker.
type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithErrorHook registers a callback invoked on every failed append.
func WithErrorHook(fn func()) Option {
	return func(w *Worker) {
		w.onError = fn
	}
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, opts ...Option) *Worker {
	w := &Worker{store: store, inbox: inbox}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drains the inbox. It returns nil once the inbox is closed and empty, or
// ctx.Err() if ctx is cancelled first.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.persist(ctx, event)
		}
	}
}

func (w *Worker) persist(ctx context.Context, event audit.Event) {
	appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultAppendTimeout)
	defer cancel()
	if err := w.store.Append(appendCtx, event); err != nil {
		if w.onError != nil {
			w.onError()
		}
		if w.logger != nil {
			w.logger.ErrorContext(ctx, "failed to persist audit event",
				"action", event.Action,
				"event_id", event.ID,
				"error", err,
			)
		}
	}
}
