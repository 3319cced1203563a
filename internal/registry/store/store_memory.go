package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"studioreg/internal/registry/models"
	dErrors "studioreg/pkg/domain-errors"
)

// defaultExecuteTimeout bounds how long a caller waits for the registry lock.
const defaultExecuteTimeout = 5 * time.Second

// InMemory owns one Registry for the process lifetime and serializes access to it.
// Mutations run under the write lock so that the admin check and the write of
// every operation are indivisible; queries share the read lock. Writers first
// take the one-slot gate, so waiting behind another mutation is bounded by ctx.
type InMemory struct {
	mu       sync.RWMutex
	gate     chan struct{}
	registry *models.Registry
	timeout  time.Duration
}

// Option configures an InMemory store.
type Option func(*InMemory)

// WithTimeout overrides the default lock wait applied when ctx has no deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *InMemory) {
		s.timeout = d
	}
}

// NewInMemory creates a store holding a fresh registry owned by admin.
func NewInMemory(admin models.Principal, opts ...Option) *InMemory {
	s := &InMemory{
		gate:     make(chan struct{}, 1),
		registry: models.NewRegistry(admin, time.Now()),
		timeout:  defaultExecuteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs fn with exclusive access to the registry. fn's error is returned
// unchanged. If ctx ends while waiting for another mutation, fn never runs.
func (s *InMemory) Execute(ctx context.Context, fn func(r *models.Registry) error) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return aborted("update", err)
	}
	select {
	case s.gate <- struct{}{}:
	case <-ctx.Done():
		return aborted("update", ctx.Err())
	}
	defer func() { <-s.gate }()

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.registry)
}

// View runs fn with shared access to the registry. fn must not mutate it.
func (s *InMemory) View(ctx context.Context, fn func(r *models.Registry)) error {
	if err := ctx.Err(); err != nil {
		return aborted("read", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.registry)
	return nil
}

func aborted(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "registry "+op+" timed out waiting for the lock")
	}
	return dErrors.Wrap(err, dErrors.CodeTimeout, "registry "+op+" aborted: context cancelled")
}

func (s *InMemory) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline || s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
