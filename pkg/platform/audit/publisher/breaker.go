package publisher

import (
	"context"
	"fmt"
	"sync"
	"time"

	audit "studioreg/pkg/platform/audit"
	"studioreg/pkg/platform/sentinel"
)

// ErrCircuitOpen is returned by Guarded while its sink is considered down.
var ErrCircuitOpen = fmt.Errorf("audit sink circuit open: %w", sentinel.ErrUnavailable)

const (
	defaultFailureThreshold = 5
	defaultCooldown         = time.Minute
)

// CircuitBreaker stops calls to a failing sink. After threshold consecutive
// failures it opens for cooldown, then lets calls through again.
type CircuitBreaker struct {
	mu sync.Mutex

	threshold int
	cooldown  time.Duration
	now       func() time.Time

	failures  int
	openUntil time.Time
}

// NewCircuitBreaker creates a breaker. Non-positive arguments use defaults.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = defaultFailureThreshold
	}
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allow reports whether a call may proceed. Once the cooldown has passed the
// breaker half-opens: failures reset and the next failure streak starts over.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.openUntil.IsZero() {
		return true
	}
	if cb.now().Before(cb.openUntil) {
		return false
	}
	cb.openUntil = time.Time{}
	cb.failures = 0
	return true
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.openUntil = time.Time{}
}

// RecordFailure counts a failure and reports whether it opened the circuit.
func (cb *CircuitBreaker) RecordFailure() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	if cb.failures >= cb.threshold && cb.openUntil.IsZero() {
		cb.openUntil = cb.now().Add(cb.cooldown)
		return true
	}
	return false
}

func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return !cb.openUntil.IsZero() && cb.now().Before(cb.openUntil)
}

// Guarded wraps an external sink with a circuit breaker so an unreachable
// broker does not cost every registry request a produce timeout.
type Guarded struct {
	next    audit.Publisher
	breaker *CircuitBreaker
	onOpen  func()
}

// NewGuarded wraps next. onOpen, if non-nil, runs each time the circuit opens.
func NewGuarded(next audit.Publisher, breaker *CircuitBreaker, onOpen func()) *Guarded {
	return &Guarded{next: next, breaker: breaker, onOpen: onOpen}
}

func (g *Guarded) Emit(ctx context.Context, event audit.Event) error {
	if !g.breaker.Allow() {
		return ErrCircuitOpen
	}
	if err := g.next.Emit(ctx, event); err != nil {
		if g.breaker.RecordFailure() && g.onOpen != nil {
			g.onOpen()
		}
		return err
	}
	g.breaker.RecordSuccess()
	return nil
}
