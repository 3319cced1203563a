package publisher

import (
	"context"
	"math/rand/v2"

	audit "studioreg/pkg/platform/audit"
)

// Sampled forwards compliance and security events unconditionally and keeps
// only a fraction of operations-category events.
type Sampled struct {
	next   audit.Publisher
	rate   float64
	roll   func() float64
	onDrop func()
}

// NewSampled wraps next. rate is clamped to [0, 1]; onDrop may be nil.
func NewSampled(next audit.Publisher, rate float64, onDrop func()) *Sampled {
	return &Sampled{
		next:   next,
		rate:   min(max(rate, 0), 1),
		roll:   rand.Float64,
		onDrop: onDrop,
	}
}

func (s *Sampled) Emit(ctx context.Context, event audit.Event) error {
	if s.keep(event) {
		return s.next.Emit(ctx, event)
	}
	if s.onDrop != nil {
		s.onDrop()
	}
	return nil
}

func (s *Sampled) keep(event audit.Event) bool {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	if category != audit.CategoryOperations || s.rate >= 1 {
		return true
	}
	return s.roll() < s.rate //nolint:gosec // sampling doesn't need crypto rand
}
