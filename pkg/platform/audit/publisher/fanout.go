package publisher

import (
	"context"
	"errors"
	"time"

	audit "studioreg/pkg/platform/audit"
)

// Fanout emits every event to each publisher in order. All publishers are
// attempted; their errors are joined. The event is normalized once so every
// sink sees the same ID and timestamp.
type Fanout []audit.Publisher

func (f Fanout) Emit(ctx context.Context, event audit.Event) error {
	event = event.Normalize(time.Now())
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
