package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "studioreg/pkg/platform/audit"
	"studioreg/pkg/platform/audit/store/memory"
)

type failingStore struct {
	calls atomic.Int32
}

func (s *failingStore) Append(context.Context, audit.Event) error {
	s.calls.Add(1)
	return errors.New("boom")
}

func (s *failingStore) ListRecent(context.Context, int) ([]audit.Event, error) {
	return nil, nil
}

func TestRunDrainsUntilClosed(t *testing.T) {
	store := memory.NewInMemoryStore()
	inbox := make(chan audit.Event, 3)
	inbox <- audit.Event{Subject: "S1"}
	inbox <- audit.Event{Subject: "S2"}
	close(inbox)

	err := NewWorker(store, inbox).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	inbox := make(chan audit.Event)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewWorker(memory.NewInMemoryStore(), inbox).Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestRunContinuesAfterAppendFailure(t *testing.T) {
	store := &failingStore{}
	inbox := make(chan audit.Event, 2)
	inbox <- audit.Event{Subject: "S1"}
	inbox <- audit.Event{Subject: "S2"}
	close(inbox)

	var failures atomic.Int32
	err := NewWorker(store, inbox, WithErrorHook(func() { failures.Add(1) })).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.calls.Load())
	assert.Equal(t, int32(2), failures.Load())
}
