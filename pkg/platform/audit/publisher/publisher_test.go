package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "studioreg/pkg/platform/audit"
	"studioreg/pkg/platform/audit/store/memory"
	"studioreg/pkg/platform/sentinel"
)

func verifiedEvent(subject string) audit.Event {
	return audit.Event{
		Subject: subject,
		ActorID: "A1",
		Action:  string(audit.EventStudioVerified),
	}
}

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), verifiedEvent("S1")))

	events, err := pub.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventStudioVerified), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), verifiedEvent("S1")))
	}

	// Close should drain all events
	require.NoError(t, pub.Close())
	assert.Equal(t, 10, store.Len(), "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	metrics := NewMetrics(prometheus.NewRegistry())
	pub := NewPublisher(store, WithAsyncBuffer(1), WithMetrics(metrics))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var dropped int
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := pub.Emit(context.Background(), verifiedEvent("S1")); errors.Is(err, ErrBufferFull) {
				mu.Lock()
				dropped++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.NoError(t, pub.Close())

	assert.Equal(t, 50, store.Len()+dropped, "every event is either stored or reported dropped")
	assert.Equal(t, float64(dropped), testutil.ToFloat64(metrics.EventsDropped))
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithClock(func() time.Time { return fixed }))
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), verifiedEvent("S1")))

	events, err := store.ListRecent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, fixed, events[0].Timestamp)
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	event := verifiedEvent("S1")
	event.Timestamp = customTime
	require.NoError(t, pub.Emit(context.Background(), event))

	events, err := store.ListRecent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_EmitAfterClose(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close(), "close is idempotent")

	err := pub.Emit(context.Background(), verifiedEvent("S1"))
	assert.ErrorIs(t, err, sentinel.ErrClosed)
}

type recordingPublisher struct {
	events []audit.Event
	err    error
}

func (r *recordingPublisher) Emit(_ context.Context, e audit.Event) error {
	r.events = append(r.events, e)
	return r.err
}

func TestFanout(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("sink down")}
	fan := Fanout{failing, nil, ok}

	err := fan.Emit(context.Background(), verifiedEvent("S1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink down")
	assert.Len(t, ok.events, 1, "later sinks still receive the event")
	assert.Len(t, failing.events, 1)
}

func TestFanoutSharesEventID(t *testing.T) {
	a := &recordingPublisher{}
	b := &recordingPublisher{}

	require.NoError(t, Fanout{a, b}.Emit(context.Background(), verifiedEvent("S1")))

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.NotEqual(t, uuid.Nil, a.events[0].ID)
	assert.Equal(t, a.events[0].ID, b.events[0].ID)
	assert.Equal(t, a.events[0].Timestamp, b.events[0].Timestamp)
}
