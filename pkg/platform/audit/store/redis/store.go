package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	audit "studioreg/pkg/platform/audit"
)

const (
	DefaultStream = "studioreg:audit"

	// defaultMaxLen caps the stream; XADD trims approximately beyond it.
	defaultMaxLen    = 100000
	defaultListLimit = 100
)

// Store appends audit events to a capped Redis stream so several instances
// can share one recent-history view.
type Store struct {
	client *redis.Client
	stream string
	maxLen int64
}

// Option configures a Store.
type Option func(*Store)

// WithStream overrides the stream key.
func WithStream(stream string) Option {
	return func(s *Store) {
		s.stream = stream
	}
}

// WithMaxLen overrides the approximate stream cap.
func WithMaxLen(n int64) Option {
	return func(s *Store) {
		s.maxLen = n
	}
}

// New constructs a Redis-backed audit store.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		stream: DefaultStream,
		maxLen: defaultMaxLen,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Append adds the event to the stream.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	event = event.Normalize(time.Now())
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"id":         event.ID.String(),
			"category":   string(event.Category),
			"timestamp":  event.Timestamp.UTC().Format(time.RFC3339Nano),
			"subject":    event.Subject,
			"action":     event.Action,
			"actor_id":   event.ActorID,
			"decision":   event.Decision,
			"reason":     event.Reason,
			"request_id": event.RequestID,
			"client_ip":  event.ClientIP,
			"user_agent": event.UserAgent,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("append audit event to stream: %w", err)
	}
	return nil
}

// ListRecent reads the newest entries of the stream.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	msgs, err := s.client.XRevRangeN(ctx, s.stream, "+", "-", int64(limit)).Result()
	if err != nil {
		return nil, fmt.Errorf("read audit stream: %w", err)
	}
	events := make([]audit.Event, 0, len(msgs))
	for _, msg := range msgs {
		event, err := fromValues(msg.Values)
		if err != nil {
			return nil, fmt.Errorf("decode audit entry %s: %w", msg.ID, err)
		}
		events = append(events, event)
	}
	return events, nil
}

func fromValues(values map[string]any) (audit.Event, error) {
	str := func(key string) string {
		v, _ := values[key].(string)
		return v
	}
	id, err := uuid.Parse(str("id"))
	if err != nil {
		return audit.Event{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, str("timestamp"))
	if err != nil {
		return audit.Event{}, err
	}
	return audit.Event{
		ID:        id,
		Category:  audit.EventCategory(str("category")),
		Timestamp: ts,
		Subject:   str("subject"),
		Action:    str("action"),
		ActorID:   str("actor_id"),
		Decision:  str("decision"),
		Reason:    str("reason"),
		RequestID: str("request_id"),
		ClientIP:  str("client_ip"),
		UserAgent: str("user_agent"),
	}, nil
}
