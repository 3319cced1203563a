// Package postgres keeps the registry's audit trail in an append-only
// audit_events table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	audit "studioreg/pkg/platform/audit"
)

const defaultListLimit = 100

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	category    TEXT        NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL,
	subject     TEXT        NOT NULL,
	action      TEXT        NOT NULL,
	actor_id    TEXT        NOT NULL DEFAULT '',
	decision    TEXT        NOT NULL DEFAULT '',
	reason      TEXT        NOT NULL DEFAULT '',
	request_id  TEXT        NOT NULL DEFAULT '',
	client_ip   TEXT        NOT NULL DEFAULT '',
	user_agent  TEXT        NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_timestamp_idx ON audit_events (timestamp DESC);
`

const columns = `id, category, timestamp, subject, action, actor_id, decision, reason, request_id, client_ip, user_agent`

const (
	insertEvent = `INSERT INTO audit_events (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`
	selectRecent = `SELECT ` + columns + ` FROM audit_events ORDER BY timestamp DESC, id LIMIT $1`
)

// Store implements audit.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates audit_events and its index when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Append inserts event. A replayed event ID is a no-op.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	e := event.Normalize(time.Now())
	_, err := s.db.ExecContext(ctx, insertEvent,
		e.ID, string(e.Category), e.Timestamp, e.Subject, e.Action,
		e.ActorID, e.Decision, e.Reason, e.RequestID, e.ClientIP, e.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert audit event %s: %w", e.Action, err)
	}
	return nil
}

// ListRecent returns up to limit events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	events := make([]audit.Event, 0, limit)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (audit.Event, error) {
	var (
		e        audit.Event
		category string
	)
	err := rows.Scan(
		&e.ID, &category, &e.Timestamp, &e.Subject, &e.Action,
		&e.ActorID, &e.Decision, &e.Reason, &e.RequestID, &e.ClientIP, &e.UserAgent,
	)
	if err != nil {
		return audit.Event{}, fmt.Errorf("scan audit event: %w", err)
	}
	e.Category = audit.EventCategory(category)
	return e, nil
}
