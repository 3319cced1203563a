//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	audit "studioreg/pkg/platform/audit"
	"studioreg/pkg/platform/audit/store/postgres"
	"studioreg/pkg/testutil/containers"
)

type PostgresAuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuditStoreSuite))
}

func (s *PostgresAuditStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = postgres.New(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresAuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events"))
}

func (s *PostgresAuditStoreSuite) TestAppendAndListRecent() {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, subject := range []string{"S1", "S2", "S3"} {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			ID:        uuid.New(),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Subject:   subject,
			Action:    string(audit.EventStudioVerified),
			ActorID:   "A1",
		}))
	}

	events, err := s.store.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("S3", events[0].Subject)
	s.Equal("S2", events[1].Subject)
	s.Equal(audit.CategoryCompliance, events[0].Category)
	s.Equal("A1", events[0].ActorID)
}

func (s *PostgresAuditStoreSuite) TestAppendIsIdempotent() {
	ctx := context.Background()
	event := audit.Event{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Subject:   "A2",
		Action:    string(audit.EventRegistryAdminTransferred),
	}
	s.Require().NoError(s.store.Append(ctx, event))
	s.Require().NoError(s.store.Append(ctx, event))

	events, err := s.store.ListRecent(ctx, 10)
	s.Require().NoError(err)
	s.Len(events, 1)
}
