//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	audit "studioreg/pkg/platform/audit"
	auditredis "studioreg/pkg/platform/audit/store/redis"
	"studioreg/pkg/testutil/containers"
)

type RedisAuditStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *auditredis.Store
}

func TestRedisAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisAuditStoreSuite))
}

func (s *RedisAuditStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = auditredis.New(s.redis.Client, auditredis.WithMaxLen(1000))
}

func (s *RedisAuditStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.ResetStreams(context.Background(), auditredis.DefaultStream))
}

func (s *RedisAuditStoreSuite) TestAppendAndListRecent() {
	ctx := context.Background()
	for _, subject := range []string{"S1", "S2", "S3"} {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			Timestamp: time.Now(),
			Subject:   subject,
			Action:    string(audit.EventStudioVerified),
			ActorID:   "A1",
		}))
	}

	n, err := s.redis.StreamLen(ctx, auditredis.DefaultStream)
	s.Require().NoError(err)
	s.Equal(int64(3), n)

	events, err := s.store.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("S3", events[0].Subject)
	s.Equal("S2", events[1].Subject)
	s.Equal(audit.CategoryCompliance, events[0].Category)
}

func (s *RedisAuditStoreSuite) TestListRecentOnEmptyStream() {
	events, err := s.store.ListRecent(context.Background(), 5)
	s.Require().NoError(err)
	s.Empty(events)
}
