package redis

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "studioreg/pkg/platform/audit"
)

func TestFromValues(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC)

	event, err := fromValues(map[string]any{
		"id":        id.String(),
		"category":  "security",
		"timestamp": ts.Format(time.RFC3339Nano),
		"subject":   "A2",
		"action":    string(audit.EventRegistryAdminTransferred),
		"actor_id":  "A1",
	})
	require.NoError(t, err)
	assert.Equal(t, id, event.ID)
	assert.Equal(t, audit.CategorySecurity, event.Category)
	assert.True(t, ts.Equal(event.Timestamp))
	assert.Equal(t, "A2", event.Subject)
	assert.Equal(t, "A1", event.ActorID)
	assert.Empty(t, event.Reason)
}

func TestFromValuesRejectsCorruptEntries(t *testing.T) {
	_, err := fromValues(map[string]any{"id": "not-a-uuid"})
	assert.Error(t, err)

	_, err = fromValues(map[string]any{"id": uuid.NewString(), "timestamp": "yesterday"})
	assert.Error(t, err)
}

func TestNewAppliesOptions(t *testing.T) {
	s := New(nil, WithStream("custom"), WithMaxLen(10), nil)
	assert.Equal(t, "custom", s.stream)
	assert.EqualValues(t, 10, s.maxLen)
}
