package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "studioreg/pkg/platform/audit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func TestEmitProducesKeyedJSONRecord(t *testing.T) {
	producer := &fakeProducer{}
	pub := New(producer, "studioreg.audit")

	err := pub.Emit(context.Background(), audit.Event{
		Subject: "S1",
		ActorID: "A1",
		Action:  string(audit.EventStudioVerified),
	})
	require.NoError(t, err)
	require.Len(t, producer.records, 1)

	record := producer.records[0]
	assert.Equal(t, "studioreg.audit", record.Topic)
	assert.Equal(t, []byte("S1"), record.Key)

	var payload Payload
	require.NoError(t, json.Unmarshal(record.Value, &payload))
	assert.Equal(t, "compliance", payload.Category)
	assert.Equal(t, "A1", payload.ActorID)
	assert.NotEmpty(t, payload.ID)
	assert.NotEmpty(t, payload.Timestamp)

	require.Len(t, record.Headers, 2)
	assert.Equal(t, "category", record.Headers[0].Key)
}

func TestEmitPropagatesProduceError(t *testing.T) {
	pub := New(&fakeProducer{err: errors.New("broker down")}, "")
	err := pub.Emit(context.Background(), audit.Event{Subject: "S1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}
