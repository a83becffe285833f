package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.records = append(f.records, rs...)
	out := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		out = append(out, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return out
}

func TestKafkaPublisher(t *testing.T) {
	fp := &fakeProducer{}
	p := &KafkaPublisher{client: fp, topic: "call-summaries", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := p.PublishCallSummary(context.Background(), CallSummary{CallID: "abc", Phone: "+14065551234", CallerName: "Guy Hanson"})
	require.NoError(t, err)
	require.Len(t, fp.records, 1)

	rec := fp.records[0]
	assert.Equal(t, "call-summaries", rec.Topic)
	assert.Equal(t, []byte("+14065551234"), rec.Key)
	assert.Equal(t, "event_type", rec.Headers[0].Key)
	assert.Equal(t, []byte(EventTypeCallSummary), rec.Headers[0].Value)

	var got CallSummary
	require.NoError(t, json.Unmarshal(rec.Value, &got))
	assert.Equal(t, "Guy Hanson", got.CallerName)
	assert.NotEmpty(t, got.EventID)
	assert.Equal(t, got.EventID, string(rec.Headers[1].Value))
}

func TestKafkaPublisher_Error(t *testing.T) {
	fp := &fakeProducer{err: errors.New("broker gone")}
	p := &KafkaPublisher{client: fp, topic: "t", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := p.PublishCallSummary(context.Background(), CallSummary{CallID: "abc"})
	assert.ErrorContains(t, err, "broker gone")
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, p.PublishCallSummary(context.Background(), CallSummary{CallID: "abc", Territory: "Bitterroot"}))
	assert.Contains(t, buf.String(), `"call_id":"abc"`)
	assert.Contains(t, buf.String(), `"territory":"Bitterroot"`)
}
