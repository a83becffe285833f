//go:build integration

package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/GuyfromMontana/MFC-single-agent/internal/notify"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/config"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/kafka"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/testutil"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/testutil/containers"
)

func TestKafkaPublisher_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rp := containers.GetManager().GetRedpanda(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "call-summaries-test"
	client, err := kafka.NewClient(config.KafkaConfig{Brokers: []string{rp.Broker}, SummaryTopic: topic})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, kafka.EnsureTopic(ctx, client, topic, 1, 1))
	require.NoError(t, kafka.EnsureTopic(ctx, client, topic, 1, 1), "existing topic is not an error")

	pub := notify.NewKafkaPublisher(client, topic, testutil.DiscardLogger())
	require.NoError(t, pub.PublishCallSummary(ctx, notify.CallSummary{
		CallID:     "c1",
		Phone:      "+14065551234",
		CallerName: "Guy Hanson",
		Territory:  "Bitterroot",
		EndedAt:    time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC),
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollRecords(ctx, 1)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "+14065551234", string(rec.Key))
	headers := map[string]string{}
	for _, h := range rec.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, notify.EventTypeCallSummary, headers["event_type"])
	assert.NotEmpty(t, headers["event_id"])

	var got notify.CallSummary
	require.NoError(t, json.Unmarshal(rec.Value, &got))
	assert.Equal(t, "c1", got.CallID)
	assert.Equal(t, "Guy Hanson", got.CallerName)
	assert.Equal(t, headers["event_id"], got.EventID)
}
