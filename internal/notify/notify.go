// Package notify hands finished-call summaries to the follow-up pipeline
// (specialist emails) over a Kafka topic.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/GuyfromMontana/MFC-single-agent/pkg/domain"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/requestcontext"
)

// EventTypeCallSummary is set in the event_type record header.
const EventTypeCallSummary = "call_summary"

// CallSummary is the payload published when a call ends.
type CallSummary struct {
	EventID         string        `json:"event_id"`
	CallID          string        `json:"call_id"`
	Phone           string        `json:"phone"`
	CallerName      string        `json:"caller_name,omitempty"`
	Location        string        `json:"location,omitempty"`
	County          string        `json:"county,omitempty"`
	Territory       string        `json:"territory,omitempty"`
	Specialist      string        `json:"specialist,omitempty"`
	SpecialistEmail string        `json:"specialist_email,omitempty"`
	DurationSeconds float64       `json:"duration_seconds,omitempty"`
	MessagesSaved   int           `json:"messages_saved"`
	Transcript      []domain.Turn `json:"transcript,omitempty"`
	EndedAt         time.Time     `json:"ended_at"`
}

// Publisher delivers call summaries.
type Publisher interface {
	PublishCallSummary(ctx context.Context, s CallSummary) error
}

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher writes one record per summary, keyed by caller phone so a
// caller's summaries stay ordered within a partition.
type KafkaPublisher struct {
	client producer
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher wraps a franz-go client.
func NewKafkaPublisher(client *kgo.Client, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{client: client, topic: topic, logger: logger}
}

func (p *KafkaPublisher) PublishCallSummary(ctx context.Context, s CallSummary) error {
	rec, err := record(p.topic, &s)
	if err != nil {
		return err
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("publish call summary %s: %w", s.CallID, err)
	}
	p.logger.InfoContext(ctx, "call summary published",
		"request_id", requestcontext.RequestID(ctx),
		"call_id", s.CallID,
		"event_id", s.EventID,
		"topic", p.topic,
	)
	return nil
}

func record(topic string, s *CallSummary) (*kgo.Record, error) {
	if s.EventID == "" {
		s.EventID = uuid.NewString()
	}
	value, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode call summary: %w", err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(s.Phone),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(EventTypeCallSummary)},
			{Key: "event_id", Value: []byte(s.EventID)},
		},
	}, nil
}

// LogPublisher only logs summaries; used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishCallSummary(ctx context.Context, s CallSummary) error {
	p.logger.InfoContext(ctx, "call summary",
		"request_id", requestcontext.RequestID(ctx),
		"call_id", s.CallID,
		"caller_name", s.CallerName,
		"territory", s.Territory,
		"specialist_email", s.SpecialistEmail,
		"messages_saved", s.MessagesSaved,
	)
	return nil
}
