package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/GuyfromMontana/MFC-single-agent/pkg/domain"
)

// Webhook event names.
const (
	EventCallStarted  = "call_started"
	EventCallEnded    = "call_ended"
	EventCallAnalyzed = "call_analyzed"
)

// WebhookRequest is a call lifecycle event from the voice platform.
type WebhookRequest struct {
	Event string      `json:"event"`
	Call  CallPayload `json:"call"`
}

// CallPayload is the platform's call object. Only the fields used here are
// decoded.
type CallPayload struct {
	CallID           string         `json:"call_id"`
	FromNumber       string         `json:"from_number"`
	ToNumber         string         `json:"to_number"`
	TranscriptObject []domain.Turn  `json:"transcript_object"`
	DynamicVariables map[string]any `json:"retell_llm_dynamic_variables"`
	StartTimestamp   int64          `json:"start_timestamp"`
	EndTimestamp     int64          `json:"end_timestamp"`
	CallAnalysis     *CallAnalysis  `json:"call_analysis"`
}

// CallAnalysis is the post-call analysis attached to call_analyzed.
type CallAnalysis struct {
	CallSummary    string `json:"call_summary"`
	UserSentiment  string `json:"user_sentiment"`
	CallSuccessful *bool  `json:"call_successful"`
}

// KnownName is the caller name the agent was started with, if any.
func (c CallPayload) KnownName() string {
	for _, k := range []string{"name", "caller_name"} {
		if v := stringValue(c.DynamicVariables[k]); v != "" {
			return v
		}
	}
	return ""
}

// StartedAt converts the millisecond start timestamp.
func (c CallPayload) StartedAt() time.Time { return fromMillis(c.StartTimestamp) }

// EndedAt converts the millisecond end timestamp.
func (c CallPayload) EndedAt() time.Time { return fromMillis(c.EndTimestamp) }

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// FunctionRequest is an agent tool call. Arguments arrive under "args" or,
// from older agent configurations, "arguments".
type FunctionRequest struct {
	Call      CallPayload    `json:"call"`
	Args      map[string]any `json:"args"`
	Arguments map[string]any `json:"arguments"`
}

// Arg returns the first non-empty argument among keys.
func (f FunctionRequest) Arg(keys ...string) string {
	for _, k := range keys {
		if v := stringValue(f.Args[k]); v != "" {
			return v
		}
		if v := stringValue(f.Arguments[k]); v != "" {
			return v
		}
	}
	return ""
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
