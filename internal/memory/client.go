// Package memory is a client for the conversation-memory REST service that
// stores per-caller users, per-call threads, and transcript messages.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/GuyfromMontana/MFC-single-agent/internal/memory/metrics"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/config"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/circuit"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/sentinel"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/requestcontext"
)

const maxErrorBody = 64 << 10

var tracer = otel.Tracer("github.com/GuyfromMontana/MFC-single-agent/internal/memory")

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithBreaker gates every request behind b. Without one, requests are
// always attempted.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Client is safe for concurrent use; share one per process so connections
// are pooled.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// New creates a client for the service rooted at baseURL.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    http.DefaultClient,
		logger:  slog.Default(),
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a client with a pooled transport sized from cfg.
func NewFromConfig(cfg config.MemoryConfig, opts ...Option) *Client {
	base := []Option{
		WithHTTPClient(NewHTTPClient(cfg)),
		WithTimeout(cfg.Timeout),
		WithBreaker(circuit.New("memory",
			circuit.WithFailureThreshold(cfg.BreakerFailures),
			circuit.WithSuccessThreshold(cfg.BreakerSuccesses),
			circuit.WithCooldown(cfg.BreakerCooldown),
		)),
	}
	return New(cfg.BaseURL, cfg.APIKey, append(base, opts...)...)
}

// NewHTTPClient returns an http.Client with a bounded, reusable connection pool.
func NewHTTPClient(cfg config.MemoryConfig) *http.Client {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConns,
		MaxConnsPerHost:       cfg.MaxConns,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{Transport: transport, Timeout: cfg.Timeout}
}

// BreakerState reports the breaker position, or "closed" without one.
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return circuit.StateClosed.String()
	}
	return c.breaker.State().String()
}

// GetUser fetches a caller's memory user. Returns an error matching
// sentinel.ErrNotFound when the user does not exist.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var u User
	if err := c.do(ctx, "get_user", http.MethodGet, "/users/"+url.PathEscape(userID), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser creates a memory user. Returns an error matching
// sentinel.ErrConflict when the user already exists.
func (c *Client) CreateUser(ctx context.Context, u User) error {
	return c.do(ctx, "create_user", http.MethodPost, "/users", u, nil)
}

// UpdateUser applies a partial update; fields absent from patch are kept.
func (c *Client) UpdateUser(ctx context.Context, userID string, patch UserPatch) error {
	return c.do(ctx, "update_user", http.MethodPatch, "/users/"+url.PathEscape(userID), patch, nil)
}

// CreateThread opens a thread owned by userID. Returns an error matching
// sentinel.ErrConflict when the thread already exists.
func (c *Client) CreateThread(ctx context.Context, threadID, userID string) error {
	return c.do(ctx, "create_thread", http.MethodPost, "/threads", createThreadRequest{ThreadID: threadID, UserID: userID}, nil)
}

// AddMessages appends up to MaxMessagesPerRequest messages to a thread.
func (c *Client) AddMessages(ctx context.Context, threadID string, msgs []Message) error {
	if len(msgs) > MaxMessagesPerRequest {
		return fmt.Errorf("add %d messages: %w", len(msgs), ErrBatchTooLarge)
	}
	if len(msgs) == 0 {
		return nil
	}
	return c.do(ctx, "add_messages", http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/messages", addMessagesRequest{Messages: msgs}, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "memory."+op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.method", method)))
	defer span.End()

	if c.breaker != nil && !c.breaker.Allow() {
		c.metrics.ObserveRequest(op, "short_circuit", start)
		span.SetStatus(codes.Error, "circuit open")
		return &ServiceError{Op: op, Kind: sentinel.ErrUnavailable, Cause: errors.New("circuit open")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return &ServiceError{Op: op, Cause: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure(ctx, op)
		c.metrics.ObserveRequest(op, "transport_error", start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return &ServiceError{Op: op, Kind: sentinel.ErrUnavailable, Cause: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.recordSuccess(ctx)
		c.metrics.ObserveRequest(op, "ok", start)
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &ServiceError{Op: op, StatusCode: resp.StatusCode, Cause: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	svcErr := &ServiceError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	svcErr.Kind = classify(resp.StatusCode, svcErr.Body)
	if errors.Is(svcErr.Kind, sentinel.ErrUnavailable) {
		c.recordFailure(ctx, op)
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	} else {
		c.recordSuccess(ctx)
	}
	c.metrics.ObserveRequest(op, outcomeFor(svcErr.Kind), start)
	return svcErr
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Api-Key "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) recordFailure(ctx context.Context, op string) {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.metrics.SetBreakerOpen(true)
		c.logger.WarnContext(ctx, "memory service circuit opened",
			"request_id", requestcontext.RequestID(ctx),
			"op", op,
		)
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.metrics.SetBreakerOpen(false)
		c.logger.InfoContext(ctx, "memory service circuit closed",
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// classify maps a non-2xx response to a sentinel. The service reports an
// existing user or thread as a 400 with "already exists" in the body.
func classify(status int, body string) error {
	switch {
	case status == http.StatusNotFound:
		return sentinel.ErrNotFound
	case status == http.StatusConflict:
		return sentinel.ErrConflict
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(body), "already exists"):
		return sentinel.ErrConflict
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout, status >= 500:
		return sentinel.ErrUnavailable
	default:
		return ErrRejected
	}
}

func outcomeFor(kind error) string {
	switch {
	case errors.Is(kind, sentinel.ErrNotFound):
		return "not_found"
	case errors.Is(kind, sentinel.ErrConflict):
		return "conflict"
	case errors.Is(kind, sentinel.ErrUnavailable):
		return "unavailable"
	default:
		return "rejected"
	}
}
