// Package persist writes a finished call into conversation memory: the
// caller's user record, a thread for the call, and the transcript appended in
// service-sized batches.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/GuyfromMontana/MFC-single-agent/internal/facts"
	"github.com/GuyfromMontana/MFC-single-agent/internal/leads"
	"github.com/GuyfromMontana/MFC-single-agent/internal/memory"
	"github.com/GuyfromMontana/MFC-single-agent/internal/persist/metrics"
	"github.com/GuyfromMontana/MFC-single-agent/internal/territory"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/domain"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/sentinel"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/requestcontext"
)

// MemoryWriter is the slice of the memory client persistence needs.
type MemoryWriter interface {
	GetUser(ctx context.Context, userID string) (*memory.User, error)
	CreateUser(ctx context.Context, u memory.User) error
	UpdateUser(ctx context.Context, userID string, patch memory.UserPatch) error
	CreateThread(ctx context.Context, threadID, userID string) error
	AddMessages(ctx context.Context, threadID string, msgs []memory.Message) error
}

// LeadReconciler mirrors call facts into lead records.
type LeadReconciler interface {
	Reconcile(ctx context.Context, phone domain.PhoneKey, name, city string) (leads.Outcome, error)
}

// Stage is how far a PersistCall got. Stages only move forward; a failure
// leaves earlier writes in place.
type Stage string

const (
	StageNotStarted       Stage = "not_started"
	StageUserUpserted     Stage = "user_upserted"
	StageThreadCreated    Stage = "thread_created"
	StageMessagesBatching Stage = "messages_batching"
	StageDone             Stage = "done"
)

// Request describes one finished call.
type Request struct {
	PhoneKey  domain.PhoneKey
	CallID    string
	Turns     []domain.Turn
	KnownName string
	// Location is a place already pulled from the transcript; when empty the
	// batcher extracts one itself.
	Location string
	Routing  *territory.Resolution
	Interest string
}

// Result reports what was written. It is returned for partial failures too.
type Result struct {
	Success           bool
	SavedCount        int
	TotalMessages     int
	Batches           int
	FailedBatches     int
	CallerName        string
	ExtractedName     string
	ExtractedLocation string
	ThreadID          string
	Stage             Stage
	LeadOutcome       leads.Outcome
	Message           string
}

// Retryable reports whether nothing reached memory because the memory service
// failed, so a later delivery of the same call could still succeed. Calls
// rejected for a missing phone or call id are not retryable.
func (r Result) Retryable() bool {
	return r.Stage == StageNotStarted && r.ThreadID != ""
}

var tracer = otel.Tracer("github.com/GuyfromMontana/MFC-single-agent/internal/persist")

// Option configures a Batcher.
type Option func(*Batcher)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Batcher) { b.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Batcher) { b.metrics = m }
}

// WithExtractor swaps the fact extraction strategy.
func WithExtractor(e facts.Extractor) Option {
	return func(b *Batcher) { b.extractor = e }
}

// WithLeads enables mirroring names and towns into lead records.
func WithLeads(l LeadReconciler) Option {
	return func(b *Batcher) { b.leads = l }
}

// WithLeadTimeout bounds the lead reconcile that follows the memory writes.
func WithLeadTimeout(d time.Duration) Option {
	return func(b *Batcher) {
		if d > 0 {
			b.leadTimeout = d
		}
	}
}

// WithAgentName sets the display name on assistant messages.
func WithAgentName(name string) Option {
	return func(b *Batcher) {
		if name = strings.TrimSpace(name); name != "" {
			b.agentName = name
		}
	}
}

// WithBatchSize lowers the per-request message count. Values outside
// 1..memory.MaxMessagesPerRequest are ignored.
func WithBatchSize(n int) Option {
	return func(b *Batcher) {
		if n > 0 && n <= memory.MaxMessagesPerRequest {
			b.batchSize = n
		}
	}
}

// Batcher persists calls. It is safe for concurrent use.
type Batcher struct {
	memory    MemoryWriter
	extractor facts.Extractor
	leads     LeadReconciler
	logger    *slog.Logger
	metrics   *metrics.Metrics
	agentName string
	batchSize int

	leadTimeout time.Duration
}

const defaultLeadTimeout = 3 * time.Second

// New constructs a Batcher writing through mem.
func New(mem MemoryWriter, opts ...Option) *Batcher {
	b := &Batcher{
		memory:    mem,
		extractor: facts.NewHeuristic(),
		logger:    slog.Default(),
		agentName: "Agent",
		batchSize: memory.MaxMessagesPerRequest,

		leadTimeout: defaultLeadTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// PersistCall never returns an error; every failure is logged and reflected
// in the Result's Stage, Success, and counts.
func (b *Batcher) PersistCall(ctx context.Context, req Request) Result {
	start := time.Now()
	res := Result{Stage: StageNotStarted, ThreadID: memory.ThreadID(req.CallID)}
	if req.PhoneKey.IsZero() || strings.TrimSpace(req.CallID) == "" {
		res.ThreadID = ""
		res.Message = "missing caller phone or call id"
		return res
	}

	ctx, span := tracer.Start(ctx, "persist.PersistCall", trace.WithAttributes(
		attribute.String("call.id", req.CallID),
		attribute.Int("call.turns", len(req.Turns)),
	))
	defer span.End()
	log := b.logger.With("call_id", req.CallID, "request_id", requestcontext.RequestID(ctx))

	name := strings.TrimSpace(req.KnownName)
	if !facts.IsValidName(name) {
		name = ""
		if n, ok := b.extractor.ExtractName(req.Turns); ok && facts.IsValidName(n) {
			name = n
			res.ExtractedName = n
		}
	}
	res.CallerName = name

	place := strings.TrimSpace(req.Location)
	if place == "" {
		if p, ok := b.extractor.ExtractLocation(req.Turns); ok {
			place = p
		}
	}
	res.ExtractedLocation = place

	b.writeMemory(ctx, log, req, name, place, &res)
	if b.leads != nil {
		res.LeadOutcome = b.reconcileLead(ctx, log, req.PhoneKey, name, place)
	}

	span.SetAttributes(attribute.String("persist.stage", string(res.Stage)), attribute.Int("persist.saved", res.SavedCount))
	b.metrics.ObserveCall(string(res.Stage), res.Success, start)
	log.InfoContext(ctx, "call persisted",
		"stage", res.Stage,
		"success", res.Success,
		"saved", res.SavedCount,
		"total", res.TotalMessages,
		"batches", res.Batches,
		"failed_batches", res.FailedBatches,
		"has_name", name != "",
		"location", place,
	)
	return res
}

func (b *Batcher) reconcileLead(ctx context.Context, log *slog.Logger, phone domain.PhoneKey, name, place string) leads.Outcome {
	ctx, cancel := context.WithTimeout(ctx, b.leadTimeout)
	defer cancel()
	outcome, err := b.leads.Reconcile(ctx, phone, name, place)
	if err != nil {
		log.WarnContext(ctx, "lead reconcile failed", "error", err)
	}
	return outcome
}

func (b *Batcher) writeMemory(ctx context.Context, log *slog.Logger, req Request, name, place string, res *Result) {
	userID := req.PhoneKey.MemoryUserID()
	meta := buildMetadata(req, place)

	if err := b.upsertUser(ctx, log, userID, name, meta); err != nil {
		log.ErrorContext(ctx, "memory user upsert failed", "error", err)
		res.Message = "could not save caller record"
		return
	}
	res.Stage = StageUserUpserted

	if err := b.memory.CreateThread(ctx, res.ThreadID, userID); err != nil && !errors.Is(err, sentinel.ErrConflict) {
		log.ErrorContext(ctx, "memory thread create failed", "thread_id", res.ThreadID, "error", err)
		res.Message = "could not open conversation thread"
		return
	}
	res.Stage = StageThreadCreated

	msgs := toMessages(req, name, b.agentName)
	res.TotalMessages = len(msgs)
	batches := chunk(msgs, b.batchSize)
	res.Batches = len(batches)
	for i, batch := range batches {
		res.Stage = StageMessagesBatching
		err := b.memory.AddMessages(ctx, res.ThreadID, batch)
		b.metrics.ObserveBatch(len(batch), err)
		if err != nil {
			res.FailedBatches++
			log.WarnContext(ctx, "message batch failed",
				"batch", i+1,
				"of", len(batches),
				"size", len(batch),
				"error", err,
			)
			continue
		}
		res.SavedCount += len(batch)
	}
	res.Stage = StageDone
	res.Success = res.FailedBatches == 0
	res.Message = fmt.Sprintf("saved %d of %d messages", res.SavedCount, res.TotalMessages)
}

// upsertUser creates the user, or on conflict merges metadata into the stored
// record and patches only what changed. The stored name is replaced only when
// it is not already a valid name.
func (b *Batcher) upsertUser(ctx context.Context, log *slog.Logger, userID, name string, meta map[string]any) error {
	err := b.memory.CreateUser(ctx, memory.User{UserID: userID, FirstName: name, Metadata: meta})
	if err == nil {
		return nil
	}
	if !errors.Is(err, sentinel.ErrConflict) {
		return fmt.Errorf("create user: %w", err)
	}

	existing, err := b.memory.GetUser(ctx, userID)
	if err != nil {
		// Without the stored record a patch could clobber metadata or a name.
		log.WarnContext(ctx, "memory user read failed, leaving record unchanged", "error", err)
		return nil
	}

	var patch memory.UserPatch
	if name != "" && !facts.IsValidName(existing.FirstName) {
		patch.FirstName = &name
	}
	if merged, changed := mergeMetadata(existing.Metadata, meta); changed {
		patch.Metadata = merged
	}
	if patch.FirstName == nil && patch.Metadata == nil {
		return nil
	}
	if err := b.memory.UpdateUser(ctx, userID, patch); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func buildMetadata(req Request, place string) map[string]any {
	meta := map[string]any{
		memory.MetaPhone:      req.PhoneKey.E164(),
		memory.MetaLastCallID: req.CallID,
	}
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			meta[k] = v
		}
	}
	set(memory.MetaTown, place)
	set(memory.MetaLocation, place)
	set(memory.MetaLastInterest, req.Interest)
	if r := req.Routing; r != nil && r.Success {
		set(memory.MetaLocation, r.County)
		set(memory.MetaCounty, r.County)
		set(memory.MetaTerritory, r.Territory)
		set(memory.MetaSpecialist, r.ContactName())
		set(memory.MetaSpecialistEmail, r.ContactEmail())
	}
	return meta
}

// mergeMetadata overlays updates on existing and reports whether anything
// differs from existing.
func mergeMetadata(existing, updates map[string]any) (map[string]any, bool) {
	merged := make(map[string]any, len(existing)+len(updates))
	for k, v := range existing {
		merged[k] = v
	}
	changed := false
	for k, v := range updates {
		if old, ok := existing[k]; !ok || fmt.Sprint(old) != fmt.Sprint(v) {
			changed = true
		}
		merged[k] = v
	}
	return merged, changed
}

func toMessages(req Request, callerName, agentName string) []memory.Message {
	if callerName == "" {
		callerName = "Caller"
	}
	msgs := make([]memory.Message, 0, len(req.Turns))
	for _, t := range req.Turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		m := memory.Message{
			Role:     memory.RoleAssistant,
			Name:     agentName,
			Content:  content,
			Metadata: map[string]any{"call_id": req.CallID, "phone": req.PhoneKey.E164()},
		}
		if t.IsCaller() {
			m.Role = memory.RoleUser
			m.Name = callerName
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func chunk(msgs []memory.Message, size int) [][]memory.Message {
	var out [][]memory.Message
	for start := 0; start < len(msgs); start += size {
		end := min(start+size, len(msgs))
		out = append(out, msgs[start:end])
	}
	return out
}
