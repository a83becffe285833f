// Package handler serves the voice platform's call lifecycle webhook and the
// agent's tool-call functions.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GuyfromMontana/MFC-single-agent/internal/caller"
	cmodels "github.com/GuyfromMontana/MFC-single-agent/internal/caller/models"
	"github.com/GuyfromMontana/MFC-single-agent/internal/calls"
	"github.com/GuyfromMontana/MFC-single-agent/internal/facts"
	"github.com/GuyfromMontana/MFC-single-agent/internal/leads"
	lmodels "github.com/GuyfromMontana/MFC-single-agent/internal/leads/models"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/metrics"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/middleware"
	"github.com/GuyfromMontana/MFC-single-agent/internal/territory"
	tmodels "github.com/GuyfromMontana/MFC-single-agent/internal/territory/models"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/domain"
	dErrors "github.com/GuyfromMontana/MFC-single-agent/pkg/domain-errors"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/httputil"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/requestcontext"
)

// CallService runs the per-call pipelines.
type CallService interface {
	Start(ctx context.Context, rawPhone string) calls.StartResult
	End(ctx context.Context, req calls.EndRequest) calls.EndResult
	Analyzed(ctx context.Context, a calls.Analysis)
}

// Router answers territory and staff questions.
type Router interface {
	Resolve(ctx context.Context, rawPlace string) territory.Resolution
	SearchStaff(ctx context.Context, name string, limit int) ([]*tmodels.Specialist, error)
}

// LeadCapturer records leads the agent captures mid-call.
type LeadCapturer interface {
	Capture(ctx context.Context, req leads.CaptureRequest) (*lmodels.Lead, error)
}

// Deduper claims an event key; false means it was already processed.
// Release drops a claim so a redelivery is processed again.
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

const staffSearchLimit = 5

const (
	msgNeedPlace    = "I need to know your town or county to find your local specialist. What town are you near?"
	msgLeadFallback = "I've noted your information. If you don't hear from us, please call back."
	msgNoTransfer   = "I don't have a phone number to transfer you to. Let me take your information and have someone call you back instead."
)

// Option configures a Handler.
type Option func(*Handler)

// WithDeduper skips repeated call_ended deliveries.
func WithDeduper(d Deduper) Option {
	return func(h *Handler) { h.dedupe = d }
}

// WithWebhookSecret enables signature verification on every /retell route.
func WithWebhookSecret(secret string) Option {
	return func(h *Handler) { h.secret = secret }
}

// WithHealth adds fields to the /health response.
func WithHealth(fn func(ctx context.Context) map[string]any) Option {
	return func(h *Handler) { h.health = fn }
}

// Handler serves the webhook and function routes.
type Handler struct {
	calls   CallService
	router  Router
	leads   LeadCapturer
	dedupe  Deduper
	secret  string
	health  func(ctx context.Context) map[string]any
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a Handler.
func New(callSvc CallService, router Router, leadSvc LeadCapturer, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Handler {
	h := &Handler{
		calls:   callSvc,
		router:  router,
		leads:   leadSvc,
		logger:  logger,
		metrics: m,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Route("/retell", func(r chi.Router) {
		r.Use(middleware.VerifySignature(h.secret, h.logger))
		r.Post("/webhook", h.handleWebhook)
		r.Route("/functions", func(r chi.Router) {
			r.Post("/lookup_town", h.function("lookup_town", h.lookupTown))
			r.Post("/find_specialist", h.function("find_specialist", h.findSpecialist))
			r.Post("/get_caller_history", h.function("get_caller_history", h.callerHistory))
			r.Post("/create_lead", h.function("create_lead", h.createLead))
			r.Post("/schedule_callback", h.function("schedule_callback", h.scheduleCallback))
			r.Post("/transfer_call", h.function("transfer_call", h.transferCall))
			r.Post("/lookup_staff", h.function("lookup_staff", h.lookupStaff))
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if h.health != nil {
		for k, v := range h.health(r.Context()) {
			body[k] = v
		}
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[WebhookRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		h.metrics.IncWebhookEvent("unknown", "bad_request")
		return
	}
	call := req.Call
	ctx = requestcontext.WithCallID(ctx, call.CallID)
	h.logger.InfoContext(ctx, "webhook received",
		"request_id", requestID,
		"event", req.Event,
		"call_id", call.CallID,
	)

	switch req.Event {
	case EventCallStarted:
		start := h.calls.Start(ctx, call.FromNumber)
		h.metrics.IncWebhookEvent(req.Event, "ok")
		httputil.WriteJSON(w, http.StatusOK, CallStartedResponse{ResponseID: 1, DynamicVariables: start.Variables})

	case EventCallEnded:
		dup, claimed := h.claim(ctx, req.Event, call.CallID)
		if dup {
			h.metrics.IncWebhookEvent(req.Event, "duplicate")
			httputil.WriteJSON(w, http.StatusOK, StatusResponse{Status: "duplicate", Event: req.Event})
			return
		}
		end := h.calls.End(ctx, calls.EndRequest{
			CallID:     call.CallID,
			FromNumber: call.FromNumber,
			Turns:      call.TranscriptObject,
			KnownName:  call.KnownName(),
			StartedAt:  call.StartedAt(),
			EndedAt:    call.EndedAt(),
		})
		if end.Persist.Retryable() {
			// nothing was saved; let the platform redeliver
			if claimed {
				h.release(ctx, req.Event, call.CallID)
			}
			h.metrics.IncWebhookEvent(req.Event, "retry")
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "call not saved, retry later"))
			return
		}
		outcome := "ok"
		if !end.Persist.Success {
			outcome = "partial"
		}
		h.metrics.IncWebhookEvent(req.Event, outcome)
		httputil.WriteJSON(w, http.StatusOK, CallEndedResponse{
			Status:        "received",
			MemorySaved:   end.Persist.SavedCount,
			ExtractedName: end.Persist.ExtractedName,
			Territory:     end.Territory(),
		})

	case EventCallAnalyzed:
		a := calls.Analysis{CallID: call.CallID}
		if ca := call.CallAnalysis; ca != nil {
			a.Summary = ca.CallSummary
			a.Sentiment = ca.UserSentiment
			a.Successful = ca.CallSuccessful
		}
		h.calls.Analyzed(ctx, a)
		h.metrics.IncWebhookEvent(req.Event, "ok")
		httputil.WriteJSON(w, http.StatusOK, StatusResponse{Status: "received"})

	default:
		h.metrics.IncWebhookEvent("other", "ignored")
		httputil.WriteJSON(w, http.StatusOK, StatusResponse{Status: "ignored", Event: req.Event})
	}
}

// claim reports whether the event was already processed and whether this
// delivery now holds the claim. It fails open: a dedupe store error processes
// the event.
func (h *Handler) claim(ctx context.Context, event, callID string) (dup, claimed bool) {
	if h.dedupe == nil || callID == "" {
		return false, false
	}
	first, err := h.dedupe.Claim(ctx, event+":"+callID)
	if err != nil {
		h.logger.WarnContext(ctx, "webhook dedupe unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"call_id", callID,
			"error", err,
		)
		return false, false
	}
	if !first {
		h.logger.InfoContext(ctx, "duplicate webhook skipped",
			"request_id", requestcontext.RequestID(ctx),
			"event", event,
			"call_id", callID,
		)
	}
	return !first, first
}

func (h *Handler) release(ctx context.Context, event, callID string) {
	if err := h.dedupe.Release(ctx, event+":"+callID); err != nil {
		h.logger.WarnContext(ctx, "webhook dedupe release failed",
			"request_id", requestcontext.RequestID(ctx),
			"call_id", callID,
			"error", err,
		)
	}
}

type functionFunc func(ctx context.Context, req *FunctionRequest) any

// function decodes a tool call, runs fn, and wraps its result as a JSON
// string. Domain failures are results, never HTTP errors.
func (h *Handler) function(name string, fn functionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)
		req, ok := httputil.DecodeAndPrepare[FunctionRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			h.metrics.IncWebhookEvent(name, "bad_request")
			return
		}
		ctx = requestcontext.WithCallID(ctx, req.Call.CallID)

		result, err := json.Marshal(fn(ctx, req))
		if err != nil {
			h.logger.ErrorContext(ctx, "encode function result",
				"request_id", requestID,
				"function", name,
				"error", err,
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "encode result"))
			return
		}
		h.metrics.IncWebhookEvent(name, "ok")
		h.logger.InfoContext(ctx, "function handled",
			"request_id", requestID,
			"call_id", req.Call.CallID,
			"function", name,
		)
		httputil.WriteJSON(w, http.StatusOK, FunctionResponse{Result: string(result)})
	}
}

func (h *Handler) lookupTown(ctx context.Context, req *FunctionRequest) any {
	town := req.Arg("town", "town_name", "location", "city")
	res := h.router.Resolve(ctx, town)
	out := LookupTownResult{
		Success:   res.Success,
		Town:      town,
		County:    res.County,
		Territory: res.Territory,
		Message:   res.Message,
	}
	if res.Contact != nil {
		out.Specialist = specialistInfo(res.Contact, res.Territory)
	}
	return out
}

func (h *Handler) findSpecialist(ctx context.Context, req *FunctionRequest) any {
	town := req.Arg("town", "town_name", "location")
	place := town
	if place == "" {
		place = req.Arg("county")
	}
	if place == "" {
		return FindSpecialistResult{Message: msgNeedPlace}
	}

	res := h.router.Resolve(ctx, place)
	if !res.Success || res.Contact == nil {
		return FindSpecialistResult{Message: res.Message}
	}
	return FindSpecialistResult{
		Found:           true,
		SpecialistName:  res.ContactName(),
		SpecialistEmail: res.Contact.Email,
		SpecialistPhone: res.Contact.Phone,
		Territory:       res.Territory,
		Town:            town,
		County:          res.County,
		Message:         res.Message,
	}
}

func (h *Handler) callerHistory(ctx context.Context, req *FunctionRequest) any {
	phone := req.Arg("phone_number")
	if phone == "" {
		phone = req.Call.FromNumber
	}
	start := h.calls.Start(ctx, phone)
	if start.Profile == nil {
		start.Profile = cmodels.Unknown("")
	}
	if phone == "" {
		start.Profile.Summary = "No phone number provided."
		start.Profile.GreetingHint = caller.MsgNewCaller
	}
	return CallerHistoryResult{CallerProfile: start.Profile, CallerPhone: phone}
}

func (h *Handler) createLead(ctx context.Context, req *FunctionRequest) any {
	name := req.Arg("name")
	if name == "" {
		name = strings.TrimSpace(req.Arg("first_name") + " " + req.Arg("last_name"))
	}
	return h.capture(ctx, req, leads.CaptureRequest{
		Name:     name,
		City:     req.Arg("location", "city", "town"),
		Interest: req.Arg("interests", "interest", "primary_interest"),
	}, func(l *lmodels.Lead) string {
		if facts.IsPlaceholderName(l.FirstName) {
			return "Thank you. I've saved your contact information and someone from our team will reach out to you soon."
		}
		return fmt.Sprintf("Thank you, %s. I've saved your contact information and someone from our team will reach out to you soon.", l.FirstName)
	})
}

func (h *Handler) scheduleCallback(ctx context.Context, req *FunctionRequest) any {
	when := req.Arg("callback_time", "time", "preferred_time")
	interest := "Callback: " + when
	if notes := req.Arg("notes"); notes != "" {
		interest += " - " + notes
	}
	return h.capture(ctx, req, leads.CaptureRequest{
		Name:     req.Arg("name"),
		Interest: interest,
	}, func(l *lmodels.Lead) string {
		if when == "" {
			when = "the next available time"
		}
		if facts.IsPlaceholderName(l.FirstName) {
			return fmt.Sprintf("I've scheduled a callback for %s. Someone will call you at %s.", when, l.Phone)
		}
		return fmt.Sprintf("Perfect, %s. I've scheduled a callback for %s. Someone will call you at %s.", l.FirstName, when, l.Phone)
	})
}

func (h *Handler) capture(ctx context.Context, req *FunctionRequest, cr leads.CaptureRequest, message func(*lmodels.Lead) string) any {
	raw := req.Arg("phone", "phone_number")
	if raw == "" {
		raw = req.Call.FromNumber
	}
	phone, err := domain.ParsePhoneKey(raw)
	if err != nil {
		return LeadResult{Message: "I need a phone number to save your information. What's the best number to reach you?"}
	}
	cr.Phone = phone

	lead, err := h.leads.Capture(ctx, cr)
	if err != nil {
		h.logger.WarnContext(ctx, "lead capture failed",
			"request_id", requestcontext.RequestID(ctx),
			"call_id", req.Call.CallID,
			"error", err,
		)
		return LeadResult{Message: msgLeadFallback}
	}
	return LeadResult{Success: true, LeadID: lead.ID.String(), Message: message(lead)}
}

func (h *Handler) transferCall(_ context.Context, req *FunctionRequest) any {
	number := req.Arg("phone_number", "specialist_phone")
	name := req.Arg("specialist_name")
	if name == "" {
		name = "your specialist"
	}
	if number == "" {
		return TransferResult{Message: msgNoTransfer}
	}
	return TransferResult{
		Success:        true,
		CanTransfer:    true,
		TransferNumber: domain.FormatE164(number),
		SpecialistName: name,
		Message:        fmt.Sprintf("One moment please, I'm transferring you to %s now.", name),
	}
}

func (h *Handler) lookupStaff(ctx context.Context, req *FunctionRequest) any {
	name := req.Arg("name", "staff_name")
	if name == "" {
		return StaffResult{Message: "I need a name to search for. Who are you looking for?"}
	}

	staff, err := h.router.SearchStaff(ctx, name, staffSearchLimit)
	if err != nil {
		h.logger.WarnContext(ctx, "staff lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return StaffResult{SearchedName: name, Message: "I had trouble looking up that person."}
	}

	switch len(staff) {
	case 0:
		return StaffResult{
			SearchedName: name,
			Message:      fmt.Sprintf("I don't have contact information for %s. Which location are you calling about?", name),
		}
	case 1:
		s := staff[0]
		msg := fmt.Sprintf("Found %s", s.FullName())
		if s.TerritoryName != "" {
			msg += fmt.Sprintf(", covering %s", tmodels.Territory{Name: s.TerritoryName}.DisplayName())
		}
		return StaffResult{
			Found:     true,
			Name:      s.FullName(),
			Email:     s.Email,
			Phone:     s.Phone,
			Territory: s.TerritoryName,
			Message:   msg + ".",
		}
	default:
		names := make([]string, 0, len(staff))
		for _, s := range staff {
			names = append(names, s.FullName())
		}
		return StaffResult{
			Found:           true,
			MultipleMatches: true,
			Count:           len(staff),
			Names:           names,
			Message:         fmt.Sprintf("I found %d people: %s. Which one do you need?", len(staff), strings.Join(names, ", ")),
		}
	}
}

func specialistInfo(s *tmodels.Specialist, territoryName string) *SpecialistInfo {
	return &SpecialistInfo{
		FullName:  s.FullName(),
		Email:     s.Email,
		Phone:     s.Phone,
		Territory: territoryName,
	}
}
