// Package calls runs the per-call pipelines: the read path at call start and
// the extract, route, persist, and notify path at call end.
package calls

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/GuyfromMontana/MFC-single-agent/internal/caller/models"
	"github.com/GuyfromMontana/MFC-single-agent/internal/facts"
	"github.com/GuyfromMontana/MFC-single-agent/internal/notify"
	"github.com/GuyfromMontana/MFC-single-agent/internal/persist"
	"github.com/GuyfromMontana/MFC-single-agent/internal/territory"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/domain"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/requestcontext"
)

// ProfileResolver builds caller profiles.
type ProfileResolver interface {
	Resolve(ctx context.Context, phone domain.PhoneKey) *models.CallerProfile
}

// TerritoryResolver routes a place name to a territory.
type TerritoryResolver interface {
	Resolve(ctx context.Context, rawPlace string) territory.Resolution
}

// Persister writes finished calls to conversation memory.
type Persister interface {
	PersistCall(ctx context.Context, req persist.Request) persist.Result
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithExtractor swaps the strategy used to find the caller's location.
func WithExtractor(e facts.Extractor) Option {
	return func(s *Service) { s.extractor = e }
}

// WithPublisher sets where call summaries go. Without one, none are sent.
func WithPublisher(p notify.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithPublishTimeout bounds each summary publish.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

const defaultPublishTimeout = 5 * time.Second

// Service orchestrates the components for one call at a time and is safe
// for concurrent use.
type Service struct {
	profiles    ProfileResolver
	territories TerritoryResolver
	persister   Persister
	extractor   facts.Extractor
	publisher   notify.Publisher
	logger      *slog.Logger

	publishTimeout time.Duration
}

// New constructs a Service.
func New(profiles ProfileResolver, territories TerritoryResolver, persister Persister, opts ...Option) *Service {
	s := &Service{
		profiles:    profiles,
		territories: territories,
		persister:   persister,
		extractor:   facts.NewHeuristic(),
		logger:      slog.Default(),

		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartResult is what the agent receives when a call connects.
type StartResult struct {
	Profile   *models.CallerProfile
	Variables map[string]string
}

// Start resolves the caller's profile. An unparseable number yields the
// new-caller profile.
func (s *Service) Start(ctx context.Context, rawPhone string) StartResult {
	phone, err := domain.ParsePhoneKey(rawPhone)
	if err != nil {
		s.logger.InfoContext(ctx, "call started without usable caller number",
			"call_id", requestcontext.CallID(ctx),
			"error", err,
		)
	}
	profile := s.profiles.Resolve(ctx, phone)
	return StartResult{Profile: profile, Variables: profile.Variables()}
}

// EndRequest describes a finished call.
type EndRequest struct {
	CallID     string
	FromNumber string
	Turns      []domain.Turn
	KnownName  string
	StartedAt  time.Time
	EndedAt    time.Time
}

// EndResult summarizes the call-end pipeline.
type EndResult struct {
	Persist   persist.Result
	Location  string
	Routing   *territory.Resolution
	Published bool
}

// Territory returns the routed territory name, or "".
func (r EndResult) Territory() string {
	if r.Routing == nil || !r.Routing.Success {
		return ""
	}
	return r.Routing.Territory
}

// End extracts the caller's location, routes it, persists the call, and
// publishes a summary. It never fails; partial results are reported.
func (s *Service) End(ctx context.Context, req EndRequest) EndResult {
	var res EndResult
	phone, err := domain.ParsePhoneKey(req.FromNumber)
	if err != nil {
		s.logger.WarnContext(ctx, "call ended without usable caller number",
			"call_id", req.CallID,
			"error", err,
		)
		res.Persist = persist.Result{Stage: persist.StageNotStarted, Message: "missing caller phone"}
		return res
	}

	if place, ok := s.extractor.ExtractLocation(req.Turns); ok {
		res.Location = place
		routing := s.territories.Resolve(ctx, place)
		res.Routing = &routing
	}

	res.Persist = s.persister.PersistCall(ctx, persist.Request{
		PhoneKey:  phone,
		CallID:    req.CallID,
		Turns:     req.Turns,
		KnownName: req.KnownName,
		Location:  res.Location,
		Routing:   res.Routing,
	})

	if s.publisher != nil {
		res.Published = s.publish(ctx, s.summary(ctx, phone, req, res))
	}
	return res
}

func (s *Service) publish(ctx context.Context, sum notify.CallSummary) bool {
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.PublishCallSummary(ctx, sum); err != nil {
		s.logger.WarnContext(ctx, "call summary publish failed", "call_id", sum.CallID, "error", err)
		return false
	}
	return true
}

func (s *Service) summary(ctx context.Context, phone domain.PhoneKey, req EndRequest, res EndResult) notify.CallSummary {
	sum := notify.CallSummary{
		CallID:        req.CallID,
		Phone:         phone.E164(),
		CallerName:    res.Persist.CallerName,
		Location:      res.Location,
		MessagesSaved: res.Persist.SavedCount,
		Transcript:    req.Turns,
		EndedAt:       req.EndedAt,
	}
	if sum.EndedAt.IsZero() {
		sum.EndedAt = requestcontext.Now(ctx)
	}
	if !req.StartedAt.IsZero() && req.EndedAt.After(req.StartedAt) {
		sum.DurationSeconds = req.EndedAt.Sub(req.StartedAt).Seconds()
	}
	if r := res.Routing; r != nil && r.Success {
		sum.County = r.County
		sum.Territory = r.Territory
		sum.Specialist = r.ContactName()
		sum.SpecialistEmail = r.ContactEmail()
	}
	return sum
}

// Analysis is the platform's post-call analysis.
type Analysis struct {
	CallID     string
	Summary    string
	Sentiment  string
	Successful *bool
}

// Analyzed records post-call analysis. It is informational only.
func (s *Service) Analyzed(ctx context.Context, a Analysis) {
	attrs := []any{
		"call_id", a.CallID,
		"sentiment", strings.ToLower(a.Sentiment),
		"summary_chars", len(a.Summary),
	}
	if a.Successful != nil {
		attrs = append(attrs, "successful", *a.Successful)
	}
	s.logger.InfoContext(ctx, "call analyzed", attrs...)
}
