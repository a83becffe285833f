// Package caller builds the profile the voice agent greets a caller with,
// merging the known-contacts registry, conversation memory, and lead records.
package caller

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
	"golang.org/x/sync/errgroup"

	"github.com/GuyfromMontana/MFC-single-agent/internal/caller/metrics"
	"github.com/GuyfromMontana/MFC-single-agent/internal/caller/models"
	cmodels "github.com/GuyfromMontana/MFC-single-agent/internal/contacts/models"
	"github.com/GuyfromMontana/MFC-single-agent/internal/facts"
	lmodels "github.com/GuyfromMontana/MFC-single-agent/internal/leads/models"
	"github.com/GuyfromMontana/MFC-single-agent/internal/memory"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/domain"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/sentinel"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/requestcontext"
)

// ContactFinder reads the known-contacts registry.
type ContactFinder interface {
	FindByPhone(ctx context.Context, phone domain.PhoneKey) (*cmodels.Contact, error)
}

// MemoryUsers reads caller records from conversation memory.
type MemoryUsers interface {
	GetUser(ctx context.Context, userID string) (*memory.User, error)
}

// LeadFinder returns a caller's most recent lead.
type LeadFinder interface {
	Latest(ctx context.Context, phone domain.PhoneKey) (*lmodels.Lead, error)
}

// MsgNewCaller is the greeting hint for a caller with no history.
const MsgNewCaller = "New caller. Collect their name and information."

const (
	MsgReturningNoName = "Returning caller without a confirmed name. Ask for their name."
	MsgKnownNoName     = "Known customer, first call on this line. Ask for their name and confirm their details."
)

var tracer = otel.Tracer("github.com/GuyfromMontana/MFC-single-agent/internal/caller")

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithTimeout bounds the whole lookup, all sources included.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// Resolver is read-only; it never writes to any source. Any source may be nil.
type Resolver struct {
	contacts ContactFinder
	memory   MemoryUsers
	leads    LeadFinder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration
}

// New constructs a Resolver.
func New(contacts ContactFinder, mem MemoryUsers, leads LeadFinder, opts ...Option) *Resolver {
	r := &Resolver{
		contacts: contacts,
		memory:   mem,
		leads:    leads,
		logger:   slog.Default(),
		timeout:  2 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve always returns a usable profile. Sources are applied in precedence
// order (known contacts, memory, leads) and a field set by an earlier source
// is never overwritten by a later one. Source failures count as "no data".
func (r *Resolver) Resolve(ctx context.Context, phone domain.PhoneKey) *models.CallerProfile {
	start := time.Now()
	profile := models.Unknown(phone)
	if phone.IsZero() {
		return r.finish(ctx, profile, start)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "caller.Resolve", trace.WithAttributes(attribute.String("caller.phone", phone.String())))
	defer span.End()

	var (
		contact *cmodels.Contact
		user    *memory.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		contact = r.lookupContact(gctx, phone)
		return nil
	})
	g.Go(func() error {
		user = r.lookupMemory(gctx, phone)
		return nil
	})
	_ = g.Wait()

	if contact != nil {
		applyContact(profile, contact)
	}
	if user != nil {
		applyMemory(profile, user)
	}
	if profile.CallerName == "" || profile.LastLocation == "" {
		if lead := r.lookupLead(ctx, phone); lead != nil {
			applyLead(profile, lead)
		}
	}

	span.SetAttributes(
		attribute.Bool("caller.known", profile.IsKnownContact),
		attribute.Bool("caller.returning", profile.IsReturningCaller),
	)
	return r.finish(ctx, profile, start)
}

func (r *Resolver) finish(ctx context.Context, p *models.CallerProfile, start time.Time) *models.CallerProfile {
	p.Summary = summarize(p)
	p.GreetingHint = greetingHint(p)
	r.metrics.ObserveProfile(p.IsKnownContact, p.IsReturningCaller, start)
	r.logger.InfoContext(ctx, "caller profile resolved",
		"call_id", requestcontext.CallID(ctx),
		"phone", p.PhoneKey.String(),
		"known", p.IsKnownContact,
		"returning", p.IsReturningCaller,
		"has_name", p.CallerName != "",
		"sources", strings.Join(p.Sources, ","),
	)
	return p
}

func (r *Resolver) lookupContact(ctx context.Context, phone domain.PhoneKey) *cmodels.Contact {
	if r.contacts == nil {
		return nil
	}
	c, err := r.contacts.FindByPhone(ctx, phone)
	if err != nil {
		r.sourceFailed(ctx, models.SourceKnownContacts, err)
		return nil
	}
	return c
}

func (r *Resolver) lookupMemory(ctx context.Context, phone domain.PhoneKey) *memory.User {
	if r.memory == nil {
		return nil
	}
	u, err := r.memory.GetUser(ctx, phone.MemoryUserID())
	if err != nil {
		r.sourceFailed(ctx, models.SourceMemory, err)
		return nil
	}
	return u
}

func (r *Resolver) lookupLead(ctx context.Context, phone domain.PhoneKey) *lmodels.Lead {
	if r.leads == nil {
		return nil
	}
	l, err := r.leads.Latest(ctx, phone)
	if err != nil {
		r.sourceFailed(ctx, models.SourceLeads, err)
		return nil
	}
	return l
}

// sourceFailed ignores not-found, which is the common case for new callers.
func (r *Resolver) sourceFailed(ctx context.Context, source string, err error) {
	if errors.Is(err, sentinel.ErrNotFound) {
		return
	}
	r.metrics.IncSourceFailure(source)
	r.logger.WarnContext(ctx, "caller profile source failed",
		"call_id", requestcontext.CallID(ctx),
		"source", source,
		"error", err,
	)
}

func applyContact(p *models.CallerProfile, c *cmodels.Contact) {
	p.IsKnownContact = true
	p.Sources = append(p.Sources, models.SourceKnownContacts)
	if name := c.FullName(); !facts.IsPlaceholderName(name) {
		setIfEmpty(&p.CallerName, name)
	}
	setIfEmpty(&p.LastLocation, c.City)
	setIfEmpty(&p.LastTerritory, c.Territory)
	setIfEmpty(&p.CompanyName, c.CompanyName)
	if p.LifetimeValue == 0 {
		p.LifetimeValue = c.LifetimeValue
	}
}

func applyMemory(p *models.CallerProfile, u *memory.User) {
	p.IsReturningCaller = true
	p.Sources = append(p.Sources, models.SourceMemory)
	if facts.IsValidName(u.FirstName) {
		setIfEmpty(&p.CallerName, strings.TrimSpace(u.FirstName))
	}
	setIfEmpty(&p.LastLocation, u.Meta(memory.MetaLocation))
	setIfEmpty(&p.LastTerritory, u.Meta(memory.MetaTerritory))
	setIfEmpty(&p.AssignedContact, u.Meta(memory.MetaSpecialist))
	setIfEmpty(&p.AssignedContactEmail, u.Meta(memory.MetaSpecialistEmail))
	setIfEmpty(&p.LastInterest, u.Meta(memory.MetaLastInterest))
}

func applyLead(p *models.CallerProfile, l *lmodels.Lead) {
	p.Sources = append(p.Sources, models.SourceLeads)
	if name := l.FullName(); facts.IsValidName(name) {
		setIfEmpty(&p.CallerName, name)
	}
	setIfEmpty(&p.LastLocation, l.City)
	setIfEmpty(&p.LastInterest, l.PrimaryInterest)
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = strings.TrimSpace(v)
	}
}

func summarize(p *models.CallerProfile) string {
	var b strings.Builder
	switch {
	case p.IsKnownContact && p.IsReturningCaller:
		b.WriteString("Known customer, returning caller")
	case p.IsKnownContact:
		b.WriteString("Known customer, first call")
	case p.IsReturningCaller:
		b.WriteString("Returning caller")
	default:
		b.WriteString("New caller")
	}
	if p.CallerName != "" {
		fmt.Fprintf(&b, ": %s", p.CallerName)
	}
	if p.CompanyName != "" {
		fmt.Fprintf(&b, " (%s)", p.CompanyName)
	}
	b.WriteString(".")
	if h := p.ConversationHistory(); h != "" {
		fmt.Fprintf(&b, " %s.", h)
	}
	if len(p.Sources) > 0 {
		fmt.Fprintf(&b, " Sources: %s.", strings.Join(p.Sources, ", "))
	}
	return b.String()
}

func greetingHint(p *models.CallerProfile) string {
	switch {
	case p.IsKnownContact && p.IsReturningCaller && p.CallerName != "":
		return fmt.Sprintf("Known customer calling back. Greet %s by name and pick up where the last call left off.", p.CallerName)
	case p.IsKnownContact && p.CallerName != "":
		return fmt.Sprintf("Known customer, first call on this line. Greet %s by name and confirm their details.", p.CallerName)
	case p.IsReturningCaller && p.CallerName != "":
		return fmt.Sprintf("Returning caller. Greet %s by name.", p.CallerName)
	case p.IsReturningCaller:
		return MsgReturningNoName
	case p.IsKnownContact:
		return MsgKnownNoName
	case p.CallerName != "":
		return fmt.Sprintf("Caller may be %s from an earlier inquiry. Confirm their name.", p.CallerName)
	default:
		return MsgNewCaller
	}
}
