// Package territory resolves a spoken town or county to the sales territory
// and field specialist that cover it.
package territory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/GuyfromMontana/MFC-single-agent/internal/territory/metrics"
	"github.com/GuyfromMontana/MFC-single-agent/internal/territory/models"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/sentinel"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/requestcontext"
)

// Store is the read-only routing data the resolver needs.
type Store interface {
	FindTerritoryByCounty(ctx context.Context, county string) (*models.Territory, error)
	ListTerritories(ctx context.Context) ([]*models.Territory, error)
	FindActiveSpecialist(ctx context.Context, territoryID uuid.UUID) (*models.Specialist, error)
	SearchSpecialists(ctx context.Context, name string, limit int) ([]*models.Specialist, error)
}

// Lookup sources reported on a Resolution.
const (
	SourceProcedure = "procedure"
	SourceDirectory = "directory"
	SourceScan      = "scan"
	SourceNone      = "none"
)

// Resolution is the outcome of a territory lookup. Success means a territory
// was found; Contact is nil when no active specialist is assigned.
type Resolution struct {
	Success   bool
	Query     string
	County    string
	Territory string
	Contact   *models.Specialist
	Source    string
	Message   string
}

// ContactName returns the assigned specialist's name, or "".
func (r Resolution) ContactName() string {
	if r.Contact == nil {
		return ""
	}
	return r.Contact.FullName()
}

// ContactEmail returns the assigned specialist's email, or "".
func (r Resolution) ContactEmail() string {
	if r.Contact == nil {
		return ""
	}
	return r.Contact.Email
}

const (
	msgNeedPlace   = "I need to know your town or county to find your local specialist. What town are you near?"
	msgUnavailable = "I'm having trouble looking that up right now. What's the nearest larger town, or which county are you in?"
)

var tracer = otel.Tracer("github.com/GuyfromMontana/MFC-single-agent/internal/territory")

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithDirectory lets the fallback scan use an in-memory snapshot once loaded.
func WithDirectory(d *Directory) Option {
	return func(r *Resolver) { r.directory = d }
}

// WithTimeout bounds a whole resolution.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// Resolver maps places to territories through a fallback cascade: static
// town table, stored procedure, then a scan of every territory.
type Resolver struct {
	towns     *TownTable
	store     Store
	directory *Directory
	logger    *slog.Logger
	metrics   *metrics.Metrics
	timeout   time.Duration
}

// NewResolver constructs a Resolver.
func NewResolver(towns *TownTable, store Store, opts ...Option) *Resolver {
	r := &Resolver{
		towns:   towns,
		store:   store,
		logger:  slog.Default(),
		timeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve never returns an error: failures become Success=false with a
// message the agent can read to the caller.
func (r *Resolver) Resolve(ctx context.Context, rawPlace string) Resolution {
	start := time.Now()
	query := strings.TrimSpace(rawPlace)
	if query == "" {
		r.metrics.ObserveResolution("empty", SourceNone, start)
		return Resolution{Query: query, Source: SourceNone, Message: msgNeedPlace}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "territory.Resolve", trace.WithAttributes(attribute.String("territory.query", query)))
	defer span.End()

	county := r.towns.ResolveCounty(query)
	res := Resolution{Query: query, County: county, Source: SourceNone}

	terr, source, err := r.findTerritory(ctx, county)
	if err != nil {
		r.logger.WarnContext(ctx, "territory lookup failed",
			"call_id", requestcontext.CallID(ctx),
			"query", query,
			"county", county,
			"error", err,
		)
		span.RecordError(err)
		r.metrics.ObserveResolution("error", source, start)
		res.Message = msgUnavailable
		return res
	}
	res.Source = source
	if terr == nil {
		r.metrics.ObserveResolution("not_found", source, start)
		res.Message = fmt.Sprintf("I couldn't find %s in our service area. What's the nearest larger town, or which county are you in?", query)
		return res
	}
	res.Territory = terr.Name

	contact, err := r.store.FindActiveSpecialist(ctx, terr.ID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		res.Success = true
		res.Message = fmt.Sprintf("%s is in our %s, but no specialist is assigned there right now. I'll have the office follow up with you.", county, terr.DisplayName())
		r.metrics.ObserveResolution("unassigned", source, start)
		return res
	case err != nil:
		r.logger.WarnContext(ctx, "specialist lookup failed",
			"call_id", requestcontext.CallID(ctx),
			"territory", terr.Name,
			"error", err,
		)
		span.RecordError(err)
		r.metrics.ObserveResolution("error", source, start)
		res.Territory = ""
		res.Message = msgUnavailable
		return res
	}

	res.Success = true
	res.Contact = contact
	res.Message = fmt.Sprintf("%s covers %s in our %s.", contact.FullName(), county, terr.DisplayName())
	r.metrics.ObserveResolution("resolved", source, start)
	r.logger.InfoContext(ctx, "territory resolved",
		"call_id", requestcontext.CallID(ctx),
		"query", query,
		"county", county,
		"territory", terr.Name,
		"source", source,
	)
	return res
}

// findTerritory returns (nil, source, nil) when nothing matches. The stored
// procedure is tried first; any failure there falls through to the scan.
func (r *Resolver) findTerritory(ctx context.Context, county string) (*models.Territory, string, error) {
	terr, err := r.store.FindTerritoryByCounty(ctx, county)
	switch {
	case err == nil:
		return terr, SourceProcedure, nil
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrUnsupported):
	default:
		r.logger.WarnContext(ctx, "territory procedure failed, scanning",
			"call_id", requestcontext.CallID(ctx),
			"county", county,
			"error", err,
		)
	}

	if r.directory != nil && r.directory.Loaded() {
		if t, ok := r.directory.Match(county); ok {
			return t, SourceDirectory, nil
		}
		return nil, SourceDirectory, nil
	}

	territories, err := r.store.ListTerritories(ctx)
	if err != nil {
		return nil, SourceScan, fmt.Errorf("scan territories: %w", err)
	}
	if t, ok := matchCounty(territories, county); ok {
		return t, SourceScan, nil
	}
	return nil, SourceScan, nil
}

// SearchStaff looks up active specialists by name for the staff directory
// function.
func (r *Resolver) SearchStaff(ctx context.Context, name string, limit int) ([]*models.Specialist, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	staff, err := r.store.SearchSpecialists(ctx, name, limit)
	if err != nil {
		return nil, fmt.Errorf("search staff: %w", err)
	}
	return staff, nil
}

// Towns exposes the static table (CLI and extractor wiring).
func (r *Resolver) Towns() *TownTable { return r.towns }
