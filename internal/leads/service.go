// Package leads owns the CRM lead records written during and after calls.
package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GuyfromMontana/MFC-single-agent/internal/facts"
	"github.com/GuyfromMontana/MFC-single-agent/internal/leads/models"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/domain"
	dErrors "github.com/GuyfromMontana/MFC-single-agent/pkg/domain-errors"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/sentinel"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/requestcontext"
)

// Store persists lead records.
type Store interface {
	Create(ctx context.Context, lead *models.Lead) error
	FindLatestByPhone(ctx context.Context, phone string) (*models.Lead, error)
	UpdateName(ctx context.Context, id uuid.UUID, first, last string, now time.Time) error
	UpdateCity(ctx context.Context, id uuid.UUID, city string, now time.Time) error
}

// Outcome describes what Reconcile did.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service applies the lead update rules on top of a Store.
type Service struct {
	store  Store
	logger *slog.Logger
}

// New constructs a lead service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Latest returns the most recent lead for a caller.
func (s *Service) Latest(ctx context.Context, phone domain.PhoneKey) (*models.Lead, error) {
	return s.store.FindLatestByPhone(ctx, phone.E164())
}

// Reconcile mirrors facts learned on a call into the caller's latest lead.
// A name is written only if it is valid and the stored one is a placeholder;
// a city only fills an empty one. With no lead on file, one is created when a
// valid name is known.
func (s *Service) Reconcile(ctx context.Context, phone domain.PhoneKey, name, city string) (Outcome, error) {
	if !facts.IsValidName(name) {
		name = ""
	}
	city = strings.TrimSpace(city)
	if name == "" && city == "" {
		return OutcomeUnchanged, nil
	}
	now := requestcontext.Now(ctx)

	existing, err := s.Latest(ctx, phone)
	if errors.Is(err, sentinel.ErrNotFound) {
		if name == "" {
			return OutcomeUnchanged, nil
		}
		first, last := models.SplitName(name)
		lead := &models.Lead{
			ID:        uuid.New(),
			FirstName: first,
			LastName:  last,
			Phone:     phone.E164(),
			City:      city,
			Status:    models.StatusNew,
			Source:    models.SourceVoiceCall,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.store.Create(ctx, lead); err != nil {
			return OutcomeUnchanged, err
		}
		s.logger.InfoContext(ctx, "lead created from call",
			"call_id", requestcontext.CallID(ctx),
			"lead_id", lead.ID,
		)
		return OutcomeCreated, nil
	}
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("load latest lead: %w", err)
	}

	outcome := OutcomeUnchanged
	if name != "" {
		first, last := models.SplitName(name)
		switch err := s.store.UpdateName(ctx, existing.ID, first, last, now); {
		case err == nil:
			outcome = OutcomeUpdated
		case errors.Is(err, sentinel.ErrConflict):
		default:
			return outcome, err
		}
	}
	if city != "" {
		switch err := s.store.UpdateCity(ctx, existing.ID, city, now); {
		case err == nil:
			outcome = OutcomeUpdated
		case errors.Is(err, sentinel.ErrConflict):
		default:
			return outcome, err
		}
	}
	return outcome, nil
}

// CaptureRequest is an explicit lead capture by the agent during a call.
type CaptureRequest struct {
	Phone    domain.PhoneKey
	Name     string
	City     string
	Interest string
}

// Capture records a new lead. An unusable name is stored as "Unknown" so a
// later call can still fill it in.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (*models.Lead, error) {
	if req.Phone.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "phone is required")
	}
	name := strings.TrimSpace(req.Name)
	if !facts.IsValidName(name) {
		name = "Unknown"
	}
	first, last := models.SplitName(name)
	now := requestcontext.Now(ctx)
	lead := &models.Lead{
		ID:              uuid.New(),
		FirstName:       first,
		LastName:        last,
		Phone:           req.Phone.E164(),
		City:            strings.TrimSpace(req.City),
		PrimaryInterest: strings.TrimSpace(req.Interest),
		Status:          models.StatusNew,
		Source:          models.SourceAgentCapture,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("capture lead: %w", err)
	}
	return lead, nil
}
