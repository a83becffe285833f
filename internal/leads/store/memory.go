package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GuyfromMontana/MFC-single-agent/internal/leads/models"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/sentinel"
)

// InMemoryStore keeps leads in insertion order for tests and local runs.
type InMemoryStore struct {
	mu    sync.RWMutex
	leads []*models.Lead
}

// NewInMemory creates an empty lead store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Create(_ context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *lead
	s.leads = append(s.leads, &cp)
	return nil
}

func (s *InMemoryStore) FindLatestByPhone(_ context.Context, phone string) (*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Lead
	for _, l := range s.leads {
		if l.Phone != phone {
			continue
		}
		if latest == nil || !l.CreatedAt.Before(latest.CreatedAt) {
			latest = l
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *InMemoryStore) UpdateName(_ context.Context, id uuid.UUID, first, last string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.find(id)
	if err != nil {
		return err
	}
	if !isPlaceholder(l.FirstName) {
		return sentinel.ErrConflict
	}
	l.FirstName, l.LastName, l.UpdatedAt = first, last, now
	return nil
}

func (s *InMemoryStore) UpdateCity(_ context.Context, id uuid.UUID, city string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.find(id)
	if err != nil {
		return err
	}
	if strings.TrimSpace(l.City) != "" {
		return sentinel.ErrConflict
	}
	l.City, l.UpdatedAt = city, now
	return nil
}

// All returns a copy of every lead (tests).
func (s *InMemoryStore) All() []models.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		out = append(out, *l)
	}
	return out
}

func (s *InMemoryStore) find(id uuid.UUID) (*models.Lead, error) {
	for _, l := range s.leads {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func isPlaceholder(first string) bool {
	switch strings.ToLower(strings.TrimSpace(first)) {
	case "", "unknown", "caller":
		return true
	}
	return false
}
