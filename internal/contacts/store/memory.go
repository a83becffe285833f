package store

import (
	"context"
	"sync"

	"github.com/GuyfromMontana/MFC-single-agent/internal/contacts/models"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/domain"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/sentinel"
)

// InMemoryStore is a map-backed registry for tests and local runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	contacts map[domain.PhoneKey]*models.Contact
}

// NewInMemory creates an empty registry.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{contacts: make(map[domain.PhoneKey]*models.Contact)}
}

// Save inserts or replaces a contact keyed by phone.
func (s *InMemoryStore) Save(c *models.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.contacts[c.Phone] = &cp
}

func (s *InMemoryStore) FindByPhone(_ context.Context, phone domain.PhoneKey) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[phone]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}
