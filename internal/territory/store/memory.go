package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/GuyfromMontana/MFC-single-agent/internal/territory/models"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/sentinel"
)

// InMemoryStore is a map-backed routing store for tests and local runs. It
// has no stored-procedure path, so the resolver always falls back to a scan.
type InMemoryStore struct {
	mu          sync.RWMutex
	territories map[uuid.UUID]*models.Territory
	specialists map[uuid.UUID]*models.Specialist
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		territories: make(map[uuid.UUID]*models.Territory),
		specialists: make(map[uuid.UUID]*models.Specialist),
	}
}

// SaveTerritory inserts or replaces a territory.
func (s *InMemoryStore) SaveTerritory(t *models.Territory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	cp.Name = models.CanonicalTerritoryName(cp.Name)
	cp.Counties = append([]string(nil), t.Counties...)
	s.territories[cp.ID] = &cp
}

// SaveSpecialist inserts or replaces a specialist.
func (s *InMemoryStore) SaveSpecialist(sp *models.Specialist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sp
	s.specialists[cp.ID] = &cp
}

func (s *InMemoryStore) FindTerritoryByCounty(_ context.Context, _ string) (*models.Territory, error) {
	return nil, sentinel.ErrUnsupported
}

func (s *InMemoryStore) ListTerritories(_ context.Context) ([]*models.Territory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Territory, 0, len(s.territories))
	for _, t := range s.territories {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) FindActiveSpecialist(_ context.Context, territoryID uuid.UUID) (*models.Specialist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []*models.Specialist
	for _, sp := range s.specialists {
		if sp.TerritoryID == territoryID && sp.Active {
			matches = append(matches, sp)
		}
	}
	if len(matches) == 0 {
		return nil, sentinel.ErrNotFound
	}
	sortSpecialists(matches)
	cp := *matches[0]
	cp.TerritoryName = s.territoryName(territoryID)
	return &cp, nil
}

func (s *InMemoryStore) SearchSpecialists(_ context.Context, name string, limit int) ([]*models.Specialist, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Specialist
	for _, sp := range s.specialists {
		if !sp.Active {
			continue
		}
		if strings.Contains(strings.ToLower(sp.FullName()), needle) {
			cp := *sp
			cp.TerritoryName = s.territoryName(sp.TerritoryID)
			out = append(out, &cp)
		}
	}
	sortSpecialists(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) territoryName(id uuid.UUID) string {
	if t, ok := s.territories[id]; ok {
		return t.Name
	}
	return ""
}

func sortSpecialists(list []*models.Specialist) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].LastName != list[j].LastName {
			return list[i].LastName < list[j].LastName
		}
		return list[i].FirstName < list[j].FirstName
	})
}
