//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/GuyfromMontana/MFC-single-agent/internal/leads/models"
	"github.com/GuyfromMontana/MFC-single-agent/internal/leads/store"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/sentinel"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "leads"))
}

func (s *PostgresStoreSuite) newLead(first, city string, createdAt time.Time) *models.Lead {
	l := &models.Lead{
		ID: uuid.New(), FirstName: first, Phone: "+14065551234", City: city,
		Status: models.StatusNew, Source: models.SourceVoiceCall,
		CreatedAt: createdAt, UpdatedAt: createdAt,
	}
	s.Require().NoError(s.store.Create(context.Background(), l))
	return l
}

func (s *PostgresStoreSuite) TestFindLatestByPhone() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	s.newLead("Old", "", now.Add(-time.Hour))
	latest := s.newLead("New", "Darby", now)

	got, err := s.store.FindLatestByPhone(context.Background(), "+14065551234")
	s.Require().NoError(err)
	s.Equal(latest.ID, got.ID)
	s.Equal("Darby", got.City)
	s.True(now.Equal(got.CreatedAt))

	_, err = s.store.FindLatestByPhone(context.Background(), "+14065550000")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateNameOnlyReplacesPlaceholder() {
	ctx := context.Background()
	now := time.Now().UTC()
	placeholder := s.newLead("Unknown", "", now)
	real := s.newLead("Dave", "", now)

	s.Require().NoError(s.store.UpdateName(ctx, placeholder.ID, "Guy", "Hanson", now))
	s.ErrorIs(s.store.UpdateName(ctx, real.ID, "Guy", "Hanson", now), sentinel.ErrConflict)
	s.ErrorIs(s.store.UpdateName(ctx, uuid.New(), "Guy", "Hanson", now), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateCityOnlyFillsEmpty() {
	ctx := context.Background()
	now := time.Now().UTC()
	empty := s.newLead("Dave", "", now)
	set := s.newLead("Dave", "Hamilton", now)

	s.Require().NoError(s.store.UpdateCity(ctx, empty.ID, "Darby", now))
	s.ErrorIs(s.store.UpdateCity(ctx, set.ID, "Darby", now), sentinel.ErrConflict)
}

// TestConcurrentNameUpdates verifies the guarded update lets exactly one
// writer replace a placeholder name.
func (s *PostgresStoreSuite) TestConcurrentNameUpdates() {
	ctx := context.Background()
	lead := s.newLead("caller", "", time.Now().UTC())
	const writers = 20

	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.UpdateName(ctx, lead.ID, "Writer", string(rune('A'+i)), time.Now().UTC())
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(writers-1), conflicts.Load())
}
