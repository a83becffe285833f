//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"github.com/GuyfromMontana/MFC-single-agent/internal/territory/store"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/sentinel"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres   *containers.PostgresContainer
	store      *store.PostgresStore
	bitterroot uuid.UUID
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
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "specialists", "territories"))
	s.Require().NoError(s.postgres.InstallCountyFunction(ctx))

	s.bitterroot = uuid.New()
	hiLine := uuid.New()
	s.exec(`INSERT INTO territories (id, name, counties) VALUES ($1, $2, $3), ($4, $5, $6)`,
		s.bitterroot, "Bitterroot Territory", pq.Array([]string{"Ravalli County", "Missoula County"}),
		hiLine, "Hi-Line", pq.Array([]string{"Hill", "Blaine"}),
	)
	s.exec(`INSERT INTO specialists (id, first_name, last_name, email, territory_id, is_active) VALUES
		($1, 'Isabell', 'Gilleard', 'isabell@example.com', $2, TRUE),
		($3, 'Former', 'Rep', NULL, $4, FALSE)`,
		uuid.New(), s.bitterroot, uuid.New(), hiLine,
	)
}

func (s *PostgresStoreSuite) exec(query string, args ...any) {
	_, err := s.postgres.DB.ExecContext(context.Background(), query, args...)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestFindTerritoryByCounty() {
	t, err := s.store.FindTerritoryByCounty(context.Background(), "ravalli county")
	s.Require().NoError(err)
	s.Equal(s.bitterroot, t.ID)
	s.Equal("Bitterroot", t.Name, "stored suffix is stripped")
	s.ElementsMatch([]string{"Ravalli County", "Missoula County"}, t.Counties)

	_, err = s.store.FindTerritoryByCounty(context.Background(), "Nowhere County")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestMissingFunctionIsUnsupported() {
	s.Require().NoError(s.postgres.DropCountyFunction(context.Background()))

	_, err := s.store.FindTerritoryByCounty(context.Background(), "Ravalli County")
	s.ErrorIs(err, sentinel.ErrUnsupported)
}

func (s *PostgresStoreSuite) TestListTerritories() {
	all, err := s.store.ListTerritories(context.Background())
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("Bitterroot", all[0].Name)
	s.Equal("Hi-Line", all[1].Name)
}

func (s *PostgresStoreSuite) TestFindActiveSpecialist() {
	sp, err := s.store.FindActiveSpecialist(context.Background(), s.bitterroot)
	s.Require().NoError(err)
	s.Equal("Isabell Gilleard", sp.FullName())
	s.Equal("Bitterroot", sp.TerritoryName)
	s.Empty(sp.Phone)

	_, err = s.store.FindActiveSpecialist(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSearchSpecialists() {
	staff, err := s.store.SearchSpecialists(context.Background(), "GILL", 5)
	s.Require().NoError(err)
	s.Require().Len(staff, 1)
	s.Equal("isabell@example.com", staff[0].Email)

	staff, err = s.store.SearchSpecialists(context.Background(), "Former", 5)
	s.Require().NoError(err)
	s.Empty(staff)

	staff, err = s.store.SearchSpecialists(context.Background(), "%", 5)
	s.Require().NoError(err)
	s.Empty(staff, "wildcards are matched literally")
}
