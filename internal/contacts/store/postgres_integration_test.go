//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/GuyfromMontana/MFC-single-agent/internal/contacts/store"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/domain"
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
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "known_contacts"))
	_, err := s.postgres.DB.ExecContext(ctx, `
		INSERT INTO known_contacts (phone, first_name, last_name, company_name, city, territory, status, lifetime_value)
		VALUES ('+14065551234', 'Dave', 'Miller', 'Miller Ranch', 'Hamilton', 'Bitterroot', 'active', 12500.50),
		       ('4065559876', 'Ann', NULL, NULL, NULL, NULL, NULL, NULL)`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestFindByE164() {
	c, err := s.store.FindByPhone(context.Background(), domain.PhoneKey("14065551234"))
	s.Require().NoError(err)
	s.Equal("Dave Miller", c.FullName())
	s.Equal("Miller Ranch", c.CompanyName)
	s.InDelta(12500.50, c.LifetimeValue, 0.001)
	s.Equal(domain.PhoneKey("14065551234"), c.Phone)
}

func (s *PostgresStoreSuite) TestFindByBareDigits() {
	c, err := s.store.FindByPhone(context.Background(), domain.PhoneKey("4065559876"))
	s.Require().NoError(err)
	s.Equal("Ann", c.FullName())
	s.Empty(c.CompanyName)
}

func (s *PostgresStoreSuite) TestNotFound() {
	_, err := s.store.FindByPhone(context.Background(), domain.PhoneKey("14065550000"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}
