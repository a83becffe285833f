package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/postgres"
	"github.com/GuyfromMontana/MFC-single-agent/internal/territory/models"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/sentinel"
	strs "github.com/GuyfromMontana/MFC-single-agent/pkg/platform/strings"
)

// PostgresStore reads territories and specialists from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed routing store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const specialistColumns = `s.id, s.first_name, s.last_name, COALESCE(s.email, ''), COALESCE(s.phone, ''), s.territory_id, t.name, s.is_active`

// FindTerritoryByCounty calls the find_territory_by_county stored function.
// A database without the function yields sentinel.ErrUnsupported.
func (s *PostgresStore) FindTerritoryByCounty(ctx context.Context, county string) (*models.Territory, error) {
	query := `SELECT id, name, counties FROM find_territory_by_county($1) LIMIT 1`
	t, err := scanTerritory(s.db.QueryRowContext(ctx, query, county))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		if postgres.IsUndefinedFunction(err) {
			return nil, fmt.Errorf("find territory by county: %w", sentinel.ErrUnsupported)
		}
		return nil, fmt.Errorf("find territory by county: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) ListTerritories(ctx context.Context) ([]*models.Territory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, counties FROM territories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list territories: %w", err)
	}
	defer rows.Close()

	var out []*models.Territory
	for rows.Next() {
		t, err := scanTerritory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan territory: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate territories: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindActiveSpecialist(ctx context.Context, territoryID uuid.UUID) (*models.Specialist, error) {
	query := `
		SELECT ` + specialistColumns + `
		FROM specialists s
		JOIN territories t ON t.id = s.territory_id
		WHERE s.territory_id = $1 AND s.is_active
		ORDER BY s.last_name, s.first_name
		LIMIT 1
	`
	sp, err := scanSpecialist(s.db.QueryRowContext(ctx, query, territoryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find active specialist: %w", err)
	}
	return sp, nil
}

func (s *PostgresStore) SearchSpecialists(ctx context.Context, name string, limit int) ([]*models.Specialist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	query := `
		SELECT ` + specialistColumns + `
		FROM specialists s
		JOIN territories t ON t.id = s.territory_id
		WHERE s.is_active
		  AND (s.first_name || ' ' || s.last_name) ILIKE $1
		ORDER BY s.last_name, s.first_name
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, "%"+escapeLike(name)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search specialists: %w", err)
	}
	defer rows.Close()

	var out []*models.Specialist
	for rows.Next() {
		sp, err := scanSpecialist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan specialist: %w", err)
		}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate specialists: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTerritory(row rowScanner) (*models.Territory, error) {
	var t models.Territory
	var counties []string
	if err := row.Scan(&t.ID, &t.Name, pq.Array(&counties)); err != nil {
		return nil, err
	}
	t.Name = models.CanonicalTerritoryName(t.Name)
	t.Counties = strs.Unique(counties)
	return &t, nil
}

func scanSpecialist(row rowScanner) (*models.Specialist, error) {
	var sp models.Specialist
	var territoryName string
	if err := row.Scan(&sp.ID, &sp.FirstName, &sp.LastName, &sp.Email, &sp.Phone, &sp.TerritoryID, &territoryName, &sp.Active); err != nil {
		return nil, err
	}
	sp.TerritoryName = models.CanonicalTerritoryName(territoryName)
	return &sp, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
