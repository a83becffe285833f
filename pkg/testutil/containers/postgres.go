//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// Schema is the subset of the production database the stores read and write.
// The database is owned elsewhere; this mirrors it for tests only.
const Schema = `
CREATE TABLE IF NOT EXISTS territories (
	id       UUID PRIMARY KEY,
	name     TEXT NOT NULL,
	counties TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS specialists (
	id           UUID PRIMARY KEY,
	first_name   TEXT NOT NULL,
	last_name    TEXT NOT NULL,
	email        TEXT,
	phone        TEXT,
	territory_id UUID NOT NULL REFERENCES territories(id),
	is_active    BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS leads (
	id               UUID PRIMARY KEY,
	first_name       TEXT,
	last_name        TEXT,
	phone            TEXT NOT NULL,
	city             TEXT,
	primary_interest TEXT,
	lead_status      TEXT,
	lead_source      TEXT,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS known_contacts (
	phone          TEXT PRIMARY KEY,
	first_name     TEXT,
	last_name      TEXT,
	company_name   TEXT,
	city           TEXT,
	territory      TEXT,
	status         TEXT,
	lifetime_value NUMERIC,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// CountyFunction installs find_territory_by_county. It is separate from
// Schema so tests can exercise databases that lack it.
const CountyFunction = `
CREATE OR REPLACE FUNCTION find_territory_by_county(county_name TEXT)
RETURNS TABLE (id UUID, name TEXT, counties TEXT[]) AS $$
	SELECT t.id, t.name, t.counties
	FROM territories t
	WHERE EXISTS (
		SELECT 1 FROM unnest(t.counties) c
		WHERE lower(regexp_replace(c, '\s+county$', '', 'i')) = lower(regexp_replace(county_name, '\s+county$', '', 'i'))
	)
	ORDER BY t.name
$$ LANGUAGE sql STABLE;
`

// PostgresContainer wraps a testcontainers Postgres instance.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts Postgres and applies Schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("callrouter"),
		tcpostgres.WithUsername("callrouter"),
		tcpostgres.WithPassword("callrouter"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateTables empties the named tables. Use between tests to ensure
// isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE %s CASCADE", strings.Join(tables, ", ")))
	return err
}

// InstallCountyFunction creates find_territory_by_county.
func (p *PostgresContainer) InstallCountyFunction(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, CountyFunction)
	return err
}

// DropCountyFunction removes find_territory_by_county.
func (p *PostgresContainer) DropCountyFunction(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `DROP FUNCTION IF EXISTS find_territory_by_county(TEXT)`)
	return err
}
