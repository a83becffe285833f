package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GuyfromMontana/MFC-single-agent/internal/leads/models"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/sentinel"
)

// PostgresStore persists leads in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed lead store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO leads (id, first_name, last_name, phone, city, primary_interest, lead_status, lead_source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		lead.ID, lead.FirstName, lead.LastName, lead.Phone, lead.City, lead.PrimaryInterest,
		lead.Status, lead.Source, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindLatestByPhone(ctx context.Context, phone string) (*models.Lead, error) {
	query := `
		SELECT id, COALESCE(first_name, ''), COALESCE(last_name, ''), phone, COALESCE(city, ''),
		       COALESCE(primary_interest, ''), COALESCE(lead_status, ''), COALESCE(lead_source, ''),
		       created_at, updated_at
		FROM leads
		WHERE phone = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var l models.Lead
	err := s.db.QueryRowContext(ctx, query, phone).Scan(
		&l.ID, &l.FirstName, &l.LastName, &l.Phone, &l.City,
		&l.PrimaryInterest, &l.Status, &l.Source, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find lead by phone: %w", err)
	}
	return &l, nil
}

// UpdateName sets the name only while the stored first name is a
// placeholder; otherwise it returns sentinel.ErrConflict. The guard lives in
// the WHERE clause so concurrent writers cannot overwrite a real name.
func (s *PostgresStore) UpdateName(ctx context.Context, id uuid.UUID, first, last string, now time.Time) error {
	query := `
		UPDATE leads SET first_name = $2, last_name = $3, updated_at = $4
		WHERE id = $1
		  AND (first_name IS NULL OR lower(btrim(first_name)) IN ('', 'unknown', 'caller'))
	`
	res, err := s.db.ExecContext(ctx, query, id, first, last, now)
	if err != nil {
		return fmt.Errorf("update lead name: %w", err)
	}
	return s.guarded(ctx, res, id)
}

// UpdateCity fills the city only when it is empty.
func (s *PostgresStore) UpdateCity(ctx context.Context, id uuid.UUID, city string, now time.Time) error {
	query := `
		UPDATE leads SET city = $2, updated_at = $3
		WHERE id = $1 AND COALESCE(btrim(city), '') = ''
	`
	res, err := s.db.ExecContext(ctx, query, id, city, now)
	if err != nil {
		return fmt.Errorf("update lead city: %w", err)
	}
	return s.guarded(ctx, res, id)
}

// guarded maps a zero-row guarded update to ErrNotFound or ErrConflict.
func (s *PostgresStore) guarded(ctx context.Context, res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check lead exists: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}
