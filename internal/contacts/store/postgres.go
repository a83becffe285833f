package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/GuyfromMontana/MFC-single-agent/internal/contacts/models"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/domain"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/sentinel"
)

// PostgresStore reads the known_contacts registry.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registry.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// FindByPhone matches either the E.164 or the bare-digit form of the number,
// since the registry is maintained by hand.
func (s *PostgresStore) FindByPhone(ctx context.Context, phone domain.PhoneKey) (*models.Contact, error) {
	query := `
		SELECT phone, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(company_name, ''),
		       COALESCE(city, ''), COALESCE(territory, ''), COALESCE(status, ''), COALESCE(lifetime_value, 0)
		FROM known_contacts
		WHERE phone = $1 OR phone = $2
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var c models.Contact
	var rawPhone string
	err := s.db.QueryRowContext(ctx, query, phone.E164(), phone.String()).Scan(
		&rawPhone, &c.FirstName, &c.LastName, &c.CompanyName, &c.City, &c.Territory, &c.Status, &c.LifetimeValue,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find known contact: %w", err)
	}
	c.Phone = phone
	return &c, nil
}
