// Package postgres opens the relational store used for leads, contacts and
// territory routing.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/config"
)

// DriverName is the database/sql driver registered by pgx.
const DriverName = "pgx"

// Open connects and pings the database with the configured pool limits.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(DriverName, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// SQLSTATE codes the stores branch on.
const (
	codeUndefinedFunction = "42883"
	codeUniqueViolation   = "23505"
)

// IsUndefinedFunction reports whether err is Postgres rejecting a call to a
// function that does not exist.
func IsUndefinedFunction(err error) bool {
	return hasCode(err, codeUndefinedFunction)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
