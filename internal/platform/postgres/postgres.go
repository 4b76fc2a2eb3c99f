package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open creates a database/sql handle backed by the pgx driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// Migrate applies the schema. Statements are idempotent so restarts are safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS certificates (
		id UUID PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		holder_email TEXT NOT NULL,
		issuer_email TEXT NOT NULL,
		title TEXT NOT NULL,
		institution_name TEXT NOT NULL,
		issue_date TEXT NOT NULL,
		degree TEXT NOT NULL DEFAULT '',
		grade TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		expiry_date DATE,
		fingerprint TEXT NOT NULL,
		fingerprint_scheme TEXT NOT NULL,
		qr_payload TEXT NOT NULL DEFAULT '',
		qr_image BYTEA,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_certificates_fingerprint ON certificates (fingerprint)`,
	`CREATE TABLE IF NOT EXISTS verification_attempts (
		id UUID PRIMARY KEY,
		certificate_id UUID NOT NULL REFERENCES certificates (id),
		requester_ip TEXT NOT NULL,
		requester_user_agent TEXT NOT NULL DEFAULT '',
		requester_email TEXT NOT NULL DEFAULT '',
		requester_organization TEXT NOT NULL DEFAULT '',
		method TEXT NOT NULL,
		result BOOLEAN NOT NULL,
		reason TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		seq BIGSERIAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attempts_certificate ON verification_attempts (certificate_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS audit_entries (
		id UUID PRIMARY KEY,
		certificate_id UUID REFERENCES certificates (id),
		user_id UUID,
		action TEXT NOT NULL,
		ip_address TEXT NOT NULL,
		user_agent TEXT NOT NULL DEFAULT '',
		details JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		seq BIGSERIAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_certificate ON audit_entries (certificate_id, created_at)`,
}
