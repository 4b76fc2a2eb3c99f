package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"certifynow/internal/audit"
	id "certifynow/pkg/domain"
)

// Postgres persists audit entries. Each Append is a single INSERT, so the
// per-entry atomicity guarantee comes directly from the database.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Append(ctx context.Context, entry audit.Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	var certID, userID *uuid.UUID
	if entry.CertificateID != nil {
		v := uuid.UUID(*entry.CertificateID)
		certID = &v
	}
	if entry.UserID != nil {
		v := uuid.UUID(*entry.UserID)
		userID = &v
	}

	query := `
		INSERT INTO audit_entries (id, certificate_id, user_id, action, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		certID,
		userID,
		string(entry.Action),
		entry.IPAddress,
		entry.UserAgent,
		details,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

const entryColumns = `id, certificate_id, user_id, action, ip_address, user_agent, details, created_at`

func (s *Postgres) ListByCertificate(ctx context.Context, certID id.CertificateID, limit int) ([]audit.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM audit_entries
		WHERE certificate_id = $1
		ORDER BY seq
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(certID), normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (s *Postgres) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM audit_entries
		ORDER BY seq DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		var (
			entry      audit.Entry
			entryID    uuid.UUID
			certID     *uuid.UUID
			userID     *uuid.UUID
			action     string
			rawDetails []byte
		)
		err := rows.Scan(
			&entryID,
			&certID,
			&userID,
			&action,
			&entry.IPAddress,
			&entry.UserAgent,
			&rawDetails,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		entry.ID = id.EntryID(entryID)
		entry.Action = audit.Action(action)
		if certID != nil {
			v := id.CertificateID(*certID)
			entry.CertificateID = &v
		}
		if userID != nil {
			v := id.UserID(*userID)
			entry.UserID = &v
		}
		if len(rawDetails) > 0 {
			if err := json.Unmarshal(rawDetails, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}
