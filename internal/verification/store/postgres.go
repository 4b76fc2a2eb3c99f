package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"certifynow/internal/verification"
	id "certifynow/pkg/domain"
)

// Postgres persists verification attempts. Each Append is a single INSERT, so
// the per-attempt atomicity guarantee comes directly from the database.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Append(ctx context.Context, attempt verification.Attempt) error {
	query := `
		INSERT INTO verification_attempts
			(id, certificate_id, requester_ip, requester_user_agent, requester_email, requester_organization, method, result, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(attempt.ID),
		uuid.UUID(attempt.CertificateID),
		attempt.IPAddress,
		attempt.UserAgent,
		attempt.Email,
		attempt.Organization,
		string(attempt.Method),
		attempt.Result,
		string(attempt.Reason),
		attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification attempt: %w", err)
	}
	return nil
}

const attemptColumns = `id, certificate_id, requester_ip, requester_user_agent, requester_email, requester_organization, method, result, reason, created_at`

func (s *Postgres) List(ctx context.Context, filter verification.Filter) ([]verification.Attempt, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.CertificateID != nil {
		conds = append(conds, "certificate_id = "+arg(uuid.UUID(*filter.CertificateID)))
	}
	if filter.Method != "" {
		conds = append(conds, "method = "+arg(string(filter.Method)))
	}
	if filter.Result != nil {
		conds = append(conds, "result = "+arg(*filter.Result))
	}
	if filter.From != nil {
		conds = append(conds, "created_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, "created_at <= "+arg(*filter.To))
	}

	query := `SELECT ` + attemptColumns + ` FROM verification_attempts`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY seq LIMIT ` + arg(normalizeLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query verification attempts: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

func (s *Postgres) Counts(ctx context.Context) (total, successful int64, err error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE result)
		FROM verification_attempts
	`
	if err := s.db.QueryRowContext(ctx, query).Scan(&total, &successful); err != nil {
		return 0, 0, fmt.Errorf("count verification attempts: %w", err)
	}
	return total, successful, nil
}

func scanAttempts(rows *sql.Rows) ([]verification.Attempt, error) {
	var attempts []verification.Attempt
	for rows.Next() {
		var (
			attempt   verification.Attempt
			attemptID uuid.UUID
			certID    uuid.UUID
			method    string
			reason    string
		)
		err := rows.Scan(
			&attemptID,
			&certID,
			&attempt.IPAddress,
			&attempt.UserAgent,
			&attempt.Email,
			&attempt.Organization,
			&method,
			&attempt.Result,
			&reason,
			&attempt.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan verification attempt: %w", err)
		}

		attempt.ID = id.AttemptID(attemptID)
		attempt.CertificateID = id.CertificateID(certID)
		attempt.Method = verification.Method(method)
		attempt.Reason = verification.Reason(reason)
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification attempts: %w", err)
	}
	return attempts, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
