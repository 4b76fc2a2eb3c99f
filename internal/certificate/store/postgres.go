package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"certifynow/internal/certificate"
	id "certifynow/pkg/domain"
	"certifynow/pkg/platform/sentinel"
)

// Postgres persists certificate records in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const certColumns = `id, code, holder_email, issuer_email, title, institution_name,
	issue_date, degree, grade, status, is_verified, expiry_date,
	fingerprint, fingerprint_scheme, qr_payload, qr_image, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, rec *certificate.Record) error {
	query := `
		INSERT INTO certificates (` + certColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(rec.ID),
		rec.Code,
		rec.HolderEmail,
		rec.IssuerEmail,
		rec.Title,
		rec.InstitutionName,
		rec.IssueDate,
		rec.Degree,
		rec.Grade,
		string(rec.Status),
		rec.IsVerified,
		rec.ExpiryDate,
		rec.Fingerprint,
		rec.FingerprintScheme,
		rec.QRPayload,
		rec.QRImage,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

func (s *Postgres) FindByCode(ctx context.Context, code string) (*certificate.Record, error) {
	query := `SELECT ` + certColumns + ` FROM certificates WHERE code = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, code))
}

func (s *Postgres) FindByFingerprint(ctx context.Context, fp string) (*certificate.Record, error) {
	query := `SELECT ` + certColumns + ` FROM certificates WHERE fingerprint = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, fp))
}

func (s *Postgres) AttachArtifact(ctx context.Context, certID id.CertificateID, payload string, img []byte, updatedAt time.Time) error {
	query := `
		UPDATE certificates
		SET qr_payload = $2, qr_image = $3, updated_at = $4
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(certID), payload, img, updatedAt)
	if err != nil {
		return fmt.Errorf("attach qr artifact: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) UpdateStatus(ctx context.Context, certID id.CertificateID, status certificate.Status, isVerified bool, updatedAt time.Time) error {
	query := `
		UPDATE certificates
		SET status = $2, is_verified = $3, updated_at = $4
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(certID), string(status), isVerified, updatedAt)
	if err != nil {
		return fmt.Errorf("update certificate status: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) scanOne(row *sql.Row) (*certificate.Record, error) {
	var (
		rec    certificate.Record
		recID  uuid.UUID
		status string
		expiry sql.NullTime
		img    []byte
	)
	err := row.Scan(
		&recID,
		&rec.Code,
		&rec.HolderEmail,
		&rec.IssuerEmail,
		&rec.Title,
		&rec.InstitutionName,
		&rec.IssueDate,
		&rec.Degree,
		&rec.Grade,
		&status,
		&rec.IsVerified,
		&expiry,
		&rec.Fingerprint,
		&rec.FingerprintScheme,
		&rec.QRPayload,
		&img,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan certificate: %w", err)
	}

	rec.ID = id.CertificateID(recID)
	rec.Status = certificate.Status(status)
	rec.QRImage = img
	if expiry.Valid {
		rec.ExpiryDate = &expiry.Time
	}
	return &rec, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// isUniqueViolation checks for the Postgres unique_violation SQLSTATE (23505)
// without importing driver types into the store's public surface.
func isUniqueViolation(err error) bool {
	type sqlState interface{ SQLState() string }
	var state sqlState
	if errors.As(err, &state) {
		return state.SQLState() == "23505"
	}
	return false
}
