package certificate

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"certifynow/internal/certificate/fingerprint"
	"certifynow/internal/certificate/metrics"
	"certifynow/internal/certificate/qr"
	id "certifynow/pkg/domain"
	dErrors "certifynow/pkg/domain-errors"
	"certifynow/pkg/platform/sentinel"
	"certifynow/pkg/requestcontext"
)

// IssueRequest carries the content fields for a new certificate. Degree,
// Grade, and ExpiryDate are optional; everything else is required.
type IssueRequest struct {
	HolderEmail     string
	IssuerEmail     string
	Title           string
	InstitutionName string
	IssueDate       string
	Degree          string
	Grade           string
	ExpiryDate      *time.Time
}

// Service owns the explicit two-phase lifecycle: Issue creates the record
// with its fingerprint, AttachQRArtifact binds the scannable artifact. The
// phases are separate calls so neither happens as a hidden side effect of
// the other.
type Service struct {
	store   Store
	engine  *fingerprint.Engine
	qr      *qr.Generator
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(store Store, engine *fingerprint.Engine, generator *qr.Generator, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		engine:  engine,
		qr:      generator,
		metrics: m,
		logger:  logger,
	}
}

// Issue creates a certificate with its fingerprint computed from the content
// fields. The fingerprint is set exactly once here; nothing recomputes it on
// later writes.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*Record, error) {
	if err := validateIssueRequest(req); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	rec := &Record{
		ID:                id.NewCertificateID(),
		Code:              newCode(),
		HolderEmail:       req.HolderEmail,
		IssuerEmail:       req.IssuerEmail,
		Title:             req.Title,
		InstitutionName:   req.InstitutionName,
		IssueDate:         req.IssueDate,
		Degree:            req.Degree,
		Grade:             req.Grade,
		Status:            StatusIssued,
		ExpiryDate:        req.ExpiryDate,
		FingerprintScheme: fingerprint.Scheme,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	rec.Fingerprint = s.engine.Derive(rec.Fields())

	if err := s.store.Create(ctx, rec); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "persist certificate", err)
	}

	s.metrics.IncrementIssued()
	s.logger.InfoContext(ctx, "certificate issued",
		"certificate_code", rec.Code,
		"institution", rec.InstitutionName,
	)
	return rec, nil
}

// OnCertificateIssued is the lifecycle hook invoked once after a record is
// durably created with its fingerprint populated. Artifact failure is logged
// but does not fail issuance; the artifact can be attached on a later call.
func (s *Service) OnCertificateIssued(ctx context.Context, rec *Record) *Record {
	attached, err := s.AttachQRArtifact(ctx, rec)
	if err != nil {
		s.logger.ErrorContext(ctx, "qr artifact generation failed",
			"certificate_code", rec.Code,
			"error", err,
		)
		return rec
	}
	return attached
}

// AttachQRArtifact generates and persists the QR artifact for a record.
// Generate-only-if-absent: a record that already carries an artifact is
// returned unchanged. The write never touches content fields, so it cannot
// retrigger fingerprint derivation.
func (s *Service) AttachQRArtifact(ctx context.Context, rec *Record) (*Record, error) {
	if rec.Fingerprint == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "record has no fingerprint")
	}
	if rec.HasArtifact() {
		return rec, nil
	}

	artifact, err := s.qr.Generate(rec.Fingerprint)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "generate qr artifact", err)
	}

	now := requestcontext.Now(ctx)
	if err := s.store.AttachArtifact(ctx, rec.ID, artifact.Payload, artifact.PNG, now); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "persist qr artifact", err)
	}

	s.metrics.IncrementQRGenerated()

	updated := *rec
	updated.QRPayload = artifact.Payload
	updated.QRImage = artifact.PNG
	updated.UpdatedAt = now
	return &updated, nil
}

// GetByCode loads a certificate for display.
func (s *Service) GetByCode(ctx context.Context, code string) (*Record, error) {
	rec, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Revoke transitions a certificate to revoked. Revoked is terminal.
func (s *Service) Revoke(ctx context.Context, code string) (*Record, error) {
	rec, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !CanTransition(rec.Status, StatusRevoked) {
		return nil, dErrors.Wrap(dErrors.CodeInvariantViolation, "certificate cannot be revoked from status "+string(rec.Status), sentinel.ErrInvalidState)
	}

	now := requestcontext.Now(ctx)
	if err := s.store.UpdateStatus(ctx, rec.ID, StatusRevoked, rec.IsVerified, now); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "persist revocation", err)
	}

	s.metrics.IncrementRevoked()
	s.logger.InfoContext(ctx, "certificate revoked", "certificate_code", rec.Code)

	updated := *rec
	updated.Status = StatusRevoked
	updated.UpdatedAt = now
	return &updated, nil
}

// SetVerified marks the certificate as verified by an authority. The flag is
// independent of lifecycle status: the record stays issued so it remains
// publicly verifiable.
func (s *Service) SetVerified(ctx context.Context, code string) (*Record, error) {
	rec, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if rec.Status == StatusRevoked {
		return nil, dErrors.Wrap(dErrors.CodeInvariantViolation, "revoked certificate cannot be marked verified", sentinel.ErrInvalidState)
	}
	if rec.IsVerified {
		return rec, nil
	}

	now := requestcontext.Now(ctx)
	if err := s.store.UpdateStatus(ctx, rec.ID, rec.Status, true, now); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "persist verified flag", err)
	}

	updated := *rec
	updated.IsVerified = true
	updated.UpdatedAt = now
	return &updated, nil
}

func validateIssueRequest(req IssueRequest) error {
	missing := func(field string) error {
		return dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	switch {
	case strings.TrimSpace(req.HolderEmail) == "":
		return missing("holder_email")
	case strings.TrimSpace(req.IssuerEmail) == "":
		return missing("issuer_email")
	case strings.TrimSpace(req.Title) == "":
		return missing("title")
	case strings.TrimSpace(req.InstitutionName) == "":
		return missing("institution_name")
	case strings.TrimSpace(req.IssueDate) == "":
		return missing("issue_date")
	}
	if _, err := time.Parse("2006-01-02", req.IssueDate); err != nil {
		return dErrors.New(dErrors.CodeValidation, "issue_date must be an ISO date (YYYY-MM-DD)")
	}
	return nil
}

// newCode builds the human-readable certificate code, e.g. CERT-4F2A91C3.
func newCode() string {
	return "CERT-" + strings.ToUpper(uuid.NewString()[:8])
}
