// Package verification answers the one question the whole system exists for:
// is this certificate authentic and currently valid? Authenticity is an
// unconditional fingerprint recomputation against the stored value; validity
// is a separate business check layered on top. Every request is recorded,
// including lookups that resolve to nothing.
package verification

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"certifynow/internal/audit"
	"certifynow/internal/certificate"
	"certifynow/internal/certificate/fingerprint"
	"certifynow/internal/platform/redis"
	"certifynow/internal/verification/metrics"
	id "certifynow/pkg/domain"
	dErrors "certifynow/pkg/domain-errors"
	"certifynow/pkg/platform/sentinel"
	"certifynow/pkg/requestcontext"
)

const statsCacheKey = "verification:stats:v1"

// CertificateSource is the read-only slice of the certificate store the
// verifier needs. Verification never writes certificate state.
type CertificateSource interface {
	FindByCode(ctx context.Context, code string) (*certificate.Record, error)
	FindByFingerprint(ctx context.Context, fp string) (*certificate.Record, error)
}

// Service runs the verification flow and the read models over its own logs.
type Service struct {
	certs    CertificateSource
	attempts AttemptStore
	audits   *audit.Recorder
	engine   *fingerprint.Engine
	cache    *redis.Client
	statsTTL time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(
	certs CertificateSource,
	attempts AttemptStore,
	audits *audit.Recorder,
	engine *fingerprint.Engine,
	cache *redis.Client,
	statsTTL time.Duration,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		certs:    certs,
		attempts: attempts,
		audits:   audits,
		engine:   engine,
		cache:    cache,
		statsTTL: statsTTL,
		metrics:  m,
		logger:   logger,
	}
}

// Verify resolves the identifier, checks integrity and validity, and records
// the attempt. It always returns a typed outcome: infrastructure errors
// surface as ReasonFailed, never as a panic or a bare error to the caller.
//
// Identifier resolution: a 64-char hex string is treated as a fingerprint,
// anything else as a certificate code. A miss logs one audit entry with a nil
// certificate reference and writes no attempt row.
func (s *Service) Verify(ctx context.Context, identifier string, method Method, meta RequesterMeta) Outcome {
	started := time.Now()
	now := requestcontext.Now(ctx)
	meta = s.fillMeta(ctx, meta)

	rec, err := s.resolve(ctx, identifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordMiss(ctx, identifier, method, meta)
			return s.finish(Outcome{Reason: ReasonNotFound, CheckedAt: now}, method, started)
		}
		s.logger.ErrorContext(ctx, "certificate lookup failed",
			"identifier", identifier,
			"error", err,
		)
		return s.finish(Outcome{Reason: ReasonFailed, CheckedAt: now}, method, started)
	}

	outcome := s.check(ctx, rec, now)

	attemptID, err := s.record(ctx, identifier, rec, method, meta, outcome, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "verification attempt write failed",
			"certificate_code", rec.Code,
			"error", err,
		)
		outcome = Outcome{Reason: ReasonFailed, Certificate: rec, CheckedAt: now}
	} else {
		outcome.AttemptID = attemptID
	}
	return s.finish(outcome, method, started)
}

// check recomputes the fingerprint and, only if it matches, evaluates
// business validity. The recomputation is unconditional: a stored fingerprint
// is never trusted on its own.
func (s *Service) check(ctx context.Context, rec *certificate.Record, now time.Time) Outcome {
	recomputed := s.engine.Derive(rec.Fields())
	if recomputed != rec.Fingerprint {
		s.logger.WarnContext(ctx, "fingerprint mismatch, possible tampering",
			"certificate_code", rec.Code,
		)
		return Outcome{Reason: ReasonHashMismatch, Certificate: rec, CheckedAt: now}
	}

	switch {
	case rec.Status == certificate.StatusRevoked:
		return Outcome{Reason: ReasonRevoked, Certificate: rec, CheckedAt: now}
	case rec.ExpiredAt(now):
		return Outcome{Reason: ReasonExpired, Certificate: rec, CheckedAt: now}
	case rec.Status != certificate.StatusIssued || !rec.IsVerified:
		return Outcome{Reason: ReasonCertificateInvalid, Certificate: rec, CheckedAt: now}
	}

	return Outcome{IsValid: true, Reason: ReasonValid, Certificate: rec, CheckedAt: now}
}

// record writes the attempt row and the audit entry for a resolved
// certificate. The attempt write is the one that must not be lost; the audit
// append is best-effort and only logged on failure.
func (s *Service) record(ctx context.Context, identifier string, rec *certificate.Record, method Method, meta RequesterMeta, outcome Outcome, now time.Time) (id.AttemptID, error) {
	attempt := Attempt{
		ID:            id.NewAttemptID(),
		CertificateID: rec.ID,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		Email:         meta.Email,
		Organization:  meta.Organization,
		Method:        method,
		Result:        outcome.IsValid,
		CreatedAt:     now,
	}
	if !outcome.IsValid {
		attempt.Reason = outcome.Reason
	}
	if err := s.attempts.Append(ctx, attempt); err != nil {
		return id.AttemptID{}, dErrors.Wrap(dErrors.CodeInternal, "append verification attempt", err)
	}

	certID := rec.ID
	if err := s.audits.Record(ctx, audit.Entry{
		CertificateID: &certID,
		Action:        audit.ActionVerify,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		Details: map[string]any{
			"identifier": identifier,
			"method":     string(method),
			"result":     outcome.IsValid,
			"reason":     string(outcome.Reason),
		},
	}); err != nil {
		s.logger.ErrorContext(ctx, "audit append failed",
			"certificate_code", rec.Code,
			"error", err,
		)
	}
	return attempt.ID, nil
}

// recordMiss logs a failed lookup. No attempt row is written: attempts
// reference a concrete certificate, and there is none.
func (s *Service) recordMiss(ctx context.Context, identifier string, method Method, meta RequesterMeta) {
	s.logger.InfoContext(ctx, "verification lookup miss", "identifier", identifier)
	if err := s.audits.Record(ctx, audit.Entry{
		Action:    audit.ActionVerify,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Details: map[string]any{
			"method":     string(method),
			"result":     false,
			"reason":     string(ReasonNotFound),
			"identifier": identifier,
		},
	}); err != nil {
		s.logger.ErrorContext(ctx, "audit append failed", "identifier", identifier, "error", err)
	}
}

func (s *Service) finish(outcome Outcome, method Method, started time.Time) Outcome {
	s.metrics.ObserveOutcome(string(outcome.Reason), string(method))
	s.metrics.ObserveDuration(time.Since(started))
	return outcome
}

func (s *Service) resolve(ctx context.Context, identifier string) (*certificate.Record, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, sentinel.ErrNotFound
	}
	if looksLikeFingerprint(identifier) {
		return s.certs.FindByFingerprint(ctx, strings.ToLower(identifier))
	}
	return s.certs.FindByCode(ctx, identifier)
}

func (s *Service) fillMeta(ctx context.Context, meta RequesterMeta) RequesterMeta {
	if meta.IPAddress == "" {
		meta.IPAddress = requestcontext.ClientIP(ctx)
	}
	if meta.UserAgent == "" {
		meta.UserAgent = requestcontext.UserAgent(ctx)
	}
	return meta
}

// History lists attempts matching the filter.
func (s *Service) History(ctx context.Context, filter Filter) ([]Attempt, error) {
	attempts, err := s.attempts.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list verification attempts", err)
	}
	return attempts, nil
}

// Logs lists recent audit entries, lookup misses included.
func (s *Service) Logs(ctx context.Context, limit int) ([]audit.Entry, error) {
	return s.audits.ListRecent(ctx, limit)
}

// Stats aggregates the attempt log, cached in redis for a short TTL when a
// cache is configured. A cache failure degrades to a direct count.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if s.cache != nil {
		payload, err := s.cache.Get(ctx, statsCacheKey).Bytes()
		if err == nil {
			var cached Stats
			if jsonErr := json.Unmarshal(payload, &cached); jsonErr == nil {
				return cached, nil
			}
		} else if !errors.Is(err, goredis.Nil) {
			s.logger.WarnContext(ctx, "stats cache read failed", "error", err)
		}
	}

	total, successful, err := s.attempts.Counts(ctx)
	if err != nil {
		return Stats{}, dErrors.Wrap(dErrors.CodeInternal, "count verification attempts", err)
	}
	stats := Stats{
		Total:      total,
		Successful: successful,
		Failed:     total - successful,
	}
	if total > 0 {
		stats.SuccessRate = float64(successful) / float64(total) * 100
	}

	if s.cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, payload, s.statsTTL).Err(); err != nil {
				s.logger.WarnContext(ctx, "stats cache write failed", "error", err)
			}
		}
	}
	return stats, nil
}

// looksLikeFingerprint reports whether the identifier has the shape of a
// sha256 hex digest. Certificate codes are shorter and contain a dash, so the
// two namespaces cannot collide.
func looksLikeFingerprint(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
