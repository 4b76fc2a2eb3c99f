package certificate_test

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certifynow/internal/certificate"
	"certifynow/internal/certificate/fingerprint"
	"certifynow/internal/certificate/qr"
	"certifynow/internal/certificate/store"
	dErrors "certifynow/pkg/domain-errors"
	"certifynow/pkg/platform/sentinel"
	"certifynow/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	service *certificate.Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.service = certificate.NewService(
		s.store,
		fingerprint.New(),
		qr.New("https://certifynow.uz/verify"),
		nil, // metrics are nil-safe
		slog.New(slog.DiscardHandler),
	)
	s.ctx = context.Background()
}

func (s *ServiceSuite) issueRequest() certificate.IssueRequest {
	return certificate.IssueRequest{
		HolderEmail:     "a@x.uz",
		IssuerEmail:     "b@y.uz",
		Title:           "Diploma",
		InstitutionName: "TDTU",
		IssueDate:       "2024-01-01",
		Degree:          "BSc",
		Grade:           "A",
	}
}

func (s *ServiceSuite) TestIssue() {
	s.Run("sets fingerprint and issued status", func() {
		rec, err := s.service.Issue(s.ctx, s.issueRequest())
		s.Require().NoError(err)

		s.True(strings.HasPrefix(rec.Code, "CERT-"))
		s.Len(rec.Code, len("CERT-")+8)
		s.Equal(certificate.StatusIssued, rec.Status)
		s.Equal(fingerprint.Scheme, rec.FingerprintScheme)
		s.Equal(fingerprint.New().Derive(rec.Fields()), rec.Fingerprint)
		s.False(rec.HasArtifact(), "artifact attaches in a separate phase")
	})

	s.Run("rejects missing required fields", func() {
		req := s.issueRequest()
		req.HolderEmail = ""
		_, err := s.service.Issue(s.ctx, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects malformed issue date", func() {
		req := s.issueRequest()
		req.IssueDate = "01/01/2024"
		_, err := s.service.Issue(s.ctx, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("optional fields may be empty", func() {
		req := s.issueRequest()
		req.Degree = ""
		req.Grade = ""
		rec, err := s.service.Issue(s.ctx, req)
		s.Require().NoError(err)
		s.NotEmpty(rec.Fingerprint)
	})
}

func (s *ServiceSuite) TestAttachQRArtifact() {
	rec, err := s.service.Issue(s.ctx, s.issueRequest())
	s.Require().NoError(err)

	s.Run("attaches payload embedding the fingerprint", func() {
		attached, err := s.service.AttachQRArtifact(s.ctx, rec)
		s.Require().NoError(err)
		s.True(attached.HasArtifact())

		parsed, err := url.Parse(attached.QRPayload)
		s.Require().NoError(err)
		s.Equal(rec.Fingerprint, parsed.Query().Get("hash"))
		s.NotEmpty(attached.QRImage)

		s.Equal(rec.Fingerprint, attached.Fingerprint, "attachment must not rehash")
	})

	s.Run("regeneration is a no-op when artifact exists", func() {
		attached, err := s.service.AttachQRArtifact(s.ctx, rec)
		s.Require().NoError(err)

		again, err := s.service.AttachQRArtifact(s.ctx, attached)
		s.Require().NoError(err)
		s.Equal(attached.QRPayload, again.QRPayload)
	})

	s.Run("record without fingerprint is rejected", func() {
		_, err := s.service.AttachQRArtifact(s.ctx, &certificate.Record{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *ServiceSuite) TestOnCertificateIssued() {
	rec, err := s.service.Issue(s.ctx, s.issueRequest())
	s.Require().NoError(err)

	hooked := s.service.OnCertificateIssued(s.ctx, rec)
	s.True(hooked.HasArtifact())

	stored, err := s.store.FindByCode(s.ctx, rec.Code)
	s.Require().NoError(err)
	s.True(stored.HasArtifact())
}

func (s *ServiceSuite) TestRevoke() {
	rec, err := s.service.Issue(s.ctx, s.issueRequest())
	s.Require().NoError(err)

	revoked, err := s.service.Revoke(s.ctx, rec.Code)
	s.Require().NoError(err)
	s.Equal(certificate.StatusRevoked, revoked.Status)

	s.Run("revoked is terminal", func() {
		_, err := s.service.Revoke(s.ctx, rec.Code)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *ServiceSuite) TestSetVerified() {
	rec, err := s.service.Issue(s.ctx, s.issueRequest())
	s.Require().NoError(err)

	verified, err := s.service.SetVerified(s.ctx, rec.Code)
	s.Require().NoError(err)
	s.True(verified.IsVerified)
	s.Equal(certificate.StatusIssued, verified.Status, "flag is independent of lifecycle status")

	s.Run("idempotent", func() {
		again, err := s.service.SetVerified(s.ctx, rec.Code)
		s.Require().NoError(err)
		s.True(again.IsVerified)
	})

	s.Run("revoked certificate cannot be marked verified", func() {
		other, err := s.service.Issue(s.ctx, s.issueRequest())
		s.Require().NoError(err)
		_, err = s.service.Revoke(s.ctx, other.Code)
		s.Require().NoError(err)

		_, err = s.service.SetVerified(s.ctx, other.Code)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *ServiceSuite) TestRequestScopedTime() {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, fixed)

	rec, err := s.service.Issue(ctx, s.issueRequest())
	s.Require().NoError(err)
	s.Equal(fixed, rec.CreatedAt)
	s.Equal(fixed, rec.UpdatedAt)
}
