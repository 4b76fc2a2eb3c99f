package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"certifynow/internal/audit"
	auditstore "certifynow/internal/audit/store"
	"certifynow/internal/certificate"
	"certifynow/internal/certificate/fingerprint"
	certstore "certifynow/internal/certificate/store"
	"certifynow/internal/verification"
	vstore "certifynow/internal/verification/store"
	id "certifynow/pkg/domain"
)

type HandlerSuite struct {
	suite.Suite
	certs    *certstore.InMemory
	attempts *vstore.InMemory
	engine   *fingerprint.Engine
	router   chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.certs = certstore.NewInMemory()
	s.attempts = vstore.NewInMemory()
	s.engine = fingerprint.New()

	logger := slog.New(slog.DiscardHandler)
	service := verification.NewService(
		s.certs,
		s.attempts,
		audit.NewRecorder(auditstore.NewInMemory()),
		s.engine,
		nil,
		time.Minute,
		nil,
		logger,
	)

	s.router = chi.NewRouter()
	NewHandler(service, logger).Register(s.router)
}

func (s *HandlerSuite) issue(code string) *certificate.Record {
	rec := &certificate.Record{
		ID:                id.NewCertificateID(),
		Code:              code,
		HolderEmail:       "a@x.uz",
		IssuerEmail:       "b@y.uz",
		Title:             "Diploma",
		InstitutionName:   "TDTU",
		IssueDate:         "2024-01-01",
		Degree:            "BSc",
		Grade:             "A",
		Status:            certificate.StatusIssued,
		IsVerified:        true,
		FingerprintScheme: fingerprint.Scheme,
	}
	rec.Fingerprint = s.engine.Derive(rec.Fields())
	s.Require().NoError(s.certs.Create(context.Background(), rec))
	return rec
}

func (s *HandlerSuite) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *HandlerSuite) TestVerifyByCode() {
	rec := s.issue("CERT-AAAA1111")

	rr := s.do(http.MethodPost, "/verification/verify", `{"code":"CERT-AAAA1111","requester_email":"hr@org.uz"}`)

	s.Equal(http.StatusOK, rr.Code)
	var resp VerifyResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.True(resp.IsValid)
	s.Empty(resp.ErrorCode)
	s.Require().NotNil(resp.Certificate)
	s.Equal(rec.Code, resp.Certificate.Code)
	s.Require().NotNil(resp.Checked)
	s.Equal("web", resp.Checked.Method)

	all := s.attempts.All()
	s.Require().Len(all, 1)
	s.Equal("hr@org.uz", all[0].Email)
	s.Equal(verification.MethodWeb, all[0].Method)
}

func (s *HandlerSuite) TestVerifyByHash() {
	rec := s.issue("CERT-BBBB2222")

	rr := s.do(http.MethodGet, "/verification/verify?hash="+rec.Fingerprint, "")

	s.Equal(http.StatusOK, rr.Code)
	var resp VerifyResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.True(resp.IsValid)

	all := s.attempts.All()
	s.Require().Len(all, 1)
	s.Equal(verification.MethodQRScan, all[0].Method)
}

func (s *HandlerSuite) TestVerifyUnknownCodeIs404() {
	rr := s.do(http.MethodPost, "/verification/verify", `{"code":"CERT-MISSING1"}`)

	s.Equal(http.StatusNotFound, rr.Code)
	var resp VerifyResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.False(resp.IsValid)
	s.Equal(string(verification.ReasonNotFound), resp.ErrorCode)
	s.Nil(resp.Certificate)

	s.Empty(s.attempts.All(), "a miss writes no attempt row")
}

func (s *HandlerSuite) TestVerifyRevokedIs200Invalid() {
	rec := s.issue("CERT-CCCC3333")
	s.Require().True(s.certs.Tamper(rec.ID, func(r *certificate.Record) {
		r.Status = certificate.StatusRevoked
	}))

	rr := s.do(http.MethodPost, "/verification/verify", `{"code":"CERT-CCCC3333"}`)

	s.Equal(http.StatusOK, rr.Code, "a resolved-but-invalid certificate is still a successful request")
	var resp VerifyResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.False(resp.IsValid)
	s.Equal(string(verification.ReasonRevoked), resp.ErrorCode)
	s.NotNil(resp.Certificate)
}

func (s *HandlerSuite) TestVerifyMissingCodeRejected() {
	rr := s.do(http.MethodPost, "/verification/verify", `{}`)
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *HandlerSuite) TestVerifyBadMethodRejected() {
	rr := s.do(http.MethodPost, "/verification/verify", `{"code":"CERT-AAAA1111","method":"qr_scan"}`)
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *HandlerSuite) TestHashParamRequired() {
	rr := s.do(http.MethodGet, "/verification/verify", "")
	s.Equal(http.StatusBadRequest, rr.Code)
}

type failingAttempts struct{}

func (failingAttempts) Append(context.Context, verification.Attempt) error {
	return errors.New("connection reset by peer")
}

func (failingAttempts) List(context.Context, verification.Filter) ([]verification.Attempt, error) {
	return nil, errors.New("connection reset by peer")
}

func (failingAttempts) Counts(context.Context) (int64, int64, error) {
	return 0, 0, errors.New("connection reset by peer")
}

func (s *HandlerSuite) TestInfrastructureFailureIs500() {
	rec := s.issue("CERT-FFFF0000")

	logger := slog.New(slog.DiscardHandler)
	service := verification.NewService(
		s.certs,
		failingAttempts{},
		audit.NewRecorder(auditstore.NewInMemory()),
		s.engine,
		nil,
		time.Minute,
		nil,
		logger,
	)
	router := chi.NewRouter()
	NewHandler(service, logger).Register(router)

	req := httptest.NewRequest(http.MethodPost, "/verification/verify", strings.NewReader(`{"code":"`+rec.Code+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	s.Equal(http.StatusInternalServerError, rr.Code)
	var resp VerifyResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.False(resp.IsValid)
	s.Equal(string(verification.ReasonFailed), resp.ErrorCode)
}

func (s *HandlerSuite) TestHistory() {
	rec := s.issue("CERT-DDDD4444")
	s.do(http.MethodPost, "/verification/verify", `{"code":"CERT-DDDD4444"}`)
	s.do(http.MethodGet, "/verification/verify?hash="+rec.Fingerprint, "")

	rr := s.do(http.MethodGet, "/verification/history?certificate_id="+rec.ID.String()+"&method=qr_scan", "")

	s.Equal(http.StatusOK, rr.Code)
	var resp struct {
		Attempts []AttemptPayload `json:"attempts"`
	}
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Require().Len(resp.Attempts, 1)
	s.Equal("qr_scan", resp.Attempts[0].Method)
}

func (s *HandlerSuite) TestHistoryRejectsBadFilter() {
	rr := s.do(http.MethodGet, "/verification/history?result=maybe", "")
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *HandlerSuite) TestLogsIncludeMisses() {
	s.do(http.MethodPost, "/verification/verify", `{"code":"CERT-MISSING1"}`)

	rr := s.do(http.MethodGet, "/verification/logs", "")

	s.Equal(http.StatusOK, rr.Code)
	var resp struct {
		Entries []LogPayload `json:"entries"`
	}
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Require().Len(resp.Entries, 1)
	s.Empty(resp.Entries[0].CertificateID)
	s.Equal("verify", resp.Entries[0].Action)
}

func (s *HandlerSuite) TestStats() {
	rec := s.issue("CERT-EEEE5555")
	s.do(http.MethodPost, "/verification/verify", `{"code":"CERT-EEEE5555"}`)
	s.do(http.MethodPost, "/verification/verify", `{"code":"`+rec.Code+`"}`)

	rr := s.do(http.MethodGet, "/verification/stats", "")

	s.Equal(http.StatusOK, rr.Code)
	var stats verification.Stats
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &stats))
	s.Equal(int64(2), stats.Total)
	s.Equal(int64(2), stats.Successful)
	s.InDelta(100.0, stats.SuccessRate, 0.001)
}
