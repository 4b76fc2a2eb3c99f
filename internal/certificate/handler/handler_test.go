package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"certifynow/internal/audit"
	"certifynow/internal/certificate"
	"certifynow/internal/certificate/fingerprint"
	"certifynow/internal/certificate/qr"
	certstore "certifynow/internal/certificate/store"
	"certifynow/internal/platform/middleware"
	"certifynow/internal/platform/token"
	id "certifynow/pkg/domain"
)

type HandlerSuite struct {
	suite.Suite
	certs  *certstore.InMemory
	tokens *token.Service
	inbox  chan audit.Entry
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.certs = certstore.NewInMemory()
	s.tokens = token.NewService("test-signing-key", "certifynow", "certifynow-api")
	s.inbox = make(chan audit.Entry, 16)

	logger := slog.New(slog.DiscardHandler)
	service := certificate.NewService(
		s.certs,
		fingerprint.New(),
		qr.New("https://certifynow.uz/verify"),
		nil,
		logger,
	)

	s.router = chi.NewRouter()
	NewHandler(service, s.inbox, logger).Register(s.router, middleware.RequireAuth(s.tokens, logger))
}

func (s *HandlerSuite) bearerFor(role id.Role) string {
	tok, err := s.tokens.GenerateAccessToken(id.NewUserID(), role, time.Hour)
	s.Require().NoError(err)
	return "Bearer " + tok
}

func (s *HandlerSuite) do(method, target, body, authorization string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

const issueBody = `{
	"holder_email": "a@x.uz",
	"issuer_email": "b@y.uz",
	"title": "Diploma",
	"institution_name": "TDTU",
	"issue_date": "2024-01-01",
	"degree": "BSc",
	"grade": "A"
}`

func (s *HandlerSuite) TestIssue() {
	rr := s.do(http.MethodPost, "/certificates", issueBody, s.bearerFor(id.RoleInstitution))

	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	var resp CertificateResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.True(strings.HasPrefix(resp.Code, "CERT-"))
	s.Len(resp.Fingerprint, 64)
	s.Equal("issued", resp.Status)
	s.Contains(resp.QRPayload, resp.Fingerprint, "issuance attaches the QR artifact")
}

func (s *HandlerSuite) TestIssueRequiresAuth() {
	rr := s.do(http.MethodPost, "/certificates", issueBody, "")
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func (s *HandlerSuite) TestIssueRequiresCapability() {
	rr := s.do(http.MethodPost, "/certificates", issueBody, s.bearerFor(id.RoleStudent))
	s.Equal(http.StatusForbidden, rr.Code)
}

func (s *HandlerSuite) TestIssueValidationError() {
	rr := s.do(http.MethodPost, "/certificates", `{"holder_email":"a@x.uz"}`, s.bearerFor(id.RoleAdmin))
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *HandlerSuite) issueOne() CertificateResponse {
	rr := s.do(http.MethodPost, "/certificates", issueBody, s.bearerFor(id.RoleInstitution))
	s.Require().Equal(http.StatusCreated, rr.Code)
	var resp CertificateResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func (s *HandlerSuite) TestRevoke() {
	issued := s.issueOne()

	rr := s.do(http.MethodPost, "/certificates/"+issued.Code+"/revoke", "", s.bearerFor(id.RoleAdmin))

	s.Require().Equal(http.StatusOK, rr.Code)
	var resp CertificateResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Equal("revoked", resp.Status)
}

func (s *HandlerSuite) TestRevokeTwiceConflicts() {
	issued := s.issueOne()
	s.do(http.MethodPost, "/certificates/"+issued.Code+"/revoke", "", s.bearerFor(id.RoleAdmin))

	rr := s.do(http.MethodPost, "/certificates/"+issued.Code+"/revoke", "", s.bearerFor(id.RoleAdmin))
	s.Equal(http.StatusConflict, rr.Code)
}

func (s *HandlerSuite) TestSetVerifiedFlag() {
	issued := s.issueOne()

	rr := s.do(http.MethodPost, "/certificates/"+issued.Code+"/verify-flag", "", s.bearerFor(id.RoleAdmin))

	s.Require().Equal(http.StatusOK, rr.Code)
	var resp CertificateResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.True(resp.IsVerified)
	s.Equal("issued", resp.Status, "the flag does not change lifecycle status")
}

func (s *HandlerSuite) TestGetRecordsViewEntry() {
	issued := s.issueOne()

	rr := s.do(http.MethodGet, "/certificates/"+issued.Code, "", "")

	s.Require().Equal(http.StatusOK, rr.Code)

	select {
	case entry := <-s.inbox:
		s.Equal(audit.ActionView, entry.Action)
		s.Require().NotNil(entry.CertificateID)
		s.Equal(issued.ID, entry.CertificateID.String())
	default:
		s.Fail("expected a view entry in the audit inbox")
	}
}

func (s *HandlerSuite) TestGetUnknownCodeIs404() {
	rr := s.do(http.MethodGet, "/certificates/CERT-MISSING1", "", "")
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *HandlerSuite) TestQRImage() {
	issued := s.issueOne()

	rr := s.do(http.MethodGet, "/certificates/"+issued.Code+"/qr", "", "")

	s.Require().Equal(http.StatusOK, rr.Code)
	s.Equal("image/png", rr.Header().Get("Content-Type"))
	s.NotEmpty(rr.Body.Bytes())

	select {
	case entry := <-s.inbox:
		s.Equal(audit.ActionDownload, entry.Action)
	default:
		s.Fail("expected a download entry in the audit inbox")
	}
}
