package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certifynow/internal/verification"
	id "certifynow/pkg/domain"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newAttempt(certID id.CertificateID, method verification.Method, result bool, at time.Time) verification.Attempt {
	attempt := verification.Attempt{
		ID:            id.NewAttemptID(),
		CertificateID: certID,
		IPAddress:     "203.0.113.7",
		UserAgent:     "Mozilla/5.0",
		Method:        method,
		Result:        result,
		CreatedAt:     at,
	}
	if !result {
		attempt.Reason = verification.ReasonHashMismatch
	}
	return attempt
}

func (s *MemoryStoreSuite) TestInsertionOrderPreserved() {
	certID := id.NewCertificateID()
	base := time.Now()
	for i := 0; i < 5; i++ {
		attempt := s.newAttempt(certID, verification.MethodWeb, true, base.Add(time.Duration(i)*time.Second))
		s.Require().NoError(s.store.Append(s.ctx, attempt))
	}

	listed, err := s.store.List(s.ctx, verification.Filter{CertificateID: &certID})
	s.Require().NoError(err)
	s.Require().Len(listed, 5)

	all := s.store.All()
	for i := range listed {
		s.Equal(all[i].ID, listed[i].ID, "iteration order must equal insertion order")
	}
}

func (s *MemoryStoreSuite) TestFilterByCertificateAndMethod() {
	certA := id.NewCertificateID()
	certB := id.NewCertificateID()
	now := time.Now()

	s.Require().NoError(s.store.Append(s.ctx, s.newAttempt(certA, verification.MethodWeb, true, now)))
	s.Require().NoError(s.store.Append(s.ctx, s.newAttempt(certA, verification.MethodQRScan, true, now)))
	s.Require().NoError(s.store.Append(s.ctx, s.newAttempt(certB, verification.MethodWeb, false, now)))

	listed, err := s.store.List(s.ctx, verification.Filter{CertificateID: &certA, Method: verification.MethodQRScan})
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(verification.MethodQRScan, listed[0].Method)
}

func (s *MemoryStoreSuite) TestFilterByResultAndDateRange() {
	certID := id.NewCertificateID()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Append(s.ctx, s.newAttempt(certID, verification.MethodWeb, true, base)))
	s.Require().NoError(s.store.Append(s.ctx, s.newAttempt(certID, verification.MethodWeb, false, base.AddDate(0, 0, 1))))
	s.Require().NoError(s.store.Append(s.ctx, s.newAttempt(certID, verification.MethodWeb, false, base.AddDate(0, 0, 2))))

	failed := false
	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 1)
	listed, err := s.store.List(s.ctx, verification.Filter{Result: &failed, From: &from, To: &to})
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.False(listed[0].Result)
	s.Equal(verification.ReasonHashMismatch, listed[0].Reason)
}

func (s *MemoryStoreSuite) TestListLimit() {
	certID := id.NewCertificateID()
	now := time.Now()
	for i := 0; i < 10; i++ {
		s.Require().NoError(s.store.Append(s.ctx, s.newAttempt(certID, verification.MethodAPI, true, now)))
	}

	listed, err := s.store.List(s.ctx, verification.Filter{Limit: 4})
	s.Require().NoError(err)
	s.Len(listed, 4)
}

func (s *MemoryStoreSuite) TestCounts() {
	certID := id.NewCertificateID()
	now := time.Now()
	s.Require().NoError(s.store.Append(s.ctx, s.newAttempt(certID, verification.MethodWeb, true, now)))
	s.Require().NoError(s.store.Append(s.ctx, s.newAttempt(certID, verification.MethodWeb, true, now)))
	s.Require().NoError(s.store.Append(s.ctx, s.newAttempt(certID, verification.MethodWeb, false, now)))

	total, successful, err := s.store.Counts(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Equal(int64(2), successful)
}
