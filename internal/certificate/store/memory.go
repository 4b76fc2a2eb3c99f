// Package store provides the certificate persistence implementations: an
// in-memory store for tests and development, and the PostgreSQL store used in
// production.
package store

import (
	"context"
	"sync"
	"time"

	"certifynow/internal/certificate"
	id "certifynow/pkg/domain"
	"certifynow/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded map store. Records are deep-copied on the way
// in and out so callers can never mutate stored state directly.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.CertificateID]*certificate.Record
	codeIdx map[string]id.CertificateID
	fpIdx   map[string]id.CertificateID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.CertificateID]*certificate.Record),
		codeIdx: make(map[string]id.CertificateID),
		fpIdx:   make(map[string]id.CertificateID),
	}
}

func (s *InMemory) Create(_ context.Context, rec *certificate.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.codeIdx[rec.Code]; exists {
		return sentinel.ErrConflict
	}
	clone := cloneRecord(rec)
	s.byID[rec.ID] = clone
	s.codeIdx[rec.Code] = rec.ID
	s.fpIdx[rec.Fingerprint] = rec.ID
	return nil
}

func (s *InMemory) FindByCode(_ context.Context, code string) (*certificate.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	certID, ok := s.codeIdx[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(s.byID[certID]), nil
}

func (s *InMemory) FindByFingerprint(_ context.Context, fp string) (*certificate.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	certID, ok := s.fpIdx[fp]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(s.byID[certID]), nil
}

func (s *InMemory) AttachArtifact(_ context.Context, certID id.CertificateID, payload string, img []byte, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[certID]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.QRPayload = payload
	rec.QRImage = append([]byte(nil), img...)
	rec.UpdatedAt = updatedAt
	return nil
}

func (s *InMemory) UpdateStatus(_ context.Context, certID id.CertificateID, status certificate.Status, isVerified bool, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[certID]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.Status = status
	rec.IsVerified = isVerified
	rec.UpdatedAt = updatedAt
	return nil
}

// Tamper overwrites a content field directly, bypassing the fingerprint
// engine. Test-only hook for simulating storage-level tampering.
func (s *InMemory) Tamper(certID id.CertificateID, mutate func(*certificate.Record)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[certID]
	if !ok {
		return false
	}
	oldFP := rec.Fingerprint
	mutate(rec)
	if rec.Fingerprint != oldFP {
		delete(s.fpIdx, oldFP)
		s.fpIdx[rec.Fingerprint] = certID
	}
	return true
}

func cloneRecord(rec *certificate.Record) *certificate.Record {
	clone := *rec
	clone.QRImage = append([]byte(nil), rec.QRImage...)
	if rec.ExpiryDate != nil {
		expiry := *rec.ExpiryDate
		clone.ExpiryDate = &expiry
	}
	return &clone
}
