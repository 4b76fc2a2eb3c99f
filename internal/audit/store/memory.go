// Package store provides the audit log persistence implementations.
package store

import (
	"context"
	"sync"

	"certifynow/internal/audit"
	id "certifynow/pkg/domain"
)

// InMemory keeps entries in insertion order under a mutex, which preserves
// the append-only contract: no update or delete, chronological iteration.
type InMemory struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemory) ListByCertificate(_ context.Context, certID id.CertificateID, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Entry
	for _, entry := range s.entries {
		if entry.CertificateID != nil && *entry.CertificateID == certID {
			out = append(out, entry)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ListRecent returns the newest entries first, matching the postgres store's
// ORDER BY seq DESC so the logs read model is backend-agnostic.
func (s *InMemory) ListRecent(_ context.Context, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]audit.Entry, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

// All returns every entry in insertion order. Test helper.
func (s *InMemory) All() []audit.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Entry{}, s.entries...)
}
