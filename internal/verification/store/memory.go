package store

import (
	"context"
	"sync"

	"certifynow/internal/verification"
)

const defaultListLimit = 100

// InMemory holds attempts in insertion order. Append takes the write lock for
// the whole entry, so readers never see a partial row.
type InMemory struct {
	mu       sync.RWMutex
	attempts []verification.Attempt
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, attempt verification.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	return nil
}

func (s *InMemory) List(_ context.Context, filter verification.Filter) ([]verification.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	out := make([]verification.Attempt, 0, limit)
	for _, attempt := range s.attempts {
		if !matches(attempt, filter) {
			continue
		}
		out = append(out, attempt)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemory) Counts(_ context.Context) (total, successful int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total = int64(len(s.attempts))
	for _, attempt := range s.attempts {
		if attempt.Result {
			successful++
		}
	}
	return total, successful, nil
}

// All returns every attempt in insertion order. Test helper.
func (s *InMemory) All() []verification.Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]verification.Attempt, len(s.attempts))
	copy(out, s.attempts)
	return out
}

func matches(attempt verification.Attempt, filter verification.Filter) bool {
	if filter.CertificateID != nil && attempt.CertificateID != *filter.CertificateID {
		return false
	}
	if filter.Method != "" && attempt.Method != filter.Method {
		return false
	}
	if filter.Result != nil && attempt.Result != *filter.Result {
		return false
	}
	if filter.From != nil && attempt.CreatedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && attempt.CreatedAt.After(*filter.To) {
		return false
	}
	return true
}
