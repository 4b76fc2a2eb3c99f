package certificate

import (
	"context"
	"time"

	id "certifynow/pkg/domain"
)

// Store persists certificate records. Implementations return
// sentinel.ErrNotFound for missing records and sentinel.ErrConflict for
// duplicate codes.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	FindByCode(ctx context.Context, code string) (*Record, error)
	FindByFingerprint(ctx context.Context, fp string) (*Record, error)

	// AttachArtifact stores the QR payload and image without touching any
	// content field or the fingerprint. Concurrent first-time attachments
	// may both write; last write wins since artifacts for the same
	// fingerprint are semantically identical.
	AttachArtifact(ctx context.Context, certID id.CertificateID, payload string, img []byte, updatedAt time.Time) error

	// UpdateStatus transitions lifecycle state. Content fields stay frozen.
	UpdateStatus(ctx context.Context, certID id.CertificateID, status Status, isVerified bool, updatedAt time.Time) error
}
