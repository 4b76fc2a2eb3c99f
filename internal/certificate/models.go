// Package certificate owns the certificate record lifecycle: issuance with a
// content fingerprint, QR artifact attachment, and status transitions.
// Verification never mutates records; it only reads them through the store.
package certificate

import (
	"time"

	"certifynow/internal/certificate/fingerprint"
	id "certifynow/pkg/domain"
)

// Status is the certificate lifecycle state. Transitions are monotonic:
// draft -> issued -> verified -> revoked, where issued may jump straight to
// revoked and revoked is terminal.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusIssued   Status = "issued"
	StatusVerified Status = "verified"
	StatusRevoked  Status = "revoked"
)

var statusRank = map[Status]int{
	StatusDraft:    0,
	StatusIssued:   1,
	StatusVerified: 2,
	StatusRevoked:  3,
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	if from == StatusRevoked {
		return false
	}
	return toRank > fromRank
}

// Record is a certificate as persisted. Content fields are immutable after
// issuance; only Status and IsVerified transition, and those transitions go
// through the service.
type Record struct {
	ID   id.CertificateID
	Code string // human-readable, e.g. CERT-4F2A91C3

	// Content fields covered by the fingerprint.
	HolderEmail     string
	IssuerEmail     string
	Title           string
	InstitutionName string
	IssueDate       string // ISO date, hashed as text
	Degree          string
	Grade           string

	Status     Status
	IsVerified bool
	ExpiryDate *time.Time

	// Fingerprint is derived once at issuance and never recomputed on write.
	// A stored value that no longer matches the content fields means the row
	// was edited behind the engine's back.
	Fingerprint       string
	FingerprintScheme string

	QRPayload string
	QRImage   []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fields returns the canonical hashed field set for the fingerprint engine.
func (r *Record) Fields() fingerprint.Fields {
	return fingerprint.Fields{
		HolderEmail:     r.HolderEmail,
		IssuerEmail:     r.IssuerEmail,
		Title:           r.Title,
		InstitutionName: r.InstitutionName,
		IssueDate:       r.IssueDate,
		Degree:          r.Degree,
		Grade:           r.Grade,
	}
}

// HasArtifact reports whether the QR artifact was already attached.
func (r *Record) HasArtifact() bool {
	return r.QRPayload != ""
}

// ExpiredAt reports whether the certificate is past its expiry on the given
// day. A certificate expiring today is still valid.
func (r *Record) ExpiredAt(now time.Time) bool {
	if r.ExpiryDate == nil {
		return false
	}
	ey, em, ed := r.ExpiryDate.Date()
	ny, nm, nd := now.Date()
	expiry := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return expiry.Before(today)
}
