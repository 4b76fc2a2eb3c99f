// Package domain holds identifier types shared across modules. Each ID is a
// distinct type over uuid.UUID so the compiler rejects cross-type mixups.
package domain

import (
	"github.com/google/uuid"

	dErrors "certifynow/pkg/domain-errors"
)

type (
	// CertificateID is the internal identity of a certificate record.
	CertificateID uuid.UUID
	// AttemptID identifies one recorded verification attempt.
	AttemptID uuid.UUID
	// EntryID identifies one audit log entry.
	EntryID uuid.UUID
	// UserID identifies an authenticated actor.
	UserID uuid.UUID
)

func (id CertificateID) String() string { return uuid.UUID(id).String() }
func (id AttemptID) String() string     { return uuid.UUID(id).String() }
func (id EntryID) String() string       { return uuid.UUID(id).String() }
func (id UserID) String() string        { return uuid.UUID(id).String() }

func (id CertificateID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }

// NewCertificateID allocates a fresh certificate ID.
func NewCertificateID() CertificateID { return CertificateID(uuid.New()) }

// NewAttemptID allocates a fresh attempt ID.
func NewAttemptID() AttemptID { return AttemptID(uuid.New()) }

// NewEntryID allocates a fresh audit entry ID.
func NewEntryID() EntryID { return EntryID(uuid.New()) }

// NewUserID allocates a fresh user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. Services call the typed wrappers at trust boundaries.
func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseCertificateID parses and validates a certificate ID.
func ParseCertificateID(raw string) (CertificateID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return CertificateID{}, err
	}
	return CertificateID(parsed), nil
}

// ParseUserID parses and validates a user ID.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}
