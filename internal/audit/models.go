// Package audit is the append-only log of every action taken against a
// certificate, including failed lookups. Entries are immutable once written;
// no update or delete operation exists.
package audit

import (
	"context"
	"time"

	id "certifynow/pkg/domain"
)

// Action classifies what happened.
type Action string

const (
	ActionVerify   Action = "verify"
	ActionView     Action = "view"
	ActionDownload Action = "download"
	ActionShare    Action = "share"
)

// Entry is one audit record. CertificateID is nil when the action targeted an
// identifier that resolved to no record - a lookup miss still logs.
type Entry struct {
	ID            id.EntryID
	CertificateID *id.CertificateID
	UserID        *id.UserID
	Action        Action
	IPAddress     string
	UserAgent     string
	Details       map[string]any
	CreatedAt     time.Time
}

// Store persists entries. Append is atomic per entry: readers never observe a
// partial row, and insertion order is chronological order.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByCertificate(ctx context.Context, certID id.CertificateID, limit int) ([]Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}
