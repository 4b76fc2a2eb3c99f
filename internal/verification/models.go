package verification

import (
	"context"
	"time"

	"certifynow/internal/certificate"
	id "certifynow/pkg/domain"
)

// Method tags how a verification request reached the service.
type Method string

const (
	MethodWeb    Method = "web"
	MethodAPI    Method = "api"
	MethodQRScan Method = "qr_scan"
)

// ValidMethod reports whether m is one of the recognized request methods.
func ValidMethod(m Method) bool {
	switch m {
	case MethodWeb, MethodAPI, MethodQRScan:
		return true
	}
	return false
}

// Reason classifies a verification outcome. ReasonValid marks the single
// success case; everything else explains a failure.
type Reason string

const (
	ReasonValid              Reason = "VALID"
	ReasonNotFound           Reason = "NOT_FOUND"
	ReasonHashMismatch       Reason = "HASH_MISMATCH"
	ReasonCertificateInvalid Reason = "CERTIFICATE_INVALID"
	ReasonRevoked            Reason = "REVOKED"
	ReasonExpired            Reason = "EXPIRED"
	ReasonFailed             Reason = "VERIFICATION_FAILED"
)

// RequesterMeta carries what the service records about whoever asked. Email
// and organization are self-reported and optional; IP and user agent are
// taken from the request context when empty.
type RequesterMeta struct {
	Email        string
	Organization string
	IPAddress    string
	UserAgent    string
}

// Attempt is one row of the append-only verification request log. Result is
// true only when the certificate verified as authentic and valid; Reason is
// empty on success.
type Attempt struct {
	ID            id.AttemptID
	CertificateID id.CertificateID
	IPAddress     string
	UserAgent     string
	Email         string
	Organization  string
	Method        Method
	Result        bool
	Reason        Reason
	CreatedAt     time.Time
}

// Outcome is the typed result of a verification. Certificate is set whenever
// a record was resolved, including on hash-mismatch and invalid-state
// failures, so callers can show what was checked. AttemptID is the recorded
// attempt, zero on a lookup miss or infrastructure failure.
type Outcome struct {
	IsValid     bool
	Reason      Reason
	Certificate *certificate.Record
	AttemptID   id.AttemptID
	CheckedAt   time.Time
}

// Stats aggregates the attempt log. SuccessRate is a percentage in [0,100],
// zero when no attempts exist.
type Stats struct {
	Total       int64   `json:"total"`
	Successful  int64   `json:"successful"`
	Failed      int64   `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// Filter narrows attempt listings. Zero values mean "any"; Limit <= 0 falls
// back to the store default.
type Filter struct {
	CertificateID *id.CertificateID
	Method        Method
	Result        *bool
	From          *time.Time
	To            *time.Time
	Limit         int
}

// AttemptStore persists verification attempts. Appends are atomic per
// attempt and listings preserve insertion order unless the filter says
// otherwise.
type AttemptStore interface {
	Append(ctx context.Context, attempt Attempt) error
	List(ctx context.Context, filter Filter) ([]Attempt, error)

	// Counts returns the total number of attempts and how many succeeded.
	Counts(ctx context.Context) (total, successful int64, err error)
}
