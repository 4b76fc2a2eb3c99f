package audit

import (
	"context"

	"github.com/mssola/useragent"

	id "certifynow/pkg/domain"
	"certifynow/pkg/requestcontext"
)

// Recorder captures audit entries. It fills requester metadata from the
// request context and enriches the detail blob with a parsed user agent so
// the analytics collaborators get structured client data for free.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record appends one entry. ID and timestamp are assigned here; IP and
// User-Agent fall back to the request context when the caller left them empty.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if uuidIsNil(entry.ID) {
		entry.ID = id.NewEntryID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = requestcontext.Now(ctx)
	}
	if entry.IPAddress == "" {
		entry.IPAddress = requestcontext.ClientIP(ctx)
	}
	if entry.UserAgent == "" {
		entry.UserAgent = requestcontext.UserAgent(ctx)
	}
	if entry.UserID == nil {
		if actor := requestcontext.UserID(ctx); !actor.IsNil() {
			entry.UserID = &actor
		}
	}
	// Copy before enriching so the caller's map is never mutated.
	details := make(map[string]any, len(entry.Details)+1)
	for k, v := range entry.Details {
		details[k] = v
	}
	if entry.UserAgent != "" {
		details["client"] = parseAgent(entry.UserAgent)
	}
	entry.Details = details

	return r.store.Append(ctx, entry)
}

// ListByCertificate exposes the audit trail for one certificate.
func (r *Recorder) ListByCertificate(ctx context.Context, certID id.CertificateID, limit int) ([]Entry, error) {
	return r.store.ListByCertificate(ctx, certID, limit)
}

// ListRecent exposes the most recent entries across all certificates.
func (r *Recorder) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	return r.store.ListRecent(ctx, limit)
}

func parseAgent(raw string) map[string]any {
	ua := useragent.New(raw)
	browser, version := ua.Browser()
	return map[string]any{
		"browser":         browser,
		"browser_version": version,
		"os":              ua.OS(),
		"mobile":          ua.Mobile(),
		"bot":             ua.Bot(),
	}
}

func uuidIsNil(entryID id.EntryID) bool {
	return entryID == id.EntryID{}
}
