package handler

import (
	"net/http"
	"strconv"
	"time"

	"certifynow/internal/verification"
	id "certifynow/pkg/domain"
	dErrors "certifynow/pkg/domain-errors"
)

// VerifyRequest is the POST body for code-based verification. Method defaults
// to web; API clients tag themselves with "api". QR scans arrive on the GET
// endpoint and never through this body.
type VerifyRequest struct {
	Code                  string `json:"code"`
	RequesterEmail        string `json:"requester_email,omitempty"`
	RequesterOrganization string `json:"requester_organization,omitempty"`
	Method                string `json:"method,omitempty"`
}

func (r VerifyRequest) Validate() error {
	if r.Code == "" {
		return dErrors.New(dErrors.CodeValidation, "code is required")
	}
	switch verification.Method(r.Method) {
	case "", verification.MethodWeb, verification.MethodAPI:
		return nil
	}
	return dErrors.New(dErrors.CodeValidation, "method must be web or api")
}

// ResolvedMethod normalizes the optional method tag.
func (r VerifyRequest) ResolvedMethod() verification.Method {
	if r.Method == "" {
		return verification.MethodWeb
	}
	return verification.Method(r.Method)
}

// historyFilter parses the query-string filter for the history read model.
func historyFilter(r *http.Request) (verification.Filter, error) {
	var filter verification.Filter
	q := r.URL.Query()

	if raw := q.Get("certificate_id"); raw != "" {
		certID, err := id.ParseCertificateID(raw)
		if err != nil {
			return filter, err
		}
		filter.CertificateID = &certID
	}
	if raw := q.Get("method"); raw != "" {
		method := verification.Method(raw)
		if !verification.ValidMethod(method) {
			return filter, dErrors.New(dErrors.CodeValidation, "unknown method "+raw)
		}
		filter.Method = method
	}
	if raw := q.Get("result"); raw != "" {
		result, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeValidation, "result must be a boolean")
		}
		filter.Result = &result
	}
	var err error
	if filter.From, err = parseDateParam(q.Get("from")); err != nil {
		return filter, err
	}
	if filter.To, err = parseDateParam(q.Get("to")); err != nil {
		return filter, err
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, raw); err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "dates must be YYYY-MM-DD or RFC 3339")
		}
	}
	return &t, nil
}

func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
