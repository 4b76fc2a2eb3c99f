package handler

import (
	"time"

	"certifynow/internal/audit"
	"certifynow/internal/certificate"
	"certifynow/internal/verification"
	id "certifynow/pkg/domain"
)

// VerifyResponse is the wire shape of a verification outcome. Certificate is
// present whenever a record was resolved; ErrorCode is empty on success.
type VerifyResponse struct {
	IsValid     bool                `json:"is_valid"`
	Certificate *CertificatePayload `json:"certificate,omitempty"`
	Checked     *CheckPayload       `json:"verification,omitempty"`
	Message     string              `json:"message,omitempty"`
	ErrorCode   string              `json:"error_code,omitempty"`
}

type CertificatePayload struct {
	Code            string `json:"code"`
	HolderEmail     string `json:"holder_email"`
	Title           string `json:"title"`
	InstitutionName string `json:"institution_name"`
	IssueDate       string `json:"issue_date"`
	Degree          string `json:"degree,omitempty"`
	Grade           string `json:"grade,omitempty"`
	Status          string `json:"status"`
	ExpiryDate      string `json:"expiry_date,omitempty"`
}

type CheckPayload struct {
	VerificationID string    `json:"verification_id,omitempty"`
	Method         string    `json:"method"`
	Reason         string    `json:"reason,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
}

func newVerifyResponse(outcome verification.Outcome, method verification.Method) VerifyResponse {
	resp := VerifyResponse{
		IsValid: outcome.IsValid,
		Message: messageFor(outcome.Reason),
		Checked: &CheckPayload{
			Method:    string(method),
			CheckedAt: outcome.CheckedAt,
		},
	}
	if !outcome.IsValid {
		resp.ErrorCode = string(outcome.Reason)
		resp.Checked.Reason = string(outcome.Reason)
	}
	if outcome.AttemptID != (id.AttemptID{}) {
		resp.Checked.VerificationID = outcome.AttemptID.String()
	}
	if outcome.Certificate != nil {
		resp.Certificate = newCertificatePayload(outcome.Certificate)
	}
	return resp
}

func newCertificatePayload(rec *certificate.Record) *CertificatePayload {
	payload := &CertificatePayload{
		Code:            rec.Code,
		HolderEmail:     rec.HolderEmail,
		Title:           rec.Title,
		InstitutionName: rec.InstitutionName,
		IssueDate:       rec.IssueDate,
		Degree:          rec.Degree,
		Grade:           rec.Grade,
		Status:          string(rec.Status),
	}
	if rec.ExpiryDate != nil {
		payload.ExpiryDate = rec.ExpiryDate.Format("2006-01-02")
	}
	return payload
}

func messageFor(reason verification.Reason) string {
	switch reason {
	case verification.ReasonValid:
		return "certificate is authentic and valid"
	case verification.ReasonNotFound:
		return "no certificate matches the supplied identifier"
	case verification.ReasonHashMismatch:
		return "certificate content does not match its fingerprint"
	case verification.ReasonRevoked:
		return "certificate has been revoked"
	case verification.ReasonExpired:
		return "certificate has expired"
	case verification.ReasonCertificateInvalid:
		return "certificate is not in a verifiable state"
	default:
		return "verification could not be completed"
	}
}

// AttemptPayload is one history row.
type AttemptPayload struct {
	CertificateID string    `json:"certificate_id"`
	IPAddress     string    `json:"ip_address"`
	Email         string    `json:"requester_email,omitempty"`
	Organization  string    `json:"requester_organization,omitempty"`
	Method        string    `json:"method"`
	Result        bool      `json:"result"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func newAttemptPayloads(attempts []verification.Attempt) []AttemptPayload {
	out := make([]AttemptPayload, 0, len(attempts))
	for _, attempt := range attempts {
		out = append(out, AttemptPayload{
			CertificateID: attempt.CertificateID.String(),
			IPAddress:     attempt.IPAddress,
			Email:         attempt.Email,
			Organization:  attempt.Organization,
			Method:        string(attempt.Method),
			Result:        attempt.Result,
			Reason:        string(attempt.Reason),
			CreatedAt:     attempt.CreatedAt,
		})
	}
	return out
}

// LogPayload is one audit log row.
type LogPayload struct {
	CertificateID string         `json:"certificate_id,omitempty"`
	Action        string         `json:"action"`
	IPAddress     string         `json:"ip_address"`
	Details       map[string]any `json:"details,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

func newLogPayloads(entries []audit.Entry) []LogPayload {
	out := make([]LogPayload, 0, len(entries))
	for _, entry := range entries {
		payload := LogPayload{
			Action:    string(entry.Action),
			IPAddress: entry.IPAddress,
			Details:   entry.Details,
			CreatedAt: entry.CreatedAt,
		}
		if entry.CertificateID != nil {
			payload.CertificateID = entry.CertificateID.String()
		}
		out = append(out, payload)
	}
	return out
}
