package handler

import (
	"time"

	"certifynow/internal/certificate"
	dErrors "certifynow/pkg/domain-errors"
)

// IssueRequest is the POST body for issuing a certificate.
type IssueRequest struct {
	HolderEmail     string `json:"holder_email"`
	IssuerEmail     string `json:"issuer_email"`
	Title           string `json:"title"`
	InstitutionName string `json:"institution_name"`
	IssueDate       string `json:"issue_date"`
	Degree          string `json:"degree,omitempty"`
	Grade           string `json:"grade,omitempty"`
	ExpiryDate      string `json:"expiry_date,omitempty"`
}

// Validate only checks what the service cannot: the expiry date format. Field
// presence and the issue date are validated by the issuance service so the
// rules live in one place.
func (r IssueRequest) Validate() error {
	if r.ExpiryDate != "" {
		if _, err := time.Parse("2006-01-02", r.ExpiryDate); err != nil {
			return dErrors.New(dErrors.CodeValidation, "expiry_date must be an ISO date (YYYY-MM-DD)")
		}
	}
	return nil
}

func (r IssueRequest) toService() certificate.IssueRequest {
	req := certificate.IssueRequest{
		HolderEmail:     r.HolderEmail,
		IssuerEmail:     r.IssuerEmail,
		Title:           r.Title,
		InstitutionName: r.InstitutionName,
		IssueDate:       r.IssueDate,
		Degree:          r.Degree,
		Grade:           r.Grade,
	}
	if r.ExpiryDate != "" {
		expiry, _ := time.Parse("2006-01-02", r.ExpiryDate)
		req.ExpiryDate = &expiry
	}
	return req
}
