package handler

import (
	"time"

	"certifynow/internal/certificate"
)

// CertificateResponse is the full wire shape of a certificate record. The QR
// image itself is served from its own endpoint, so only the payload URL
// appears here.
type CertificateResponse struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	HolderEmail     string    `json:"holder_email"`
	IssuerEmail     string    `json:"issuer_email"`
	Title           string    `json:"title"`
	InstitutionName string    `json:"institution_name"`
	IssueDate       string    `json:"issue_date"`
	Degree          string    `json:"degree,omitempty"`
	Grade           string    `json:"grade,omitempty"`
	Status          string    `json:"status"`
	IsVerified      bool      `json:"is_verified"`
	ExpiryDate      string    `json:"expiry_date,omitempty"`
	Fingerprint     string    `json:"fingerprint"`
	QRPayload       string    `json:"qr_payload,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newCertificateResponse(rec *certificate.Record) CertificateResponse {
	resp := CertificateResponse{
		ID:              rec.ID.String(),
		Code:            rec.Code,
		HolderEmail:     rec.HolderEmail,
		IssuerEmail:     rec.IssuerEmail,
		Title:           rec.Title,
		InstitutionName: rec.InstitutionName,
		IssueDate:       rec.IssueDate,
		Degree:          rec.Degree,
		Grade:           rec.Grade,
		Status:          string(rec.Status),
		IsVerified:      rec.IsVerified,
		Fingerprint:     rec.Fingerprint,
		QRPayload:       rec.QRPayload,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
	if rec.ExpiryDate != nil {
		resp.ExpiryDate = rec.ExpiryDate.Format("2006-01-02")
	}
	return resp
}
