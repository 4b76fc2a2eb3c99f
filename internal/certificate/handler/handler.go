// Package handler exposes the certificate lifecycle endpoints: issuance and
// status transitions behind capability checks, public record and QR artifact
// reads.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"certifynow/internal/audit"
	"certifynow/internal/certificate"
	"certifynow/internal/platform/middleware"
	id "certifynow/pkg/domain"
	dErrors "certifynow/pkg/domain-errors"
	"certifynow/pkg/platform/httputil"
	"certifynow/pkg/platform/sentinel"
	"certifynow/pkg/requestcontext"
)

type Handler struct {
	service    *certificate.Service
	auditInbox chan<- audit.Entry
	logger     *slog.Logger
}

// NewHandler wires the lifecycle service and the audit inbox. View events go
// through the inbox so a public read never blocks on the audit store.
func NewHandler(service *certificate.Service, auditInbox chan<- audit.Entry, logger *slog.Logger) *Handler {
	return &Handler{service: service, auditInbox: auditInbox, logger: logger}
}

// Register mounts the certificate routes. Mutations sit behind the supplied
// auth middleware plus a per-route capability check; reads are public.
func (h *Handler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.With(middleware.RequireCapability(func(c id.CapabilitySet) bool { return c.CanIssue }, h.logger)).
			Post("/certificates", h.issue)
		r.With(middleware.RequireCapability(func(c id.CapabilitySet) bool { return c.CanRevoke }, h.logger)).
			Post("/certificates/{code}/revoke", h.revoke)
		r.With(middleware.RequireCapability(func(c id.CapabilitySet) bool { return c.CanRevoke }, h.logger)).
			Post("/certificates/{code}/verify-flag", h.setVerified)
	})

	r.Get("/certificates/{code}", h.get)
	r.Get("/certificates/{code}/qr", h.qrImage)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	rec, err := h.service.Issue(ctx, req.toService())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec = h.service.OnCertificateIssued(ctx, rec)

	httputil.WriteJSON(w, http.StatusCreated, newCertificateResponse(rec))
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.service.Revoke(ctx, chi.URLParam(r, "code"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCertificateResponse(rec))
}

func (h *Handler) setVerified(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.service.SetVerified(ctx, chi.URLParam(r, "code"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCertificateResponse(rec))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.service.GetByCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		writeLookupError(w, err)
		return
	}

	h.recordView(ctx, rec, audit.ActionView)
	httputil.WriteJSON(w, http.StatusOK, newCertificateResponse(rec))
}

func (h *Handler) qrImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.service.GetByCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	if !rec.HasArtifact() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "certificate has no QR artifact"))
		return
	}

	h.recordView(ctx, rec, audit.ActionDownload)
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rec.QRImage)
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, sentinel.ErrNotFound) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "certificate not found"))
		return
	}
	httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "load certificate", err))
}

// recordView drops a fully formed entry into the audit inbox. The send is
// non-blocking: losing an observation entry under backpressure beats stalling
// a public read.
func (h *Handler) recordView(ctx context.Context, rec *certificate.Record, action audit.Action) {
	certID := rec.ID
	entry := audit.Entry{
		ID:            id.NewEntryID(),
		CertificateID: &certID,
		Action:        action,
		IPAddress:     requestcontext.ClientIP(ctx),
		UserAgent:     requestcontext.UserAgent(ctx),
		Details:       map[string]any{"certificate_code": rec.Code},
		CreatedAt:     requestcontext.Now(ctx),
	}
	if actor := requestcontext.UserID(ctx); !actor.IsNil() {
		entry.UserID = &actor
	}

	select {
	case h.auditInbox <- entry:
	default:
		h.logger.WarnContext(ctx, "audit inbox full, view entry dropped", "certificate_code", rec.Code)
	}
}
