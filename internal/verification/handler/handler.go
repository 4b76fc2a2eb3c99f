// Package handler exposes the public verification endpoints and the
// authenticated read models over the verification logs.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"certifynow/internal/verification"
	dErrors "certifynow/pkg/domain-errors"
	"certifynow/pkg/platform/httputil"
	"certifynow/pkg/requestcontext"
)

type Handler struct {
	service *verification.Service
	logger  *slog.Logger
}

func NewHandler(service *verification.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the verification routes. The verify endpoints are public;
// the read models sit behind the supplied auth middlewares.
func (h *Handler) Register(r chi.Router, authed ...func(http.Handler) http.Handler) {
	r.Post("/verification/verify", h.verify)
	r.Get("/verification/verify", h.verifyByHash)

	r.Group(func(r chi.Router) {
		for _, mw := range authed {
			r.Use(mw)
		}
		r.Get("/verification/history", h.history)
		r.Get("/verification/logs", h.logs)
		r.Get("/verification/stats", h.stats)
	})
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	outcome := h.service.Verify(ctx, req.Code, req.ResolvedMethod(), verification.RequesterMeta{
		Email:        req.RequesterEmail,
		Organization: req.RequesterOrganization,
	})
	h.writeOutcome(w, outcome, req.ResolvedMethod())
}

func (h *Handler) verifyByHash(w http.ResponseWriter, r *http.Request) {
	hash := r.URL.Query().Get("hash")
	if hash == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "hash query parameter is required"))
		return
	}

	outcome := h.service.Verify(r.Context(), hash, verification.MethodQRScan, verification.RequesterMeta{})
	h.writeOutcome(w, outcome, verification.MethodQRScan)
}

// writeOutcome maps the typed outcome onto HTTP. A resolved-but-invalid
// certificate is still 200: the request itself succeeded, the answer is "not
// valid".
func (h *Handler) writeOutcome(w http.ResponseWriter, outcome verification.Outcome, method verification.Method) {
	status := http.StatusOK
	switch outcome.Reason {
	case verification.ReasonNotFound:
		status = http.StatusNotFound
	case verification.ReasonFailed:
		status = http.StatusInternalServerError
	}
	httputil.WriteJSON(w, status, newVerifyResponse(outcome, method))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := historyFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	attempts, err := h.service.History(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "history query failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"attempts": newAttemptPayloads(attempts)})
}

func (h *Handler) logs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.service.Logs(ctx, limitParam(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "log query failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": newLogPayloads(entries)})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "stats query failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
