// Package httputil centralizes JSON response shaping and request decoding for
// HTTP handlers so every endpoint speaks the same envelope.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "certifynow/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
// Internal errors omit the description so infrastructure details never leak
// to callers; every other code includes the human-readable message.
func WriteError(w http.ResponseWriter, err error) {
	de := dErrors.Load(err)
	status := dErrors.ToHTTPStatus(de.Code)

	body := map[string]string{"error": string(de.Code)}
	if de.Code != dErrors.CodeInternal {
		body["error_description"] = de.Message
	}
	WriteJSON(w, status, body)
}

// Validator is implemented by request types that carry their own validation.
type Validator interface {
	Validate() error
}

// DecodeAndPrepare decodes the JSON request body into T and runs its
// validation when present. On failure it writes the error response, logs the
// rejection, and returns ok=false so the handler can return immediately.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "malformed request body",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed JSON body"))
		return req, false
	}
	if v, ok := any(req).(Validator); ok {
		if err := v.Validate(); err != nil {
			if logger != nil {
				logger.WarnContext(ctx, "request validation failed",
					"request_id", requestID,
					"error", err,
				)
			}
			WriteError(w, err)
			return req, false
		}
	}
	return req, true
}
