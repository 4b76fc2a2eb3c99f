package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"certifynow/internal/platform/token"
	id "certifynow/pkg/domain"
	dErrors "certifynow/pkg/domain-errors"
	"certifynow/pkg/platform/httputil"
	"certifynow/pkg/requestcontext"
)

// TokenValidator defines the interface for validating access tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*token.Actor, error)
}

type contextKeyActor struct{}

// ContextKeyActor is exported for tests that build contexts directly.
var ContextKeyActor = contextKeyActor{}

// GetActor retrieves the authenticated actor from the context.
func GetActor(ctx context.Context) *token.Actor {
	actor, ok := ctx.Value(ContextKeyActor).(*token.Actor)
	if !ok {
		return nil
	}
	return actor
}

// WithActor injects an actor into a context. Useful for handler tests that
// skip the middleware chain.
func WithActor(ctx context.Context, actor *token.Actor) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}

// RequireAuth validates the bearer token and attaches the resolved actor
// (identity plus capability set) to the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			actor, err := validator.ValidateToken(raw)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx = WithActor(ctx, actor)
			ctx = requestcontext.WithUserID(ctx, actor.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCapability gates an endpoint on one capability of the authenticated
// actor. Must be mounted inside RequireAuth.
func RequireCapability(pick func(id.CapabilitySet) bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actor := GetActor(ctx)
			if actor == nil || !pick(actor.Capabilities) {
				logger.WarnContext(ctx, "forbidden - capability missing",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
