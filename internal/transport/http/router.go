// Package httptransport assembles the HTTP surface: middleware chain, the
// versioned API, and the operational endpoints.
package httptransport

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	certhandler "certifynow/internal/certificate/handler"
	"certifynow/internal/platform/middleware"
	"certifynow/internal/platform/redis"
	verifhandler "certifynow/internal/verification/handler"
	id "certifynow/pkg/domain"
	"certifynow/pkg/platform/httputil"
	"certifynow/pkg/platform/middleware/metadata"
	"certifynow/pkg/platform/middleware/requestid"
	"certifynow/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

// Deps carries everything the router mounts. The db and cache handles are
// only used for health reporting.
type Deps struct {
	Certificates *certhandler.Handler
	Verification *verifhandler.Handler
	Tokens       middleware.TokenValidator
	DB           *sql.DB
	Cache        *redis.Client
	Logger       *slog.Logger
}

// NewRouter builds the full routing table. Every request gets a request ID,
// a request-scoped timestamp, and client metadata before reaching a handler.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	requireAuth := middleware.RequireAuth(deps.Tokens, deps.Logger)
	canVerify := middleware.RequireCapability(func(c id.CapabilitySet) bool { return c.CanVerify }, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		deps.Verification.Register(r, requireAuth, canVerify)
		deps.Certificates.Register(r, requireAuth)
	})

	r.Get("/healthz", healthHandler(deps))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if deps.DB != nil {
			checks["postgres"] = "ok"
			if err := deps.DB.PingContext(ctx); err != nil {
				checks["postgres"] = err.Error()
				healthy = false
			}
		}
		if deps.Cache != nil {
			checks["redis"] = "ok"
			if err := deps.Cache.Health(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			}
		}

		status := http.StatusOK
		state := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{"status": state, "checks": checks})
	}
}
