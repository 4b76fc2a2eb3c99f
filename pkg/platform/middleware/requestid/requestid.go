// Package requestid assigns each request a correlation ID, honoring an ID
// supplied by an upstream proxy.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"certifynow/pkg/requestcontext"
)

// Header carries the correlation ID on requests and responses.
const Header = "X-Request-Id"

// Middleware ensures every request has a request ID in its context and echoes
// it back on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(Header)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(Header, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
