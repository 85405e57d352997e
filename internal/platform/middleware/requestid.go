package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Bahjat/seo-monitor/internal/platform/reqctx"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID is middleware that assigns a unique request ID to each request.
// If the incoming request already carries an X-Request-ID header, that value
// is reused; otherwise a new UUID v4 is generated. The ID is echoed back in
// the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := reqctx.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
