package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/cliftonc/calipso/core/dispatch"
)

// RequestIDHeader carries the request ID to clients and upstream proxies.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns every request a UUID (reusing one a trusted proxy
// already set), stores it in the context, and echoes it in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(dispatch.WithRequestID(r.Context(), id)))
	})
}
