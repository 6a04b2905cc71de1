package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/cliftonc/calipso/core/dispatch"
	"github.com/cliftonc/calipso/core/logger"
)

// Recovery converts panics below it into 500 responses. Handler panics
// inside the dispatch fan-out are already contained per module; this is the
// outer net for middleware and transport code.
func Recovery(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.ErrorContext(r.Context(), "panic recovered",
						slog.Any("panic", rec),
						logger.Path(r.URL.Path),
						logger.RequestID(dispatch.RequestIDFromContext(r.Context())),
						slog.String("stack", string(debug.Stack())),
					)
					http.Error(w, http.StatusText(http.StatusInternalServerError),
						http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
