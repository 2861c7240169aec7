package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"gottadoit/internal/httputil"
	"gottadoit/internal/metrics"
)

// Recovery converts a panic in a handler into a 500 response, logging the
// stack and counting the recovery.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}

				metrics.PanicRecoveries.Inc()
				logger.Error("panic recovered",
					"error", v,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
