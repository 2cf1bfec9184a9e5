package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"bus-tracking-services/internal/common/errors"
	"bus-tracking-services/internal/common/logger"
)

// Recovery turns a handler panic into a 500 {"detail": ...} response.
func Recovery(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("handler panicked", map[string]interface{}{
						"method":    r.Method,
						"path":      r.URL.Path,
						"panic":     fmt.Sprint(rec),
						"stack":     string(debug.Stack()),
						"requestId": RequestIDFromContext(r.Context()),
					})
					errors.WriteDetail(w, http.StatusInternalServerError, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
