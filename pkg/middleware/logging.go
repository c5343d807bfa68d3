package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

type loggerKeyType struct{}

// LoggerKey carries the request-scoped logger in the context.
var LoggerKey loggerKeyType

// RequestLogger logs requests and injects a child logger with request
// details into the context.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLog := log.With(
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
			)

			ctx := context.WithValue(r.Context(), LoggerKey, reqLog)

			reqLog.Info("request started")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
