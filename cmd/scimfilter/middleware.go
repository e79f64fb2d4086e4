package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/nlstn/go-scimfilter/internal/observability"
)

const headerRequestID = "X-Request-ID"

type requestIDKey struct{}

// requestLogging assigns every request an ID, echoes it in X-Request-ID and
// logs the request once it completes. A valid incoming ID is kept.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerRequestID)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set(headerRequestID, id)

			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			m := httpsnoop.CaptureMetrics(next, w, r.WithContext(ctx))

			requestLogger(ctx, logger).InfoContext(ctx, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", m.Code),
				slog.Float64(observability.LogFieldDuration, float64(m.Duration.Microseconds())/1000),
			)
		})
	}
}

// requestLogger returns logger tagged with the request ID stored in ctx.
func requestLogger(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return logger.With(slog.String(observability.LogFieldRequestID, id))
	}
	return logger
}
