package observability

import (
	"net/http"

	"github.com/felixge/httpsnoop"
)

// HTTPMiddleware returns an HTTP middleware that wraps each request in a span
// and records its duration and status code.
func HTTPMiddleware(cfg *Config) func(http.Handler) http.Handler {
	if !cfg.IsEnabled() {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	tracer := cfg.Tracer()
	metrics := cfg.Metrics()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.StartRequest(r.Context(), r)
			defer span.End()

			m := httpsnoop.CaptureMetrics(next, w, r.WithContext(ctx))

			tracer.SetHTTPStatus(ctx, m.Code)
			metrics.RecordRequest(ctx, r.URL.Path, m.Code, m.Duration)
		})
	}
}
