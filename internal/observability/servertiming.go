package observability

import (
	"context"
	"net/http"
	"sync"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
)

// ServerTimingMetric wraps the server-timing library's Metric type.
type ServerTimingMetric struct {
	metric *servertiming.Metric
}

// Stop stops the timing metric.
func (m *ServerTimingMetric) Stop() {
	if m != nil && m.metric != nil {
		m.metric.Stop()
	}
}

// StartServerTiming starts a server-timing metric with the given name.
// If the context carries no timing header, the returned metric is a no-op.
func StartServerTiming(ctx context.Context, name string) *ServerTimingMetric {
	timing := servertiming.FromContext(ctx)
	if timing == nil {
		return &ServerTimingMetric{}
	}

	return &ServerTimingMetric{
		metric: timing.NewMetric(name).Start(),
	}
}

// StartServerTimingWithDesc starts a server-timing metric with the given name and description.
// If the context carries no timing header, the returned metric is a no-op.
func StartServerTimingWithDesc(ctx context.Context, name, description string) *ServerTimingMetric {
	timing := servertiming.FromContext(ctx)
	if timing == nil {
		return &ServerTimingMetric{}
	}

	return &ServerTimingMetric{
		metric: timing.NewMetric(name).WithDesc(description).Start(),
	}
}

// DBTimeAccumulator sums the time spent in database callbacks during one request.
type DBTimeAccumulator struct {
	mu    sync.Mutex
	total time.Duration
}

// Add adds d to the accumulated time.
func (a *DBTimeAccumulator) Add(d time.Duration) {
	a.mu.Lock()
	a.total += d
	a.mu.Unlock()
}

// Duration returns the accumulated time.
func (a *DBTimeAccumulator) Duration() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

type dbTimeKey struct{}

// WithDBTimeAccumulator returns a context carrying a fresh accumulator.
func WithDBTimeAccumulator(ctx context.Context) context.Context {
	return context.WithValue(ctx, dbTimeKey{}, &DBTimeAccumulator{})
}

// DBTimeAccumulatorFromContext returns the accumulator stored in ctx, or nil.
func DBTimeAccumulatorFromContext(ctx context.Context) *DBTimeAccumulator {
	acc, _ := ctx.Value(dbTimeKey{}).(*DBTimeAccumulator)
	return acc
}

// AddDBTime adds d to the accumulator in ctx, if any.
func AddDBTime(ctx context.Context, d time.Duration) {
	if acc := DBTimeAccumulatorFromContext(ctx); acc != nil {
		acc.Add(d)
	}
}

// ReportDBTime adds the accumulated database time as a "db" Server-Timing metric.
// It must run before the response header is written.
func ReportDBTime(ctx context.Context) {
	timing := servertiming.FromContext(ctx)
	acc := DBTimeAccumulatorFromContext(ctx)
	if timing == nil || acc == nil {
		return
	}
	metric := timing.NewMetric("db").WithDesc("Database")
	metric.Duration = acc.Duration()
}

// ServerTimingMiddleware adds the Server-Timing header and a database time
// accumulator to every request when server timing is enabled.
func ServerTimingMiddleware(cfg *Config) func(http.Handler) http.Handler {
	if !cfg.ServerTimingEnabled() {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		withAccumulator := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithDBTimeAccumulator(r.Context())))
		})
		return servertiming.Middleware(withAccumulator, nil)
	}
}
