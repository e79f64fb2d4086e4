package observability

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func newRecordingConfig(t *testing.T, opts ...Option) (*Config, *tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	opts = append([]Option{
		WithTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))),
		WithMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))),
	}, opts...)
	return NewConfig(opts...), recorder, reader
}

// collectSums returns the summed value of every int64 counter by name
func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += int64(dp.Count)
				}
			}
		}
	}
	return sums
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(
		WithVersion("1.0.0"),
		WithDetailedDBTracing(),
	)

	if cfg.Version != "1.0.0" {
		t.Errorf("Version = %q, want %q", cfg.Version, "1.0.0")
	}
	if !cfg.EnableDetailedDBTracing {
		t.Error("expected detailed DB tracing to be enabled")
	}
	if cfg.IsEnabled() {
		t.Error("expected config without providers to not be enabled")
	}
	if cfg.Tracer() == nil || cfg.Metrics() == nil {
		t.Error("expected noop tracer and metrics to be returned")
	}
}

func TestIsEnabled(t *testing.T) {
	cfg := NewConfig(WithTracerProvider(tracenoop.NewTracerProvider()))
	if !cfg.IsEnabled() {
		t.Error("expected config with tracer to be enabled")
	}

	cfg = NewConfig(WithMeterProvider(noop.NewMeterProvider()))
	if !cfg.IsEnabled() {
		t.Error("expected config with meter to be enabled")
	}
}

func TestConfigNil(t *testing.T) {
	var cfg *Config

	if cfg.Tracer() == nil {
		t.Error("Tracer() should return noop tracer for nil config")
	}
	if cfg.Metrics() == nil {
		t.Error("Metrics() should return noop metrics for nil config")
	}
	if cfg.IsEnabled() {
		t.Error("nil config should not be enabled")
	}
	if cfg.ServerTimingEnabled() {
		t.Error("expected ServerTimingEnabled() to return false for nil config")
	}
}

func TestServerTimingOption(t *testing.T) {
	if NewConfig().ServerTimingEnabled() {
		t.Error("expected server timing to be disabled by default")
	}
	if !NewConfig(WithServerTiming()).ServerTimingEnabled() {
		t.Error("expected ServerTimingEnabled() to return true")
	}
}

func TestStartParseSpan(t *testing.T) {
	cfg, recorder, _ := newRecordingConfig(t)

	_, span := cfg.Tracer().StartParse(context.Background(), "filter", "v2", 12)
	cfg.Tracer().RecordError(span, errors.New("bad filter"))
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != SpanParse {
		t.Errorf("span name = %q, want %q", spans[0].Name(), SpanParse)
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status().Code)
	}

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if attrs[AttrFilterMode].AsString() != "filter" {
		t.Errorf("mode attribute = %q", attrs[AttrFilterMode].AsString())
	}
	if attrs[AttrFilterVersion].AsString() != "v2" {
		t.Errorf("version attribute = %q", attrs[AttrFilterVersion].AsString())
	}
	if attrs[AttrFilterLength].AsInt64() != 12 {
		t.Errorf("length attribute = %d", attrs[AttrFilterLength].AsInt64())
	}
}

func TestRecordErrorNil(t *testing.T) {
	cfg, recorder, _ := newRecordingConfig(t)

	_, span := cfg.Tracer().StartSpan(context.Background(), "test")
	cfg.Tracer().RecordError(span, nil)
	span.End()

	if got := recorder.Ended()[0].Status().Code; got != codes.Unset {
		t.Errorf("expected unset status for nil error, got %v", got)
	}
}

func TestMetricsRecordParse(t *testing.T) {
	cfg, _, reader := newRecordingConfig(t)
	ctx := context.Background()

	cfg.Metrics().RecordParse(ctx, "filter", "v2", time.Millisecond, false)
	cfg.Metrics().RecordParse(ctx, "filter", "v2", time.Millisecond, true)
	cfg.Metrics().RecordCacheHit(ctx, "filter", "v2")

	sums := collectSums(t, reader)
	if sums[MetricParseCount] != 2 {
		t.Errorf("%s = %d, want 2", MetricParseCount, sums[MetricParseCount])
	}
	if sums[MetricParseErrors] != 1 {
		t.Errorf("%s = %d, want 1", MetricParseErrors, sums[MetricParseErrors])
	}
	if sums[MetricCacheHits] != 1 {
		t.Errorf("%s = %d, want 1", MetricCacheHits, sums[MetricCacheHits])
	}
	if sums[MetricParseDuration] != 2 {
		t.Errorf("%s recorded %d times, want 2", MetricParseDuration, sums[MetricParseDuration])
	}
}

func TestNoopMetrics(t *testing.T) {
	metrics := NewNoopMetrics()
	ctx := context.Background()

	// Should not panic
	metrics.RecordParse(ctx, "path", "v1", time.Millisecond, true)
	metrics.RecordCacheHit(ctx, "path", "v1")
	metrics.RecordRequest(ctx, "/Users", http.StatusOK, time.Second)
	metrics.RecordDBQuery(ctx, "SELECT", 50*time.Millisecond)
}

func TestNoopTracer(t *testing.T) {
	tracer := NewNoopTracer()
	ctx := context.Background()

	ctx, span := tracer.StartParse(ctx, "filter", "v2", 3)
	span.End()

	ctx, span = tracer.StartDBQuery(ctx, "SELECT")
	span.End()

	req := httptest.NewRequest(http.MethodGet, "/Users", nil)
	ctx, span = tracer.StartRequest(ctx, req)
	tracer.SetHTTPStatus(ctx, http.StatusBadRequest)
	span.End()
}

func TestLoggerWithTrace(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if got := LoggerWithTrace(context.Background(), logger); got != logger {
		t.Error("expected logger to be returned unchanged without a span")
	}

	cfg, _, _ := newRecordingConfig(t)
	ctx, span := cfg.Tracer().StartSpan(context.Background(), "test")
	defer span.End()

	if got := LoggerWithTrace(ctx, logger); got == logger {
		t.Error("expected logger enriched with trace context")
	}
}

func TestHTTPMiddleware(t *testing.T) {
	cfg, recorder, reader := newRecordingConfig(t)

	handler := HTTPMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/parse", nil))

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != SpanRequest {
		t.Fatalf("expected one %s span, got %d", SpanRequest, len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("expected error status for 400 response")
	}
	if sums := collectSums(t, reader); sums[MetricRequestDuration] != 1 {
		t.Errorf("expected one request duration sample, got %d", sums[MetricRequestDuration])
	}
}

func TestHTTPMiddlewareDisabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := HTTPMiddleware(NewConfig())(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected passthrough, got status %d", rec.Code)
	}
}
