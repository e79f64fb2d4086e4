package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricParseCount      = "scimfilter.parse.count"
	MetricParseDuration   = "scimfilter.parse.duration"
	MetricParseErrors     = "scimfilter.parse.errors"
	MetricCacheHits       = "scimfilter.cache.hits"
	MetricRequestDuration = "scimfilter.request.duration"
	MetricDBQueryDuration = "scimfilter.db.query.duration"
)

// Metrics holds the parser and server metric instruments.
type Metrics struct {
	parseCount      metric.Int64Counter
	parseDuration   metric.Float64Histogram
	parseErrors     metric.Int64Counter
	cacheHits       metric.Int64Counter
	requestDuration metric.Float64Histogram
	dbQueryDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on mp. version may be empty.
func NewMetrics(mp metric.MeterProvider, version string) *Metrics {
	var opts []metric.MeterOption
	if version != "" {
		opts = append(opts, metric.WithInstrumentationVersion(version))
	}
	meter := mp.Meter(MeterName, opts...)
	m := &Metrics{}

	// Instrument creation only fails on invalid parameters; fall back to the
	// bare instrument so recording never hits a nil.
	var err error

	m.parseCount, err = meter.Int64Counter(
		MetricParseCount,
		metric.WithDescription("Total number of filter parses"),
		metric.WithUnit("{parse}"),
	)
	if err != nil {
		m.parseCount, _ = meter.Int64Counter(MetricParseCount)
	}

	m.parseDuration, err = meter.Float64Histogram(
		MetricParseDuration,
		metric.WithDescription("Duration of filter parses in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.parseDuration, _ = meter.Float64Histogram(MetricParseDuration)
	}

	m.parseErrors, err = meter.Int64Counter(
		MetricParseErrors,
		metric.WithDescription("Total number of rejected filters"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.parseErrors, _ = meter.Int64Counter(MetricParseErrors)
	}

	m.cacheHits, err = meter.Int64Counter(
		MetricCacheHits,
		metric.WithDescription("Parses answered from the parse cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		m.cacheHits, _ = meter.Int64Counter(MetricCacheHits)
	}

	m.requestDuration, err = meter.Float64Histogram(
		MetricRequestDuration,
		metric.WithDescription("Duration of HTTP requests in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.requestDuration, _ = meter.Float64Histogram(MetricRequestDuration)
	}

	m.dbQueryDuration, err = meter.Float64Histogram(
		MetricDBQueryDuration,
		metric.WithDescription("Duration of database queries in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.dbQueryDuration, _ = meter.Float64Histogram(MetricDBQueryDuration)
	}

	return m
}

// RecordParse records a completed parse. failed marks a rejected filter.
func (m *Metrics) RecordParse(ctx context.Context, mode, version string, duration time.Duration, failed bool) {
	attrs := metric.WithAttributes(ModeAttr(mode), VersionAttr(version))
	m.parseCount.Add(ctx, 1, attrs)
	m.parseDuration.Record(ctx, float64(duration)/float64(time.Millisecond), attrs)
	if failed {
		m.parseErrors.Add(ctx, 1, attrs)
	}
}

// RecordCacheHit records a parse answered from the cache.
func (m *Metrics) RecordCacheHit(ctx context.Context, mode, version string) {
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(ModeAttr(mode), VersionAttr(version)))
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, route string, statusCode int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.route", route),
		attribute.Int("http.status_code", statusCode),
	)
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordDBQuery records metrics for a database query.
func (m *Metrics) RecordDBQuery(ctx context.Context, operation string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("db.operation", operation))
	m.dbQueryDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}
