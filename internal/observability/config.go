package observability

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Config selects the telemetry emitted while parsing filters and serving
// requests. A nil *Config is valid and disables everything.
type Config struct {
	// TracerProvider enables spans when non-nil.
	TracerProvider trace.TracerProvider

	// MeterProvider enables metrics when non-nil.
	MeterProvider metric.MeterProvider

	// Version is reported as the instrumentation scope version.
	Version string

	// EnableDetailedDBTracing adds a span per GORM query.
	EnableDetailedDBTracing bool

	// EnableServerTiming adds the Server-Timing response header.
	EnableServerTiming bool

	tracer  *Tracer
	metrics *Metrics
}

// Option configures a Config.
type Option func(*Config)

// WithTracerProvider enables tracing through tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) { c.TracerProvider = tp }
}

// WithMeterProvider enables metrics through mp.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Config) { c.MeterProvider = mp }
}

// WithVersion sets the instrumentation scope version.
func WithVersion(version string) Option {
	return func(c *Config) { c.Version = version }
}

// WithDetailedDBTracing enables per-query spans.
func WithDetailedDBTracing() Option {
	return func(c *Config) { c.EnableDetailedDBTracing = true }
}

// WithServerTiming enables the Server-Timing response header.
func WithServerTiming() Option {
	return func(c *Config) { c.EnableServerTiming = true }
}

// NewConfig applies opts and builds the tracer and metric instruments.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.Initialize()
	return cfg
}

// Initialize rebuilds the tracer and instruments from the current providers.
func (c *Config) Initialize() {
	c.tracer = NewNoopTracer()
	if c.TracerProvider != nil {
		c.tracer = NewTracer(c.TracerProvider, c.Version)
	}

	c.metrics = NewNoopMetrics()
	if c.MeterProvider != nil {
		c.metrics = NewMetrics(c.MeterProvider, c.Version)
	}
}

// Tracer returns the configured tracer. It is never nil.
func (c *Config) Tracer() *Tracer {
	if c == nil || c.tracer == nil {
		return NewNoopTracer()
	}
	return c.tracer
}

// Metrics returns the configured instruments. It is never nil.
func (c *Config) Metrics() *Metrics {
	if c == nil || c.metrics == nil {
		return NewNoopMetrics()
	}
	return c.metrics
}

// IsEnabled reports whether a tracer or meter provider is configured.
func (c *Config) IsEnabled() bool {
	return c != nil && (c.TracerProvider != nil || c.MeterProvider != nil)
}

// ServerTimingEnabled reports whether the Server-Timing header is enabled.
func (c *Config) ServerTimingEnabled() bool {
	return c != nil && c.EnableServerTiming
}
