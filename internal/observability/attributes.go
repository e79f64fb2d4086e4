// Package observability provides OpenTelemetry-based instrumentation for filter
// parsing and the filter query server.
//
// It supports distributed tracing, metrics collection, and enhanced structured logging.
//
// All observability features are opt-in. When not configured, no-op implementations
// are used with zero performance overhead.
package observability

import "go.opentelemetry.io/otel/attribute"

// Instrumentation identity constants
const (
	// TracerName is the instrumentation name for tracing.
	TracerName = "github.com/nlstn/go-scimfilter"
	// MeterName is the instrumentation name for metrics.
	MeterName = "github.com/nlstn/go-scimfilter"
)

// Span names.
const (
	SpanParse   = "scimfilter.parse"
	SpanRequest = "scimfilter.request"
)

// Semantic attribute keys following OpenTelemetry conventions.
const (
	AttrFilterMode    = "scimfilter.mode"
	AttrFilterVersion = "scimfilter.version"
	AttrFilterLength  = "scimfilter.length"
	AttrCacheHit      = "scimfilter.cache_hit"
	AttrErrorColumn   = "scimfilter.error.column"
	AttrResource      = "scimfilter.resource"
	AttrResultCount   = "scimfilter.result.count"
)

// Log field keys for structured logging with trace context.
const (
	LogFieldFilter    = "filter"
	LogFieldMode      = "mode"
	LogFieldVersion   = "version"
	LogFieldColumn    = "column"
	LogFieldTraceID   = "trace_id"
	LogFieldSpanID    = "span_id"
	LogFieldRequestID = "request_id"
	LogFieldDuration  = "duration_ms"
	LogFieldError     = "error"
)

// ModeAttr creates an attribute for the parse mode.
func ModeAttr(mode string) attribute.KeyValue {
	return attribute.String(AttrFilterMode, mode)
}

// VersionAttr creates an attribute for the grammar version.
func VersionAttr(version string) attribute.KeyValue {
	return attribute.String(AttrFilterVersion, version)
}

// LengthAttr creates an attribute for the filter length in characters.
func LengthAttr(length int) attribute.KeyValue {
	return attribute.Int(AttrFilterLength, length)
}

// CacheHitAttr creates an attribute telling whether the tree came from the cache.
func CacheHitAttr(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// ErrorColumnAttr creates an attribute for the column of a syntax error.
func ErrorColumnAttr(column int) attribute.KeyValue {
	return attribute.Int(AttrErrorColumn, column)
}

// ResourceAttr creates an attribute for the queried resource type.
func ResourceAttr(resource string) attribute.KeyValue {
	return attribute.String(AttrResource, resource)
}

// ResultCountAttr creates an attribute for the result count.
func ResultCountAttr(count int64) attribute.KeyValue {
	return attribute.Int64(AttrResultCount, count)
}
