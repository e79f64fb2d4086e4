package scimfilter

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/nlstn/go-scimfilter/internal/cache"
	"github.com/nlstn/go-scimfilter/internal/observability"
	"github.com/nlstn/go-scimfilter/internal/parser"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Parser parses filters under a fixed mode, version and nesting limit.
// A Parser is safe for concurrent use.
type Parser struct {
	cfg    parser.Config
	logger *slog.Logger
	cache  *cache.Cache
	obs    *observability.Config
}

type options struct {
	mode      Mode
	version   Version
	maxDepth  int
	cacheSize int
	logger    *slog.Logger
	obs       []observability.Option
}

// Option configures a Parser.
type Option func(*options)

// WithMode sets the parse mode. The default is ModeFilter.
func WithMode(mode Mode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithVersion sets the grammar version. The default is V2.
func WithVersion(version Version) Option {
	return func(o *options) {
		o.version = version
	}
}

// WithMaxDepth limits the nesting of groups, negations and value paths.
// Zero, the default, means unlimited.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithCacheSize enables a cache of up to size parsed filters. When the cache
// is full it is cleared before the next insert.
func WithCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

// WithLogger sets the logger used for debug output. If not called, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracerProvider enables a "scimfilter.parse" span per parse.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.obs = append(o.obs, observability.WithTracerProvider(tp))
	}
}

// WithMeterProvider enables parse count, duration, error and cache hit metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.obs = append(o.obs, observability.WithMeterProvider(mp))
	}
}

// NewParser creates a Parser. Invalid modes or versions are reported by Parse.
func NewParser(opts ...Option) *Parser {
	o := options{mode: ModeFilter, version: V2}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Parser{
		cfg: parser.Config{
			Mode:     o.mode,
			Version:  o.version,
			MaxDepth: o.maxDepth,
		},
		logger: logger,
		obs:    observability.NewConfig(o.obs...),
	}
	if o.cacheSize > 0 {
		p.cache = cache.New(o.cacheSize)
	}
	return p
}

// Mode returns the parse mode.
func (p *Parser) Mode() Mode { return p.cfg.Mode }

// Version returns the grammar version.
func (p *Parser) Version() Version { return p.cfg.Version }

// Parse parses text.
func (p *Parser) Parse(text string) (Filter, error) {
	return p.ParseContext(context.Background(), text)
}

// ParseContext parses text, attaching the parse span to ctx's trace.
func (p *Parser) ParseContext(ctx context.Context, text string) (Filter, error) {
	mode, version := p.cfg.Mode.String(), p.cfg.Version.String()
	metrics := p.obs.Metrics()
	tracer := p.obs.Tracer()

	ctx, span := tracer.StartParse(ctx, mode, version, utf8.RuneCountInString(text))
	defer span.End()

	var key string
	if p.cache != nil {
		key = cache.Key(int(p.cfg.Mode), int(p.cfg.Version), text)
		if filter, ok := p.cache.Get(key); ok {
			span.SetAttributes(observability.CacheHitAttr(true))
			metrics.RecordCacheHit(ctx, mode, version)
			p.logger.DebugContext(ctx, "filter cache hit", slog.String(observability.LogFieldFilter, text))
			return filter, nil
		}
	}
	span.SetAttributes(observability.CacheHitAttr(false))

	start := time.Now()
	filter, err := parser.ParseWithConfig(text, p.cfg)
	metrics.RecordParse(ctx, mode, version, time.Since(start), err != nil)

	if err != nil {
		tracer.RecordError(span, err)

		attrs := []interface{}{
			slog.String(observability.LogFieldFilter, text),
			slog.String(observability.LogFieldMode, mode),
			slog.String(observability.LogFieldVersion, version),
			slog.String(observability.LogFieldError, err.Error()),
		}
		var syntaxErr *SyntaxError
		if errors.As(err, &syntaxErr) {
			span.SetAttributes(observability.ErrorColumnAttr(syntaxErr.Column))
			attrs = append(attrs, slog.Int(observability.LogFieldColumn, syntaxErr.Column))
		}
		observability.LoggerWithTrace(ctx, p.logger).DebugContext(ctx, "filter rejected", attrs...)
		return nil, err
	}

	if p.cache != nil {
		p.cache.Put(key, filter)
	}
	return filter, nil
}
