package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	gormSpanKey             = "scimfilter:gorm:span"
	gormStartTimeKey        = "scimfilter:gorm:start"
	gormTimingStartKey      = "scimfilter:gorm:timing_start"
	gormTracingCallbackName = "scimfilter_tracing"
	gormTimingCallbackName  = "scimfilter_server_timing"
)

// RegisterGORMCallbacks registers GORM callbacks for database query tracing.
// Filter queries only read, so queries, row scans and seeding inserts are traced.
func RegisterGORMCallbacks(db *gorm.DB, cfg *Config) error {
	if cfg == nil || cfg.TracerProvider == nil || !cfg.EnableDetailedDBTracing {
		return nil
	}

	tracer := cfg.Tracer()
	metrics := cfg.Metrics()

	if err := db.Callback().Query().Before("gorm:query").Register(gormTracingCallbackName+":before_query", startSpan(tracer, "SELECT")); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register(gormTracingCallbackName+":after_query", endSpan(tracer, metrics, "SELECT")); err != nil {
		return err
	}

	if err := db.Callback().Row().Before("gorm:row").Register(gormTracingCallbackName+":before_row", startSpan(tracer, "ROW")); err != nil {
		return err
	}
	if err := db.Callback().Row().After("gorm:row").Register(gormTracingCallbackName+":after_row", endSpan(tracer, metrics, "ROW")); err != nil {
		return err
	}

	if err := db.Callback().Create().Before("gorm:create").Register(gormTracingCallbackName+":before_create", startSpan(tracer, "INSERT")); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register(gormTracingCallbackName+":after_create", endSpan(tracer, metrics, "INSERT")); err != nil {
		return err
	}

	return nil
}

// RegisterServerTimingCallbacks registers GORM callbacks that add the duration
// of every query to the request's database time accumulator. They work without
// OpenTelemetry.
func RegisterServerTimingCallbacks(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register(gormTimingCallbackName+":before_query", beforeTiming); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register(gormTimingCallbackName+":after_query", afterTiming); err != nil {
		return err
	}

	if err := db.Callback().Row().Before("gorm:row").Register(gormTimingCallbackName+":before_row", beforeTiming); err != nil {
		return err
	}
	if err := db.Callback().Row().After("gorm:row").Register(gormTimingCallbackName+":after_row", afterTiming); err != nil {
		return err
	}

	if err := db.Callback().Create().Before("gorm:create").Register(gormTimingCallbackName+":before_create", beforeTiming); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register(gormTimingCallbackName+":after_create", afterTiming); err != nil {
		return err
	}

	return nil
}

func beforeTiming(db *gorm.DB) {
	db.InstanceSet(gormTimingStartKey, time.Now())
}

func afterTiming(db *gorm.DB) {
	start, ok := instanceTime(db, gormTimingStartKey)
	if !ok {
		return
	}
	if db.Statement != nil && db.Statement.Context != nil {
		AddDBTime(db.Statement.Context, time.Since(start))
	}
}

func instanceTime(db *gorm.DB, key string) (time.Time, bool) {
	v, ok := db.InstanceGet(key)
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

func startSpan(tracer *Tracer, operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		ctx, span := tracer.StartDBQuery(ctx, operation,
			attribute.String("db.system", db.Dialector.Name()),
		)

		db.Statement.Context = ctx
		db.InstanceSet(gormSpanKey, span)
		db.InstanceSet(gormStartTimeKey, time.Now())
	}
}

func endSpan(tracer *Tracer, metrics *Metrics, operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		spanVal, ok := db.InstanceGet(gormSpanKey)
		if !ok {
			return
		}
		span, ok := spanVal.(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		if db.Statement != nil {
			if table := db.Statement.Table; table != "" {
				span.SetAttributes(attribute.String("db.sql.table", table))
			}
			span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))
		}

		tracer.RecordError(span, db.Error)

		if start, ok := instanceTime(db, gormStartTimeKey); ok {
			metrics.RecordDBQuery(db.Statement.Context, operation, time.Since(start))
		}
	}
}
