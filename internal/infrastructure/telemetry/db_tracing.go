package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ordersource/internal/infrastructure/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include query variables in spans, never in production
	SlowQueryThresh time.Duration // default 200ms
	DBSystem        string
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

type queryStartKey struct{}

// RegisterDBTracing installs the otelgorm plugin and a callback pair that
// enriches each query span with table, row count, credential scope and
// slow query markers. The after callbacks run before otelgorm ends the span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, log *zap.Logger) error {
	if !cfg.Enabled {
		log.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := &dbSpanCallback{slowQueryThresh: cfg.SlowQueryThresh}
	if err := cb.register(db); err != nil {
		return err
	}

	log.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
		zap.String("db_system", cfg.DBSystem),
	)
	return nil
}

type dbSpanCallback struct {
	slowQueryThresh time.Duration
}

func (c *dbSpanCallback) register(db *gorm.DB) error {
	cbs := db.Callback()
	if err := cbs.Create().Before("gorm:create").Register("order_source:before_create", c.before); err != nil {
		return err
	}
	if err := cbs.Query().Before("gorm:query").Register("order_source:before_query", c.before); err != nil {
		return err
	}
	if err := cbs.Update().Before("gorm:update").Register("order_source:before_update", c.before); err != nil {
		return err
	}
	if err := cbs.Delete().Before("gorm:delete").Register("order_source:before_delete", c.before); err != nil {
		return err
	}
	if err := cbs.Row().Before("gorm:row").Register("order_source:before_row", c.before); err != nil {
		return err
	}
	if err := cbs.Raw().Before("gorm:raw").Register("order_source:before_raw", c.before); err != nil {
		return err
	}

	if err := cbs.Create().After("gorm:create").Before("otel:after:create").Register("order_source:after_create", c.after); err != nil {
		return err
	}
	if err := cbs.Query().After("gorm:query").Before("otel:after:query").Register("order_source:after_query", c.after); err != nil {
		return err
	}
	if err := cbs.Update().After("gorm:update").Before("otel:after:update").Register("order_source:after_update", c.after); err != nil {
		return err
	}
	if err := cbs.Delete().After("gorm:delete").Before("otel:after:delete").Register("order_source:after_delete", c.after); err != nil {
		return err
	}
	if err := cbs.Row().After("gorm:row").Before("otel:after:row").Register("order_source:after_row", c.after); err != nil {
		return err
	}
	return cbs.Raw().After("gorm:raw").Before("otel:after:raw").Register("order_source:after_raw", c.after)
}

func (c *dbSpanCallback) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (c *dbSpanCallback) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if scopeID := logger.GetScopeID(ctx); scopeID != "" {
		span.SetAttributes(attribute.String(SpanAttrScopeID, scopeID))
	}

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		elapsed := time.Since(start)
		if c.slowQueryThresh > 0 && elapsed > c.slowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", c.slowQueryThresh.Milliseconds()),
			))
		}
	}
}
