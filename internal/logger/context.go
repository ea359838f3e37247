package logger

import (
	"context"

	"go.uber.org/zap"
)

type fieldsKey struct{}

// WithFields returns a context whose loggers (see For) also carry fields.
// Fields accumulate across nested calls.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	prev := contextFields(ctx)
	merged := make([]zap.Field, 0, len(prev)+len(fields))
	merged = append(merged, prev...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// For returns base enriched with the fields stored in ctx, such as the
// request id of the HTTP call or the id of the background job.
func For(ctx context.Context, base *zap.Logger) *zap.Logger {
	fields := contextFields(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

func contextFields(ctx context.Context) []zap.Field {
	fields, _ := ctx.Value(fieldsKey{}).([]zap.Field)
	return fields
}
