package logging

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// WithFields returns a context whose logger carries the extra key-value pairs
func WithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	fields := append(fieldsFrom(ctx), keysAndValues...)
	return context.WithValue(ctx, ctxKey{}, fields)
}

// FromContext returns the global sugared logger with the request scoped fields
// attached, e.g. requestId and userId.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	fields := fieldsFrom(ctx)
	if len(fields) == 0 {
		return zap.S()
	}
	return zap.S().With(fields...)
}

func fieldsFrom(ctx context.Context) []interface{} {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(ctxKey{}).([]interface{})
	// copy so sibling contexts never share a backing array
	return append([]interface{}(nil), fields...)
}
