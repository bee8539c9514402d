package log

import (
	"context"

	"go.uber.org/zap"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	fieldsKey
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the request ID from context.
// Returns empty string if not found or context is nil.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithFields adds structured fields to the context, merged over existing ones.
func WithFields(ctx context.Context, keysAndValues ...any) context.Context {
	existing := FieldsFromContext(ctx)
	fields := make(map[string]any, len(existing)+len(keysAndValues)/2)
	for k, v := range existing {
		fields[k] = v
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return context.WithValue(ctx, fieldsKey, fields)
}

// FieldsFromContext extracts structured fields from context.
// Returns nil if no fields are set.
func FieldsFromContext(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey).(map[string]any)
	return fields
}

func contextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields := FieldsFromContext(ctx)
	out := make([]zap.Field, 0, len(fields)+1)
	if id := RequestIDFromContext(ctx); id != "" {
		out = append(out, zap.String("request_id", id))
	}
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}
