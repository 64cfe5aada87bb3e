package services

import "context"

type contextKey string

const (
	pendingIDKey contextKey = "pending_id"
	requestIDKey contextKey = "request_id"
)

// WithPendingID annotates context with the staged file identifier.
func WithPendingID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, pendingIDKey, id)
}

// PendingIDFromContext extracts the staged file identifier if present.
func PendingIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(pendingIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
