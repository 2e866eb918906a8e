package utils

import (
	"context"
)

type contextKey string

const ContextAskIDKey contextKey = "askID"

// WithAskID tags ctx with the id used on every log line for one question.
func WithAskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextAskIDKey, id)
}

// AskIDFromContext returns the ask id, or "-" when none is set.
func AskIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextAskIDKey).(string); ok && id != "" {
		return id
	}
	return "-"
}
