package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
	CtxUserID    ContextKey = "ctx_user_id"

	// HeaderRequestID echoes the request correlation id on responses
	HeaderRequestID = "X-Request-ID"
	// HeaderUserID identifies the acting user on API requests
	HeaderUserID = "X-User-ID"

	// CtxLogGroup carries the correlation token which groups all log lines
	// written during a single lifecycle operation. It is always passed
	// explicitly on the context, never held as service state, so nested
	// operations cannot clobber each other's grouping.
	CtxLogGroup ContextKey = "ctx_log_group"
)

func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(CtxUserID).(string); ok {
		return userID
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// GetLogGroup returns the log group token on the context, if any
func GetLogGroup(ctx context.Context) string {
	if logGroup, ok := ctx.Value(CtxLogGroup).(string); ok {
		return logGroup
	}
	return ""
}

// WithLogGroup returns a child context scoped to the given log group token
func WithLogGroup(ctx context.Context, logGroup string) context.Context {
	return context.WithValue(ctx, CtxLogGroup, logGroup)
}
