package appctx

import (
	"context"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const (
	RequestIDContextKey contextKey = "request_id"
	SessionIDContextKey contextKey = "session_id"
)

// SetRequestID adds the request id to the context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDContextKey, requestID)
}

// GetRequestID extracts the request id from the context
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(RequestIDContextKey).(string)
	return requestID, ok
}

// SetSessionID adds the conversation session id to the context
func SetSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDContextKey, sessionID)
}

// GetSessionID extracts the conversation session id from the context
func GetSessionID(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(SessionIDContextKey).(string)
	return sessionID, ok
}

// Logger returns a logger carrying the request and session ids found in ctx
func Logger(ctx context.Context) *log.Entry {
	fields := log.Fields{}
	if requestID, ok := GetRequestID(ctx); ok {
		fields["request_id"] = requestID
	}
	if sessionID, ok := GetSessionID(ctx); ok {
		fields["session_id"] = sessionID
	}
	return log.WithFields(fields)
}
