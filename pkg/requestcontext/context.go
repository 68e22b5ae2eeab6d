// Package requestcontext carries request-scoped values without net/http.
// Middleware writes them; services and stores read them:
//
//	userID := requestcontext.UserID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests set them directly with the With* functions.
package requestcontext

import (
	"context"
	"time"
)

type key int

const (
	userKey key = iota
	sessionKey
	requestKey
	timeKey
)

func stringValue(ctx context.Context, k key) string {
	v, _ := ctx.Value(k).(string)
	return v
}

// UserID is the session user, or "" for an anonymous request.
func UserID(ctx context.Context) string {
	return stringValue(ctx, userKey)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// SessionID is the id claim of the session token.
func SessionID(ctx context.Context) string {
	return stringValue(ctx, sessionKey)
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

// RequestID is attached to every log line written while serving a request.
func RequestID(ctx context.Context) string {
	return stringValue(ctx, requestKey)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestKey, requestID)
}

// Now returns the time pinned by the requesttime middleware, or the wall
// clock outside a request.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(timeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, timeKey, t)
}
