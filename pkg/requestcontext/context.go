// Package requestcontext carries request-scoped values (caller, request id,
// request time, client metadata) without depending on net/http, so the
// registry service reads the same values whether it is driven by HTTP
// middleware or by a test.
//
//	ctx = requestcontext.WithCaller(ctx, "ST1...")
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type key int

const (
	callerKey key = iota
	requestIDKey
	requestTimeKey
	clientIPKey
	userAgentKey
)

func value[T any](ctx context.Context, k key) (T, bool) {
	v, ok := ctx.Value(k).(T)
	return v, ok
}

func str(ctx context.Context, k key) string {
	s, _ := value[string](ctx, k)
	return s
}

// Caller is the acting principal, or "" when the request did not declare one.
func Caller(ctx context.Context) string { return str(ctx, callerKey) }

func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

func RequestID(ctx context.Context) string { return str(ctx, requestIDKey) }

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestTime reports the time pinned for this request, if any.
func RequestTime(ctx context.Context) (time.Time, bool) {
	return value[time.Time](ctx, requestTimeKey)
}

// Now is the pinned request time, or the wall clock outside a request.
func Now(ctx context.Context) time.Time {
	if t, ok := RequestTime(ctx); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}

func ClientIP(ctx context.Context) string { return str(ctx, clientIPKey) }

// UserAgent is the summarised user agent set by the metadata middleware.
func UserAgent(ctx context.Context) string { return str(ctx, userAgentKey) }

// WithClientMetadata sets the client IP and summarised user agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, clientIP)
	return context.WithValue(ctx, userAgentKey, userAgent)
}
