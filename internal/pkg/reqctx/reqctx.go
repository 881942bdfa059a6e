// Package reqctx carries per-request identifiers through a context.
package reqctx

import "context"

// contextKey keeps these keys from colliding with other packages' string keys.
type contextKey string

const (
	HeaderSessionID      = "X-Session-ID"
	HeaderIdempotencyKey = "X-Idempotency-Key"

	ContextKeySessionID      contextKey = "session_id"
	ContextKeyIdempotencyKey contextKey = "idempotency_key"
)

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, id)
}

// SessionID returns the session bound to ctx, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeySessionID).(string)
	return id
}

func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ContextKeyIdempotencyKey, key)
}

func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(ContextKeyIdempotencyKey).(string)
	return key
}
