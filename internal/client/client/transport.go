package client

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	HeaderAuthorization  = "Authorization"
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

type ctxKey int

const (
	accessTokenKey ctxKey = iota
	idempotencyKey
)

func withAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, accessTokenKey, token)
}

// WithIdempotencyKey marks every request made with ctx with the given key so
// the server can recognise a repeated submission.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey, key)
}

// IdempotencyKeyFrom returns the key set by WithIdempotencyKey, if any.
func IdempotencyKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKey).(string)
	return key
}

// headerTransport decorates outgoing requests with the bearer token,
// a fresh request id and an optional idempotency key.
type headerTransport struct {
	next http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	req = req.Clone(ctx)

	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}
	if token, ok := ctx.Value(accessTokenKey).(string); ok && token != "" {
		req.Header.Set(HeaderAuthorization, "Bearer "+token)
	}
	if key := IdempotencyKeyFrom(ctx); key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}

	return t.next.RoundTrip(req)
}
