// Package reqctx carries request-scoped values through a context.
package reqctx

import (
	"context"

	"github.com/Bahjat/seo-monitor/internal/model"
)

type (
	requestIDKey struct{}
	userKey      struct{}
)

// WithRequestID returns a context that carries the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID stored in ctx, or an empty string.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithUser returns a context that carries the authenticated user.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// User returns the authenticated user stored in ctx.
func User(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey{}).(*model.User)
	return u, ok && u != nil
}
