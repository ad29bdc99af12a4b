package middleware

import (
	"context"

	"hrportal/internal/domain/access"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyUser
)

// WithUser attaches the authenticated principal to ctx.
func WithUser(ctx context.Context, p *access.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyUser, p)
}

func GetUser(ctx context.Context) (*access.Principal, bool) {
	p, ok := ctx.Value(ctxKeyUser).(*access.Principal)
	return p, ok && p != nil
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}
