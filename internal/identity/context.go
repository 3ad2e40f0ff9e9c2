package identity

import (
	"context"

	"steel-spark/internal/model"
)

type contextKey struct{}

// WithUser returns a context carrying the signed-in user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the signed-in user, or nil.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(contextKey{}).(*model.User)
	return user
}
