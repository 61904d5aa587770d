package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	// ContextKeyUserID holds the authenticated principal's user ID.
	ContextKeyUserID contextKey = "user_id"
)

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyUserID).(uuid.UUID)
	return v, ok
}

// WithUserID injects a principal into the context. Used by the auth
// middleware and by tests that bypass HTTP.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}
