package context

import (
	"context"

	"github.com/amanihub/sheetcms/internal/domain"
)

const contextKeyActor = contextKey("actor")

// ActorFromContext extracts the authenticated user from the context.
// Returns the user and true if present, or a zero user and false if not.
func ActorFromContext(ctx context.Context) (domain.User, bool) {
	actor, ok := ctx.Value(contextKeyActor).(domain.User)

	return actor, ok
}

// WithActor creates a new context carrying the authenticated user.
// Set by the action dispatcher after token verification.
func WithActor(ctx context.Context, actor domain.User) context.Context {
	return context.WithValue(ctx, contextKeyActor, actor)
}
