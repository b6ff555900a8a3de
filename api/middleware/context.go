package middleware

import (
	"context"

	"github.com/google/uuid"

	pkgAuth "github.com/stocktrailhq/stocktrail-backend/pkg/auth"
	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxUsername contextKey = "username"
	ctxRole     contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func UsernameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUsername).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext rebuilds the typed actor seeded by the auth middleware.
// The zero actor is returned for unauthenticated contexts.
func ActorFromContext(ctx context.Context) pkgAuth.Actor {
	userID, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return pkgAuth.Actor{}
	}
	role, err := enums.ParseUserRole(RoleFromContext(ctx))
	if err != nil {
		return pkgAuth.Actor{}
	}
	return pkgAuth.Actor{UserID: userID, Role: role}
}

// WithActor injects actor identity into the context. Used by tests.
func WithActor(ctx context.Context, actor pkgAuth.Actor, username string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, actor.UserID.String())
	ctx = context.WithValue(ctx, ctxUsername, username)
	return context.WithValue(ctx, ctxRole, string(actor.Role))
}
