package http

import (
	"context"

	"moneypool-backend/internal/domain"
)

type contextKey int

const actorKey contextKey = iota

func withActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// actorFrom returns the authenticated caller. Public routes get the zero
// Actor, which every capability check rejects.
func actorFrom(ctx context.Context) domain.Actor {
	actor, _ := ctx.Value(actorKey).(domain.Actor)
	return actor
}
