package room

import (
	"context"

	"chat-gateway/internal/auth"
)

// Authorizer decides whether an identity may join a room. Denial is an
// authorization outcome, distinct from a transport or store error; callers
// surface it as a rejected join, not as an infrastructure failure.
type Authorizer interface {
	MayJoin(ctx context.Context, userID string, role auth.Role, roomID string) (bool, error)
}

// AllowAll authorizes every join. Used when no system of record is
// configured, matching deployments where membership is not enforced at the
// gateway.
type AllowAll struct{}

func (AllowAll) MayJoin(ctx context.Context, userID string, role auth.Role, roomID string) (bool, error) {
	return true, nil
}
