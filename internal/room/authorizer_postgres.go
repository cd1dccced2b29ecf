package room

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"chat-gateway/internal/auth"
)

// PostgresAuthorizer answers MayJoin from the system-of-record participant
// table. The gateway only reads; the conversation schema is owned by the
// API layer that performs authoritative writes.
type PostgresAuthorizer struct {
	pool *pgxpool.Pool
}

// NewPostgresAuthorizer returns an authorizer reading from the given pool.
func NewPostgresAuthorizer(pool *pgxpool.Pool) *PostgresAuthorizer {
	return &PostgresAuthorizer{pool: pool}
}

// MayJoin reports whether userID is a participant of the conversation
// roomID. It returns an error only for database failures, not for missing
// rows.
func (a *PostgresAuthorizer) MayJoin(ctx context.Context, userID string, role auth.Role, roomID string) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2
	)`
	var isParticipant bool
	if err := a.pool.QueryRow(ctx, q, roomID, userID).Scan(&isParticipant); err != nil {
		return false, err
	}
	return isParticipant, nil
}
