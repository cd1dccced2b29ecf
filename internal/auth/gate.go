// Package auth verifies the bearer credential presented during the
// websocket handshake and derives the connection's identity. Verification
// fails closed: a missing, malformed, expired, or wrong-kind credential all
// produce the same rejection, and the handshake is aborted before any
// application event is processed.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"chat-gateway/internal/security"
)

// ErrUnauthenticated is the single rejection every credential failure maps to.
var ErrUnauthenticated = errors.New("auth: unauthenticated")

// Role is the small fixed set of roles a connection can carry.
type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ParseRole maps a claim value onto a known Role. Unknown values degrade to
// member rather than rejecting, so a token from a newer issuer still connects
// with the least privilege.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleModerator:
		return RoleModerator
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleMember
	}
}

// Identity is the authenticated principal bound to a session for its lifetime.
type Identity struct {
	ID    string
	Email string
	Role  Role
}

// Gate authenticates handshake credentials against the token provider.
type Gate struct {
	tokens *security.TokenProvider
}

// NewGate returns a Gate verifying tokens with the given provider.
func NewGate(tokens *security.TokenProvider) *Gate {
	return &Gate{tokens: tokens}
}

// Authenticate validates credential as an access token and returns the
// identity it carries. Pure verification, no side effects.
func (g *Gate) Authenticate(ctx context.Context, credential string) (Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Identity{}, ErrUnauthenticated
	}
	userID, email, role, err := g.tokens.ValidateAccess(credential)
	if err != nil || userID == "" {
		return Identity{}, ErrUnauthenticated
	}
	return Identity{ID: userID, Email: email, Role: ParseRole(role)}, nil
}

const bearerPrefix = "bearer "

// CredentialFromRequest extracts the bearer credential from the handshake
// request: the Authorization header when present, otherwise the token query
// parameter (browser websocket clients cannot set headers). Returns "" when
// neither is supplied.
func CredentialFromRequest(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) >= len(bearerPrefix) && strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(v[len(bearerPrefix):])
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
