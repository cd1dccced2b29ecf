package room

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"

	"chat-gateway/internal/auth"
)

// Default Rego policy: admins may join any room; everyone else is decided
// by the inner authorizer (the participant records).
const defaultRegoPolicy = `package chat.room_access

default allow = false

allow if {
	input.role == "admin"
}
`

// PolicyAuthorizer evaluates a Rego policy before consulting an inner
// authorizer. A policy "allow" short-circuits to permit; otherwise the
// inner authorizer decides. Evaluation errors fall through to the inner
// answer rather than granting access.
type PolicyAuthorizer struct {
	query rego.PreparedEvalQuery
	inner Authorizer
}

// NewPolicyAuthorizer compiles the default policy once and wraps inner.
func NewPolicyAuthorizer(ctx context.Context, inner Authorizer) (*PolicyAuthorizer, error) {
	query, err := rego.New(
		rego.Query("data.chat.room_access.allow"),
		rego.Module("room_access.rego", defaultRegoPolicy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile room policy: %w", err)
	}
	return &PolicyAuthorizer{query: query, inner: inner}, nil
}

// MayJoin evaluates the policy for the identity and falls through to the
// inner authorizer when the policy does not allow outright.
func (a *PolicyAuthorizer) MayJoin(ctx context.Context, userID string, role auth.Role, roomID string) (bool, error) {
	input := map[string]interface{}{
		"user_id": userID,
		"role":    string(role),
		"room_id": roomID,
	}
	rs, err := a.query.Eval(ctx, rego.EvalInput(input))
	if err == nil && rs.Allowed() {
		return true, nil
	}
	return a.inner.MayJoin(ctx, userID, role, roomID)
}
