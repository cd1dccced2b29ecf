package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"chat-gateway/internal/security"
)

func newGate(t *testing.T) (*Gate, *security.TokenProvider) {
	t.Helper()
	tokens, err := security.NewTestTokenProvider(15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	return NewGate(tokens), tokens
}

func TestAuthenticate_Valid(t *testing.T) {
	gate, tokens := newGate(t)
	token, _, err := tokens.IssueAccess("u1", "u1@example.com", "moderator")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	ident, err := gate.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if ident.ID != "u1" || ident.Email != "u1@example.com" || ident.Role != RoleModerator {
		t.Errorf("identity = %+v, want u1/u1@example.com/moderator", ident)
	}
}

func TestAuthenticate_FailsClosed(t *testing.T) {
	gate, tokens := newGate(t)

	refresh, _, err := tokens.IssueRefresh("u1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	for name, credential := range map[string]string{
		"empty":         "",
		"whitespace":    "   ",
		"malformed":     "not-a-jwt",
		"refresh token": refresh,
	} {
		if _, err := gate.Authenticate(context.Background(), credential); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("%s: Authenticate = %v, want ErrUnauthenticated", name, err)
		}
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"admin":     RoleAdmin,
		"Moderator": RoleModerator,
		"member":    RoleMember,
		"owner":     RoleMember,
		"":          RoleMember,
	}
	for in, want := range cases {
		if got := ParseRole(in); got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCredentialFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	if got := CredentialFromRequest(r); got != "abc123" {
		t.Errorf("header credential = %q, want %q", got, "abc123")
	}

	r = httptest.NewRequest("GET", "/ws?token=qp456", nil)
	if got := CredentialFromRequest(r); got != "qp456" {
		t.Errorf("query credential = %q, want %q", got, "qp456")
	}

	r = httptest.NewRequest("GET", "/ws", nil)
	if got := CredentialFromRequest(r); got != "" {
		t.Errorf("missing credential = %q, want empty", got)
	}
}
