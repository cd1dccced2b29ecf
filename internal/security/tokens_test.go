package security

import (
	"errors"
	"testing"
	"time"
)

func newProvider(t *testing.T) *TokenProvider {
	t.Helper()
	p, err := NewTestTokenProvider(15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	return p
}

func TestIssueAndValidateAccess(t *testing.T) {
	p := newProvider(t)

	token, expiresAt, err := p.IssueAccess("u1", "u1@example.com", "member")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if token == "" {
		t.Fatal("IssueAccess returned empty token")
	}
	if !expiresAt.After(time.Now()) {
		t.Errorf("expiresAt = %v, want future", expiresAt)
	}

	userID, email, role, err := p.ValidateAccess(token)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if userID != "u1" {
		t.Errorf("userID = %q, want %q", userID, "u1")
	}
	if email != "u1@example.com" {
		t.Errorf("email = %q, want %q", email, "u1@example.com")
	}
	if role != "member" {
		t.Errorf("role = %q, want %q", role, "member")
	}
}

func TestValidateAccess_RejectsRefreshToken(t *testing.T) {
	p := newProvider(t)

	token, _, err := p.IssueRefresh("u1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if _, _, _, err := p.ValidateAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ValidateAccess(refresh token) = %v, want ErrInvalidToken", err)
	}
}

func TestValidateAccess_RejectsExpired(t *testing.T) {
	p, err := NewTestTokenProvider(-1*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, _, err := p.IssueAccess("u1", "u1@example.com", "member")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, _, _, err := p.ValidateAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ValidateAccess(expired) = %v, want ErrInvalidToken", err)
	}
}

func TestValidateAccess_RejectsWrongKey(t *testing.T) {
	issuerProvider := newProvider(t)
	otherProvider := newProvider(t)

	token, _, err := issuerProvider.IssueAccess("u1", "u1@example.com", "member")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, _, _, err := otherProvider.ValidateAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ValidateAccess(wrong key) = %v, want ErrInvalidToken", err)
	}
}

func TestValidateAccess_RejectsGarbage(t *testing.T) {
	p := newProvider(t)
	for _, tokenString := range []string{"", "garbage", "a.b.c"} {
		if _, _, _, err := p.ValidateAccess(tokenString); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ValidateAccess(%q) = %v, want ErrInvalidToken", tokenString, err)
		}
	}
}

func TestVerifyOnlyProviderCannotSign(t *testing.T) {
	signing := newProvider(t)
	token, _, err := signing.IssueAccess("u1", "u1@example.com", "member")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	verifyOnly := NewTokenProvider(nil, signing.publicKey, signing.issuer, signing.audience, time.Minute, time.Hour)
	if _, _, _, err := verifyOnly.ValidateAccess(token); err != nil {
		t.Fatalf("verify-only ValidateAccess: %v", err)
	}
	if _, _, err := verifyOnly.IssueAccess("u1", "e", "member"); err == nil {
		t.Fatal("verify-only IssueAccess should fail")
	}
}
