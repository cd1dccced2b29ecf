// Package security issues and validates the JWTs the gateway trusts. The
// gateway itself only verifies; issuance exists for tests and the mkjwt
// dev tool. Access and refresh tokens are separated structurally by the
// token_use claim so a refresh token can never pass as an access token.
package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails validation:
// malformed, expired, wrong signature, wrong issuer/audience, or wrong kind.
// Callers must not distinguish the cases on the wire.
var ErrInvalidToken = errors.New("invalid token")

// Token kinds carried in the token_use claim.
const (
	UseAccess  = "access"
	UseRefresh = "refresh"
)

// AccessClaims holds the claims of an access token: the identity the
// gateway derives at handshake time.
type AccessClaims struct {
	jwt.RegisteredClaims
	TokenUse string `json:"token_use"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// RefreshClaims holds the claims of a refresh token. The gateway never
// accepts one; the type exists so mkjwt and tests can mint both kinds.
type RefreshClaims struct {
	jwt.RegisteredClaims
	TokenUse string `json:"token_use"`
}

// TokenProvider signs and verifies JWTs with an RS256 or ES256 key pair.
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider. privateKey may be nil for a
// verify-only provider (the gateway's normal configuration).
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess signs an access token for the given user. Returns the token
// and its expiration time.
func (p *TokenProvider) IssueAccess(userID, email, role string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: p.registered(userID, now, expiresAt),
		TokenUse:         UseAccess,
		Email:            email,
		Role:             role,
	}
	token, err := p.sign(claims)
	return token, expiresAt, err
}

// IssueRefresh signs a refresh token for the given user.
func (p *TokenProvider) IssueRefresh(userID string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(p.refreshTTL)
	claims := RefreshClaims{
		RegisteredClaims: p.registered(userID, now, expiresAt),
		TokenUse:         UseRefresh,
	}
	token, err := p.sign(claims)
	return token, expiresAt, err
}

func (p *TokenProvider) registered(userID string, now, expiresAt time.Time) jwt.RegisteredClaims {
	jti, _ := generateJTI()
	return jwt.RegisteredClaims{
		ID:        jti,
		Subject:   userID,
		Issuer:    p.issuer,
		Audience:  jwt.ClaimStrings{p.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	if p.privateKey == nil {
		return "", ErrInvalidToken
	}
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(p.privateKey)
}

// ValidateAccess parses tokenString and verifies signature, expiry, issuer,
// audience, and that token_use is "access". Returns userID, email, role.
func (p *TokenProvider) ValidateAccess(tokenString string) (userID, email, role string, err error) {
	claims := &AccessClaims{}
	if err := p.parse(tokenString, claims); err != nil {
		return "", "", "", ErrInvalidToken
	}
	if claims.TokenUse != UseAccess {
		return "", "", "", ErrInvalidToken
	}
	return claims.Subject, claims.Email, claims.Role, nil
}

func (p *TokenProvider) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
			return p.publicKey, nil
		}
		return nil, ErrInvalidToken
	},
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
