package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"time"
)

// NewTestTokenProvider returns a TokenProvider backed by a freshly generated
// ECDSA P-256 key pair. For unit tests and the mkjwt tool only.
func NewTestTokenProvider(accessTTL, refreshTTL time.Duration) (*TokenProvider, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate test key: %w", err)
	}
	return NewTokenProvider(key, key.Public(), "test-issuer", "test-audience", accessTTL, refreshTTL), nil
}
