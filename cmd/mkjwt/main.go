// mkjwt mints development tokens for connecting to the gateway. It signs
// with JWT_PRIVATE_KEY from the environment (or .env) and prints the token
// to stdout.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"chat-gateway/internal/config"
	"chat-gateway/internal/security"
)

func main() {
	sub := flag.String("sub", "", "subject (user id) for the token (required)")
	email := flag.String("email", "", "email claim")
	role := flag.String("role", "member", "role claim: member, moderator, or admin")
	kind := flag.String("kind", "access", "token kind: access or refresh")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if *sub == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.JWTPrivateKey == "" {
		log.Fatal("config: JWT_PRIVATE_KEY must be set to mint tokens")
	}
	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}

	tokens := security.NewTokenProvider(privateKey, privateKey.Public(), cfg.JWTIssuer, cfg.JWTAudience, *ttl, *ttl)

	var (
		token     string
		expiresAt time.Time
	)
	switch *kind {
	case "access":
		token, expiresAt, err = tokens.IssueAccess(*sub, *email, *role)
	case "refresh":
		token, expiresAt, err = tokens.IssueRefresh(*sub)
	default:
		log.Fatalf("unknown token kind %q", *kind)
	}
	if err != nil {
		log.Fatalf("sign: %v", err)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
}
