// Package config loads and validates gateway config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"chat-gateway/internal/ratelimit"
)

// Config holds gateway configuration loaded from the environment.
type Config struct {
	// ListenAddr is the address the HTTP listener binds (e.g. :8090).
	ListenAddr string `mapstructure:"LISTEN_ADDR"`
	// RedisAddr is the expiring store address (host:port).
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the store password; empty for unauthenticated stores.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// RedisDB is the store database index.
	RedisDB int `mapstructure:"REDIS_DB"`
	// DatabaseURL is the system-of-record Postgres DSN. When empty the
	// room authorizer is disabled and joins are not gated on membership.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// AllowedOrigins is a comma-separated list of origins accepted at the
	// handshake. Empty means same-origin only; "*" allows any.
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	// JWTPublicKey is the PEM-encoded public key (or path) used to verify access tokens.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTPrivateKey is the PEM-encoded private key (or path); only mkjwt needs it.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTIssuer is the iss claim expected on access tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim expected on access tokens.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// PresenceTTL is the presence record lifetime (e.g. "300s").
	PresenceTTL string `mapstructure:"PRESENCE_TTL"`
	// RateLimitMessages is the send_message rule as "<limit>/<window>" (e.g. "30/60s").
	RateLimitMessages string `mapstructure:"RATE_LIMIT_MESSAGES"`
	// RateLimitJoins is the join_room rule.
	RateLimitJoins string `mapstructure:"RATE_LIMIT_JOINS"`
	// RateLimitHandshakes is the per-IP handshake rule.
	RateLimitHandshakes string `mapstructure:"RATE_LIMIT_HANDSHAKES"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables telemetry export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment via Viper. Missing .env is ignored (e.g. in CI); env vars
// override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("LISTEN_ADDR", ":8090")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_ISSUER", "chat-auth")
	v.SetDefault("JWT_AUDIENCE", "chat-api")
	v.SetDefault("PRESENCE_TTL", "300s")
	v.SetDefault("RATE_LIMIT_MESSAGES", "30/60s")
	v.SetDefault("RATE_LIMIT_JOINS", "20/60s")
	v.SetDefault("RATE_LIMIT_HANDSHAKES", "10/60s")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.ListenAddr == "" {
		return nil, errors.New("config: LISTEN_ADDR must be set")
	}
	if cfg.RedisAddr == "" {
		return nil, errors.New("config: REDIS_ADDR must be set")
	}
	for _, rule := range []string{cfg.RateLimitMessages, cfg.RateLimitJoins, cfg.RateLimitHandshakes} {
		if _, err := ratelimit.ParseRule(rule); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// PresenceTTLDuration parses PresenceTTL. Returns 300s if unset or invalid.
func (c *Config) PresenceTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.PresenceTTL)
	if err != nil || d <= 0 {
		return 300 * time.Second
	}
	return d
}

// MessageRule returns the send_message rate-limit rule; 30/60s on parse failure.
func (c *Config) MessageRule() ratelimit.Rule {
	return ruleOr(c.RateLimitMessages, ratelimit.Rule{Limit: 30, Window: time.Minute})
}

// JoinRule returns the join_room rate-limit rule; 20/60s on parse failure.
func (c *Config) JoinRule() ratelimit.Rule {
	return ruleOr(c.RateLimitJoins, ratelimit.Rule{Limit: 20, Window: time.Minute})
}

// HandshakeRule returns the per-IP handshake rate-limit rule; 10/60s on parse failure.
func (c *Config) HandshakeRule() ratelimit.Rule {
	return ruleOr(c.RateLimitHandshakes, ratelimit.Rule{Limit: 10, Window: time.Minute})
}

func ruleOr(s string, def ratelimit.Rule) ratelimit.Rule {
	r, err := ratelimit.ParseRule(s)
	if err != nil {
		return def
	}
	return r
}

// AllowedOriginsList returns the origins from the comma-separated config.
// Empty means same-origin only.
func (c *Config) AllowedOriginsList() []string {
	if c == nil || c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
