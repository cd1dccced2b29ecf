package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8090" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":8090")
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q, want %q", cfg.RedisAddr, "localhost:6379")
	}
	if cfg.JWTIssuer != "chat-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "chat-auth")
	}
	if cfg.JWTAudience != "chat-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "chat-api")
	}
	if got := cfg.PresenceTTLDuration(); got != 300*time.Second {
		t.Errorf("PresenceTTLDuration = %v, want 300s", got)
	}
	if r := cfg.MessageRule(); r.Limit != 30 || r.Window != time.Minute {
		t.Errorf("MessageRule = %+v, want 30/60s", r)
	}
	if r := cfg.HandshakeRule(); r.Limit != 10 || r.Window != time.Minute {
		t.Errorf("HandshakeRule = %+v, want 10/60s", r)
	}
	if got := cfg.AllowedOriginsList(); got != nil {
		t.Errorf("AllowedOriginsList = %v, want nil", got)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("LISTEN_ADDR", ":9999")
	os.Setenv("PRESENCE_TTL", "120s")
	os.Setenv("RATE_LIMIT_MESSAGES", "5/10s")
	os.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":9999")
	}
	if got := cfg.PresenceTTLDuration(); got != 120*time.Second {
		t.Errorf("PresenceTTLDuration = %v, want 120s", got)
	}
	if r := cfg.MessageRule(); r.Limit != 5 || r.Window != 10*time.Second {
		t.Errorf("MessageRule = %+v, want 5/10s", r)
	}
	origins := cfg.AllowedOriginsList()
	if len(origins) != 2 || origins[0] != "https://app.example.com" || origins[1] != "https://admin.example.com" {
		t.Errorf("AllowedOriginsList = %v", origins)
	}
}

func TestLoad_InvalidRateLimitRule(t *testing.T) {
	os.Clearenv()
	os.Setenv("RATE_LIMIT_JOINS", "not-a-rule")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted an invalid rate-limit rule")
	}
}

func TestPresenceTTLDuration_InvalidFallsBack(t *testing.T) {
	cfg := &Config{PresenceTTL: "bogus"}
	if got := cfg.PresenceTTLDuration(); got != 300*time.Second {
		t.Errorf("PresenceTTLDuration = %v, want 300s fallback", got)
	}
}
