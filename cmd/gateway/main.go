package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"chat-gateway/internal/auth"
	"chat-gateway/internal/config"
	"chat-gateway/internal/fallback"
	"chat-gateway/internal/gateway"
	"chat-gateway/internal/presence"
	"chat-gateway/internal/ratelimit"
	"chat-gateway/internal/room"
	"chat-gateway/internal/security"
	"chat-gateway/internal/store"
	"chat-gateway/internal/telemetry"
	otelx "chat-gateway/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otelx.NewProviders(ctx, cfg.OTLPEndpoint, "chat-gateway", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	meters, err := otelx.NewMeters(providers.MeterProvider)
	if err != nil {
		log.Fatalf("telemetry: meters: %v", err)
	}
	var emitter telemetry.EventEmitter = otelx.NewEventEmitter(providers.LoggerProvider)

	if cfg.JWTPublicKey == "" {
		log.Fatal("config: JWT_PUBLIC_KEY must be set")
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	tokens := security.NewTokenProvider(nil, publicKey, cfg.JWTIssuer, cfg.JWTAudience, 0, 0)

	st := store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer st.Close()
	if err := store.WaitReady(ctx, st); err != nil {
		log.Fatalf("redis: %v", err)
	}
	log.Printf("connected to redis at %s", cfg.RedisAddr)

	var inner room.Authorizer = room.AllowAll{}
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			log.Fatalf("postgres ping: %v", err)
		}
		log.Printf("room authorization backed by postgres")
		inner = room.NewPostgresAuthorizer(pool)
	} else {
		log.Printf("no DATABASE_URL set; joins are not gated on membership")
	}
	authz, err := room.NewPolicyAuthorizer(ctx, inner)
	if err != nil {
		log.Fatalf("room policy: %v", err)
	}

	gw := gateway.New(gateway.Deps{
		Store:      st,
		Gate:       auth.NewGate(tokens),
		Presence:   presence.New(st, cfg.PresenceTTLDuration(), fallback.New("presence")),
		Rooms:      room.NewManager(st, fallback.New("room")),
		Authorizer: authz,
		Limiter:    ratelimit.New(st, fallback.New("ratelimit")),
		Emitter:    emitter,
		Meters:     meters,
	}, gateway.Options{
		MessageRule:    cfg.MessageRule(),
		JoinRule:       cfg.JoinRule(),
		HandshakeRule:  cfg.HandshakeRule(),
		AllowedOrigins: cfg.AllowedOriginsList(),
	})
	gw.Start()

	mux := http.NewServeMux()
	mux.Handle("/ws", gw.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := st.Ping(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":      status,
			"connections": gw.SessionCount(),
		})
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("gateway listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gateway...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := gw.Stop(shutdownCtx); err != nil {
		log.Printf("gateway stop: %v", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	log.Println("gateway stopped")
}
