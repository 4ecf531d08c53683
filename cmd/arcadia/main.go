package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lucavassos/arcadia/internal/cache"
	"github.com/lucavassos/arcadia/internal/config"
	"github.com/lucavassos/arcadia/internal/httpapi"
	"github.com/lucavassos/arcadia/internal/observability"
	"github.com/lucavassos/arcadia/internal/repeat"
	"github.com/lucavassos/arcadia/internal/savefile"
	"github.com/lucavassos/arcadia/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()

	// The session and repeat record families share the cache but slide on
	// different windows, so each gets its own handle.
	sessionCache, err := cache.New(ctx, cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		log.Fatalf("session cache init failed: %v", err)
	}
	defer sessionCache.Close()
	repeatCache, err := cache.New(ctx, cfg.RedisURL, cfg.RepeatTTL)
	if err != nil {
		log.Fatalf("repeat cache init failed: %v", err)
	}
	defer repeatCache.Close()
	if cfg.RedisURL == "" {
		log.Printf("REDIS_URL not set; using in-process cache (single replica only)")
	}

	saves, err := savefile.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("savefile store init failed: %v", err)
	}
	defer saves.Close()
	if cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL not set; using in-memory savefile store")
	}

	sessions := session.NewService(sessionCache, saves)
	repeats := repeat.NewService(repeatCache, cfg.RepeatEnforceMax)

	api := httpapi.New(cfg, sessions, repeats, saves, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
