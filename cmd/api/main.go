package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/auth"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/config"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/db"
	riderdomain "github.com/Ex-Ignis/RiTrackApp-sub001/internal/domain/rider"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/http/handlers"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/jobs"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/observability"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/platform"
	postgresrepo "github.com/Ex-Ignis/RiTrackApp-sub001/internal/repository/postgres"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/server"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/ws"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	tenantRepo := postgresrepo.NewTenantRepository(pool)
	riderRepo := postgresrepo.NewRiderRepository(pool)
	riderService := riderdomain.NewService(riderRepo, tenantRepo)
	riderHandler := handlers.NewRiderHandler(riderService)

	jwtManager := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey)
	platformVerifier := auth.NewPlatformTokenVerifier(cfg.PlatformIssuer, cfg.PlatformAudience, cfg.PlatformVerificationKey, cfg.PlatformJWKSURL)

	hub := ws.NewHub(logger, cfg.WSWriteTimeout)
	authenticator := ws.NewAuthenticator(platformVerifier, tenantRepo, cfg.ApplicationName)
	wsHandler := ws.NewHandler(hub, authenticator, logger, cfg.KeepaliveInterval, cfg.WSWriteTimeout)

	platformClient := platform.NewClient(cfg.PlatformBaseURL, cfg.PlatformAPIKey)
	poller := jobs.NewLocationPoller(tenantRepo, platformClient, riderRepo, hub, logger, cfg.PollInterval)

	r := server.NewRouter(cfg, logger, server.Dependencies{
		Pinger:          pool,
		RiderHandler:    riderHandler,
		RealtimeHandler: handlers.NewRealtimeHandler(hub),
		WSHandler:       wsHandler,
		JWTManager:      jwtManager,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("location poller starting", "interval", cfg.PollInterval.String())
		if err := poller.Run(sigCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("location poller failed", "err", err)
		}
	}()

	go func() {
		logger.Info("api server starting", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-sigCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	hub.Shutdown()
	logger.Info("api server stopped")
}
