// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/folio/internal/api"
	"github.com/tomtom215/folio/internal/audit"
	"github.com/tomtom215/folio/internal/auth"
	"github.com/tomtom215/folio/internal/backup"
	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/captcha"
	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/database"
	"github.com/tomtom215/folio/internal/likes"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/seo"
	"github.com/tomtom215/folio/internal/supervisor"
	"github.com/tomtom215/folio/internal/supervisor/services"
)

// Like bucket: a short flurry of clicks, then a sustained one per second.
const (
	likeRateRequests = 60
	likeRateWindow   = time.Minute
	likeRateBurst    = 10
)

const (
	shutdownTimeout      = 10 * time.Second
	auditCleanupInterval = 24 * time.Hour
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Folio exited with error")
	}
}

//nolint:gocyclo // Sequential component setup
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("environment", cfg.Server.Environment).
		Str("session_store", cfg.Security.SessionStore).
		Msg("Starting Folio")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	storeFactory, err := auth.NewSessionStoreFactory(auth.SessionStoreType(cfg.Security.SessionStore), cfg.Security.SessionStorePath)
	if err != nil {
		return fmt.Errorf("initialize session store: %w", err)
	}
	defer func() {
		if err := storeFactory.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()
	if storeFactory.Type() == auth.SessionStoreMemory && cfg.Server.IsProduction() {
		logging.Warn().Msg("Session store is 'memory': admin sessions will not survive a restart (SESSION_STORE=badger)")
	}

	auditLogger := audit.NewLogger(audit.NewDuckDBStore(db.Conn()), audit.Config{
		Enabled:    cfg.Audit.Enabled,
		Retention:  cfg.Audit.Retention,
		BufferSize: cfg.Audit.BufferSize,
	})
	if !auditLogger.Enabled() {
		logging.Warn().Msg("Audit trail is DISABLED (AUDIT_ENABLED=false)")
	}

	backups, err := backup.NewManager(db, cfg.Backup.Dir, cfg.Backup.Retain)
	if err != nil {
		return fmt.Errorf("initialize backups: %w", err)
	}

	authSvc, err := auth.NewService(&cfg.Security, storeFactory.CreateStore())
	if err != nil {
		return fmt.Errorf("initialize auth: %w", err)
	}
	authMW := auth.NewMiddleware(authSvc, auth.CookieConfig{
		Name:   cfg.Security.CookieName,
		Secure: cfg.Server.IsProduction(),
	})

	turnstile := captcha.NewTurnstileClient(&cfg.Turnstile)
	if !turnstile.Enabled() {
		logging.Warn().Msg("Turnstile verification is DISABLED (TURNSTILE_SECRET_KEY is empty)")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	accumulator := likes.NewAccumulator(cfg.Likes.MaxPending)
	flusher := likes.NewFlusher(accumulator, db, cfg.Likes.FlushInterval)
	readCache := cache.New(cfg.Cache.TTL)
	likeLimiter := auth.NewRateLimiter(likeRateRequests, likeRateWindow, likeRateBurst)

	renderer, err := seo.NewRenderer(cfg.Site.BaseURL)
	if err != nil {
		return fmt.Errorf("initialize seo renderer: %w", err)
	}

	handler, err := api.NewHandler(api.HandlerDeps{
		DB:      db,
		Audit:   auditLogger,
		Backups: backups,
		Cache:   readCache,
		Likes:   accumulator,
		Captcha: turnstile,
		SEO:     renderer,
		Auth:    authMW,
		Config:  cfg,
	})
	if err != nil {
		return fmt.Errorf("initialize handlers: %w", err)
	}

	chiConfig := api.DefaultChiMiddlewareConfig()
	chiConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	chiConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled
	router := api.NewRouter(handler, api.NewChiMiddleware(chiConfig), authMW, likeLimiter)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// Data layer
	tree.AddDataService(flusher)
	tree.AddDataService(services.NewCheckpointService(db, 0))
	if cfg.Backup.Interval > 0 {
		tree.AddDataService(services.NewPeriodicService("db-backup", cfg.Backup.Interval, backups.RunScheduled))
		logging.Info().Dur("interval", cfg.Backup.Interval).Str("dir", backups.Dir()).Msg("Scheduled backups enabled")
	}

	// Background layer
	tree.AddBackgroundService(readCache)
	tree.AddBackgroundService(likeLimiter)
	tree.AddBackgroundService(services.NewSessionCleanupService(authSvc, 0))
	tree.AddBackgroundService(services.NewLockoutCleanupService(authSvc, 0))
	tree.AddBackgroundService(auditLogger)
	if auditLogger.Enabled() {
		tree.AddBackgroundService(services.NewPeriodicService("audit-cleanup", auditCleanupInterval, auditLogger.Cleanup))
	}

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, shutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		treeErr = <-errCh
	case treeErr = <-errCh:
		stop()
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	// Likes accepted after the flusher's final pass.
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := flusher.Flush(flushCtx); err != nil {
		logging.Error().Err(err).Int("pending_posts", accumulator.Len()).Msg("Final like flush failed")
	}
	if n := auditLogger.Flush(flushCtx); n > 0 {
		logging.Info().Int("events", n).Msg("Wrote buffered audit events")
	}

	logging.Info().Msg("Application stopped gracefully")
	return nil
}
