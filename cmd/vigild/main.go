// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package main is the entry point for the Vigil server.
//
// Vigil is a self-hosted security event logging and analysis service. It
// maintains an append-only, retention-trimmed security event log with a
// bounded fast-access list of critical events, runs anomaly detectors over
// bounded windows of that log, and exposes both over a REST API.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered sources (env > config.yaml > defaults)
//  2. Event store: BadgerDB (durable) or in-memory (tests, ephemeral runs)
//  3. Security log service: the one Logger instance the process writes through
//  4. Analyzer: windowed detectors plus the periodic background sweeper
//  5. HTTP server: chi router with rate limiting and Prometheus metrics
//
// Everything long-running sits under a Suture supervisor tree; the analysis
// layer and the API layer restart independently.
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests (10s timeout), the sweeper stops at the next tick, and
// a system.shutdown event is written before the store closes.
//
// # Example Usage
//
// Durable store on disk:
//
//	export VIGIL_STORE_PATH=/data/vigil
//	./vigild
//
// Ephemeral run for local development:
//
//	export VIGIL_STORE_BACKEND=memory
//	export VIGIL_LOGGING_FORMAT=console
//	./vigild
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/vigil/internal/analyzer"
	"github.com/tomtom215/vigil/internal/api"
	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/seclog"
	"github.com/tomtom215/vigil/internal/store"
	"github.com/tomtom215/vigil/internal/supervisor"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("store_backend", cfg.Store.Backend).
		Int("retention_days", cfg.SecurityLog.RetentionDays).
		Msg("Starting Vigil")

	eventStore, closeStore, err := openStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open event store")
	}
	defer func() {
		if err := closeStore(); err != nil {
			logging.Error().Err(err).Msg("Error closing event store")
		}
	}()

	service := seclog.NewService(cfg.SecurityLog)
	secLogger, err := service.Initialize(eventStore, cfg.Server.Environment)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize security log")
	}

	an := analyzer.New(secLogger, cfg.Analysis)
	router := api.NewRouter(service, an, cfg)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	// Build the supervisor tree, bridging zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(supervisor.NewHTTPServerService(httpServer, supervisor.DefaultTreeConfig().ShutdownTimeout))

	if cfg.Analysis.SweepInterval > 0 {
		sweeper := analyzer.NewSweeper(an, cfg.Analysis.SweepInterval)
		tree.AddAnalysisService(supervisor.NewRunnerService("analysis-sweeper", sweeper))
		logging.Info().Dur("interval", cfg.Analysis.SweepInterval).Msg("Background analysis sweeper enabled")
	} else {
		logging.Info().Msg("Background analysis sweeper disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := service.LogSecurityEvent(ctx, seclog.EventSystemStartup, "vigil server started", seclog.Metadata{}); err != nil {
		logging.Warn().Err(err).Msg("Failed to record startup event")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", httpServer.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if err := service.LogSecurityEvent(context.Background(), seclog.EventSystemShutdown, "vigil server stopped", seclog.Metadata{}); err != nil {
		logging.Warn().Err(err).Msg("Failed to record shutdown event")
	}
	logging.Info().Msg("Vigil stopped gracefully")
}

// openStore builds the configured event store backend. The returned closer is
// a no-op for the in-memory backend.
func openStore(cfg *config.Config) (store.EventStore, func() error, error) {
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemoryStore(), func() error { return nil }, nil
	default:
		bs, err := store.OpenBadger(cfg.Store.Path, cfg.Store.InMemory)
		if err != nil {
			return nil, nil, err
		}
		return bs, bs.Close, nil
	}
}
