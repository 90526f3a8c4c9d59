// Copyright (c) 2026 Miru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
The api command is the entry point for the Miru authentication server.

It wires together configuration, logging, the PostgreSQL pool, the Redis
session client, schema migrations, and the HTTP server, then runs until
a shutdown signal arrives.

Startup order matters: config, logger, stores, migrations, then traffic.
*/
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/taibuivan/miru/internal/api"
	"github.com/taibuivan/miru/internal/platform/config"
	"github.com/taibuivan/miru/internal/platform/constants"
	"github.com/taibuivan/miru/internal/platform/migration"
	pgstore "github.com/taibuivan/miru/internal/platform/postgres"
	redisstore "github.com/taibuivan/miru/internal/platform/redis"
	"github.com/taibuivan/miru/internal/platform/sec"
	"github.com/taibuivan/miru/internal/users/auth"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// # Configuration & Logging

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})).With(
		slog.String("app", constants.AppName),
		slog.String("version", constants.AppVersion),
	)
	slog.SetDefault(logger)

	logger.Info("starting",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// # Infrastructure

	rootContext, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgstore.NewPool(rootContext, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := redisstore.NewClient(rootContext, cfg.RedisURL, logger)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	// Schema must be current before the first request is served.
	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger); err != nil {
		return err
	}

	// # Domain Wiring

	authService := auth.NewService(
		auth.NewUserStore(pool),
		auth.NewSessionStore(redisClient),
		sec.NewArgon2Hasher(),
		logger,
	)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error { return pgstore.Ping(rootContext, pool) },
		CheckCache:    func() error { return redisstore.Ping(rootContext, redisClient) },
	}, logger)

	server := api.NewServer(cfg, logger, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService),
	})

	// # Serve & Shutdown

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-rootContext.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
			return err
		}
	}

	logger.Info("stopped")
	return nil
}
