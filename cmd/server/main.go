package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"tradeflow/internal/cache"
	"tradeflow/internal/config"
	"tradeflow/internal/db"
	httpapi "tradeflow/internal/http"
	"tradeflow/internal/logger"
	"tradeflow/internal/metrics"
	"tradeflow/internal/repository"
	"tradeflow/internal/service"
	"tradeflow/internal/snapshot"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.ForEnvironment(cfg.Env, cfg.LogLevel, cfg.LogFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{})
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	snapshotCache := cache.New(ctx, cfg.RedisURL, log)
	defer func() { _ = snapshotCache.Close() }()

	repo := repository.New(pool)
	loader := snapshot.NewLoader(repo, snapshotCache, cfg.SnapshotTTL, log)
	svc := service.New(loader, repo, service.Pricing{
		LocalCurrency:      cfg.LocalCurrency,
		WholesaleMarginPct: cfg.WholesaleMarginPct,
		RetailMarginPct:    cfg.RetailMarginPct,
	}, log)
	router := httpapi.NewRouter(httpapi.NewHandler(svc, log), log, metrics.New())

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("backend listening",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.Env),
			zap.Duration("snapshot_ttl", cfg.SnapshotTTL),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			log.Error("force close failed", zap.Error(closeErr))
		}
	}
	return nil
}
