package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/mandalnilabja/chatgate/internal/app"
	"github.com/mandalnilabja/chatgate/internal/auth"
	"github.com/mandalnilabja/chatgate/internal/config"
	"github.com/mandalnilabja/chatgate/internal/provider"
	"github.com/mandalnilabja/chatgate/internal/proxy"
	"github.com/mandalnilabja/chatgate/internal/storage"
	"github.com/mandalnilabja/chatgate/internal/tokenizer"
	"github.com/mandalnilabja/chatgate/internal/transport/http/handler"
)

func main() {
	logger := setupLogger()

	if err := config.EnsureConfigFile(); err != nil {
		logger.Error("failed to create config file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.EnsureDataDir(); err != nil {
		logger.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStorage(config.DBPath())
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := ensureAdminUser(store); err != nil {
		logger.Error("setup failed", "error", err)
		os.Exit(1)
	}

	registry, err := provider.NewRegistry(cfg.Providers)
	if err != nil {
		logger.Error("invalid provider configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("provider registry ready", "providers", registry.IDs())

	sessionCache, err := ristretto.NewCache(&ristretto.Config[string, *auth.CachedSession]{
		NumCounters: 1e5,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		logger.Error("failed to create session cache", "error", err)
		os.Exit(1)
	}
	defer sessionCache.Close()

	validator := auth.NewValidator(store, cfg.Providers, sessionCache, logger)

	repo := handler.NewRepo(logger, store, validator, registry,
		proxy.NewForwarder(logger), tokenizer.New())
	repo.RateLimit = cfg.RateLimit

	router := app.NewRouter(repo, logger)
	srv := app.NewServer(cfg, router, logger)

	printStartupBanner(cfg)

	// Serve until interrupted, then drain in-flight requests
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}
}
