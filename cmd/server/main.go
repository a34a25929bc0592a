package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mcoot/whotscan/internal/api"
	"github.com/mcoot/whotscan/internal/config"
	"github.com/mcoot/whotscan/internal/factory"
)

func main() {
	// Configuration comes from WHOTSCAN_* variables and an optional WHOTSCAN_CONFIG file
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	dialCtx, cancelDial := context.WithTimeout(context.Background(), 10*time.Second)
	app, err := factory.New(dialCtx, factory.ConfigFrom(cfg, logger))
	cancelDial()
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer app.Close()

	logger.Info("watching contract",
		slog.String("contract", cfg.Contract.Hex()),
		slog.String("rpc_url", cfg.RPCURL),
		slog.String("storage", cfg.StorageType),
	)

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		GameService: app.GameService,
		HubManager:  app.HubManager,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			app.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		// Close event streams first so Shutdown does not wait on them
		app.HubManager.Close()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			app.Close()
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
