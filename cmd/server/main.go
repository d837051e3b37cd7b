package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mafia/internal/app"
	"mafia/internal/config"
	"mafia/internal/storage"
	httpTransport "mafia/internal/transport/http"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set up logger
	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting mafia game server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Open storage; the server runs fine without a database
	var store storage.Store = storage.Nop{}
	if cfg.Storage.DBPath != "" {
		sqlite, err := storage.NewSQLite(cfg.Storage.DBPath)
		if err != nil {
			logger.Error("failed to open database, continuing without persistence",
				"path", cfg.Storage.DBPath, "error", err)
		} else {
			store = sqlite
			logger.Info("database ready", "path", cfg.Storage.DBPath)
		}
	}
	defer store.Close()

	// Create the room registry
	registry := app.NewRegistry(store, logger, app.Options{
		CountdownTicks: cfg.Game.CountdownSeconds,
		DayDuration:    cfg.Game.DayDuration,
		MinRoomSize:    cfg.Game.MinPlayers,
		MaxRoomSize:    cfg.Game.MaxPlayers,
	})
	defer registry.Close()

	// Create HTTP server
	server := httpTransport.NewServer(cfg, registry, store, logger)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
