package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Project-Sylos/Tabula/internal/api"
	"github.com/Project-Sylos/Tabula/internal/logging"
	"github.com/Project-Sylos/Tabula/sdk"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := getConfigPath()

	ws, err := sdk.New(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize Tabula: %w", err)
	}
	defer logging.Sync()
	// Deferred after Sync so storage closes first, once every goroutine below returned
	defer func() {
		if err := ws.Close(); err != nil {
			logging.Named("main").Error("failed to close storage", zap.Error(err))
		}
	}()

	logger := logging.Named("main")
	cfg := ws.GetConfig()
	logger.Info("configuration loaded",
		zap.String("path", configPath),
		zap.String("host", cfg.API.Host),
		zap.Int("port", cfg.API.Port))

	server := api.NewServer(ws, &cfg.API)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// Keep the selection in sync with writes made outside the controller
	g.Go(func() error {
		return ws.Watch(gctx)
	})

	if w := ws.NewWatcher(0); w != nil {
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	g.Go(server.Start)

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		logger.Info("server shutdown complete")
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// getConfigPath returns the configuration file path
func getConfigPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return "configs/default.json"
}
