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

	"github.com/labstack/echo/v5"
	"github.com/spf13/cobra"

	"github.com/datallboy/gotube/internal/api"
	"github.com/datallboy/gotube/internal/app"
	"github.com/datallboy/gotube/internal/engine"
	"github.com/datallboy/gotube/internal/infra/config"
	"github.com/datallboy/gotube/internal/infra/logger"
	"github.com/datallboy/gotube/internal/platform"
	"github.com/datallboy/gotube/internal/registry"
	"github.com/datallboy/gotube/internal/ws"
	"github.com/datallboy/gotube/internal/ytdlp"
)

const (
	shutdownTimeout = 10 * time.Second

	// Finished jobs linger so reconnecting clients can query them, then get
	// swept.
	pruneInterval = time.Hour
	pruneAge      = 24 * time.Hour
)

func runServe(cmd *cobra.Command) error {
	cfgPath, _ := cmd.Flags().GetString("config")

	// Load config
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
	if err != nil {
		return fmt.Errorf("logger error: %w", err)
	}

	// Make sure the external engine is actually usable before accepting work
	if err := platform.ValidateDependencies(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Download.OutDir, 0755); err != nil {
		return fmt.Errorf("failed to create out_dir: %w", err)
	}

	appCtx := app.NewContext(cfg, log)
	appCtx.Engine = ytdlp.NewClient(cfg, log)

	// Setup Signal Handling for Graceful Shutdown
	// We create a context that is cancelled when the user hits Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := registry.New()

	go func() {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := reg.Prune(pruneAge); n > 0 {
					log.Debug("Pruned %d finished jobs", n)
				}
			}
		}
	}()

	pool := engine.NewPool(appCtx, reg)
	pool.Start(ctx)

	hub := ws.NewHub(log)
	router := ws.NewRouter(appCtx, reg, pool)

	e := echo.New()
	api.RegisterRoutes(e, appCtx, hub, router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: e,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("GoTube listening on %s (out_dir: %s, workers: %d)", srv.Addr, cfg.Download.OutDir, cfg.Pool.Workers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown: %v", err)
	}

	// Let in-flight downloads finish their terminal transitions
	pool.Close()

	log.Info("Process finished successfully.")
	return nil
}
