package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	pg "vet-lab-report/internal/adapters/storage/postgres"
	"vet-lab-report/internal/config"
	"vet-lab-report/internal/llm/registry"
	"vet-lab-report/internal/platform/logger"
	"vet-lab-report/internal/platform/metrics"
	"vet-lab-report/internal/router"
)

const (
	janitorInterval = 5 * time.Minute
	shutdownTimeout = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Levanta el servidor HTTP (página + API)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, v, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App.Name,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := registry.New(ctx, cfg.LLM, log)
	if err != nil {
		return err
	}

	opts := router.Options{
		Provider:   provider,
		Model:      cfg.LLM.Model,
		Logger:     log,
		Metrics:    metrics.New(),
		SessionTTL: cfg.App.SessionTTL,
	}

	if cfg.DB.DSN != "" {
		db, err := pg.Open(ctx, cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.DB = db
		log.Info("breed catalog from postgres", nil)
	}

	app, err := router.NewRouter(opts)
	if err != nil {
		return err
	}

	if config.Watch(v, func(next *config.Config, e fsnotify.Event) {
		log.SetLevel(logger.ParseLevel(next.Log.Level))
		log.Info("config reloaded", map[string]any{"file": e.Name, "log_level": next.Log.Level})
	}) {
		log.Debug("watching config", map[string]any{"file": v.ConfigFileUsed()})
	}

	go runJanitor(ctx, app, log)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      app.Handler,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// runJanitor purga sesiones vencidas hasta que ctx se cancele.
func runJanitor(ctx context.Context, app *router.App, log logger.Logger) {
	t := time.NewTicker(janitorInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := app.Intake.PurgeExpired(ctx)
			if err != nil {
				log.Warn("purge sessions", map[string]any{"error": err})
				continue
			}
			if n > 0 {
				log.Debug("sessions purged", map[string]any{"count": n})
			}
		}
	}
}
