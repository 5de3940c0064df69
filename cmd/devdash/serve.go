package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MurtazaD1410/developer-dashboard/config"
	"github.com/MurtazaD1410/developer-dashboard/internal/query"
	"github.com/MurtazaD1410/developer-dashboard/internal/transport/http/handler"
	"github.com/MurtazaD1410/developer-dashboard/internal/transport/http/router"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored project data over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		log := newLogger(true)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, cfg)
		if err != nil {
			log.Error("Failed to open store", "error", err)
			return err
		}
		defer store.Close()
		log.Info("Database ready", "driver", store.Dialect(), "projects", len(cfg.Projects))

		syncer := newSyncer(cfg, store, log)
		svc := query.New(store, syncer, log, cfg.Sync.PassTimeout)
		r := router.NewRouter(handler.NewProjectHandler(svc, log), log)

		srv := &http.Server{
			Addr:         cfg.HTTPServer.Address,
			Handler:      r,
			ReadTimeout:  cfg.HTTPServer.Timeout,
			WriteTimeout: cfg.HTTPServer.Timeout,
			IdleTimeout:  cfg.HTTPServer.IdleTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("HTTP server starting", "addr", cfg.HTTPServer.Address)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				log.Error("HTTP server failed", "error", err)
				return err
			}
		case <-ctx.Done():
		}

		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown failed", "error", err)
		}

		// Background passes hold the store; let them finish first
		svc.Wait()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
