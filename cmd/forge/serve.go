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

	"weaponforge/internal/forge"
	"weaponforge/internal/observability"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the forge HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("addr") {
			serveAddr = cfg.HTTPAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		metrics := observability.NewMetrics()
		svc, cleanup, err := newService(ctx, metrics, true)
		if err != nil {
			return err
		}
		defer cleanup()

		if cfg.MetricsPort != "" {
			observability.Start(cfg.MetricsPort, metrics, logger)
		}

		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           forge.Handler(svc, metrics),
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			logger.Info("http.listen", "addr", serveAddr, "backend", cfg.GenerationBackend, "mode", cfg.ExtractMode)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		logger.Info("http.shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}
