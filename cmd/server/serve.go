package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/soaringjerry/pulse/internal/api"
)

func newServeCommand(cfgPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the analytics HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfgPath(), os.Stdout)
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(ctx, a)
		},
	}
}

// serve runs the HTTP server until ctx is canceled, then drains in-flight
// requests within the configured shutdown timeout.
func serve(ctx context.Context, a *app) error {
	if a.cfg.Environment != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := api.NewRouter(api.Deps{
		Store:     a.store,
		Analytics: a.analytics(),
		Logger:    a.log,
		Metrics:   a.metrics,
		Gatherer:  a.registry,
		Build:     buildInfo(),
	}).Engine()

	sc := a.cfg.Server
	srv := &http.Server{
		Addr:              sc.Addr,
		Handler:           engine,
		ReadTimeout:       sc.ReadTimeout,
		ReadHeaderTimeout: sc.ReadTimeout,
		WriteTimeout:      sc.WriteTimeout,
		IdleTimeout:       sc.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", sc.Addr).Info("pulse listening")
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

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
