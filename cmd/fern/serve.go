package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/routes/export"
	"github.com/Ramsey-B/fern/pkg/routes/registryview"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the export API server",
	Long:  "Start the HTTP server exposing export, validation, registry and health endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer app.close(context.Background())

		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		e.HTTPErrorHandler = middleware.Error(app.logger)

		e.Use(otelecho.Middleware(app.cfg.AppName))
		e.Use(middleware.Context())
		e.Use(middleware.Logger(app.logger))
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: app.cfg.AllowOrigins,
			AllowMethods: app.cfg.AllowMethods,
		}))

		e.Server.ReadTimeout = time.Duration(app.cfg.HttpServerReadTimeoutSeconds) * time.Second
		e.Server.WriteTimeout = time.Duration(app.cfg.HttpServerWriteTimeoutSeconds) * time.Second
		e.Server.IdleTimeout = time.Duration(app.cfg.HttpServerIdleTimeoutSeconds) * time.Second

		api := e.Group("/api/v1")
		export.Register(api)
		registryview.Register(api)
		app.health.RegisterRoutes(e)
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

		errCh := make(chan error, 1)
		go func() {
			errCh <- e.Start(fmt.Sprintf(":%d", app.cfg.Port))
		}()
		app.health.SetReady(true)
		app.logger.WithContext(ctx).WithField("port", app.cfg.Port).Info("server started")

		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return err
			}
		case <-ctx.Done():
			app.health.SetReady(false)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				return err
			}
		}

		return nil
	},
}
