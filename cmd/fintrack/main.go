package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
)

func main() {
	cfg, logger, err := cli.Bootstrap(applog.ComponentApp)
	if err != nil {
		cli.Fatal(nil, "Configuration validation failed", err)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	app, err := cli.NewApp(ctx, cfg, backend.NewFactory(logger.Logger))
	if err != nil {
		cli.Fatal(logger, "Failed to initialize application", err)
	}
	defer app.Close()

	// Catch up on rules due today; the day guard makes this a no-op when a
	// worker already ran.
	if res, err := app.Automation.Run(ctx, time.Now()); err != nil {
		logger.Error("Startup recurring run failed", "error", err)
	} else if res.Ran {
		logger.Info("Startup recurring run complete", "day", res.Day, "message", res.Summary.Message())
	}

	caches := cache.NewManager()
	caches.Register(app.Summaries.Cache())
	caches.Start(ctx, 10*time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:          app.Store,
		Transactions:   app.Transactions,
		Summaries:      app.Summaries,
		Automation:     app.Automation,
		Location:       cfg.Location(),
		Logger:         logger.WithComponent(applog.ComponentHTTP),
		MetricsEnabled: cfg.MetricsEnabled,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		return
	}
	logger.Info("Server stopped gracefully")
}
