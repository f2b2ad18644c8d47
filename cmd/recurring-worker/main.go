package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/scheduler"
)

func main() {
	cfg, logger, err := cli.Bootstrap(applog.ComponentScheduler)
	if err != nil {
		cli.Fatal(nil, "Configuration validation failed", err)
	}
	logger.Info("Starting recurring-worker")

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	app, err := cli.NewApp(ctx, cfg, backend.NewFactory(logger.Logger))
	if err != nil {
		cli.Fatal(logger, "Failed to initialize application", err)
	}
	defer app.Close()

	sched := scheduler.New(app.Automation, cfg.RecurringCronSpec, cfg.Location())

	// Run once on startup so a worker started after the cron time still
	// catches today's rules.
	sched.Tick()

	if err := sched.Start(); err != nil {
		cli.Fatal(logger, "Failed to start scheduler", err)
	}
	logger.Info("Recurring automation scheduled",
		"spec", cfg.RecurringCronSpec,
		"timezone", cfg.Location().String(),
		"next_run", sched.Next())

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: ":" + cfg.Port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		g.Go(func() error {
			logger.Info("Serving metrics", "port", cfg.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		sched.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Recurring-worker error", "error", err)
		return
	}
	logger.Info("Recurring-worker shutdown complete")
}
