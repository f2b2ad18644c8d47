// Package cli provides the startup wiring shared by every binary.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/seed"
	"fintrack/internal/services"
)

// Bootstrap loads and validates configuration, then installs the process
// logger for component.
func Bootstrap(component string) (*config.Config, *applog.Logger, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := applog.Setup(cfg.LogLevel, cfg.LogFormat, component)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// Fatal logs err and exits with status 1.
func Fatal(logger *applog.Logger, msg string, err error) {
	if logger != nil {
		logger.Error(msg, "error", err)
	} else {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	}
	os.Exit(1)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// App holds the store and the services built over it.
type App struct {
	Config       *config.Config
	Store        ports.Store
	Transactions *services.TransactionService
	Summaries    *services.SummaryService
	Processor    *services.RecurringProcessor
	Automation   *services.RecurringAutomation

	cleanup backend.CleanupFunc
}

// NewApp opens the configured backend, wires the services and imports
// cfg.SeedFile when set.
func NewApp(ctx context.Context, cfg *config.Config, factory backend.Factory) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	loc := cfg.Location()
	txs := services.NewTransactionService(res.Store, res.Publisher)
	summaries := services.NewSummaryService(res.Store, loc, cfg.SummaryTTL())
	txs.OnChange(summaries.Invalidate)
	processor := services.NewRecurringProcessor(res.Store, txs)

	app := &App{
		Config:       cfg,
		Store:        res.Store,
		Transactions: txs,
		Summaries:    summaries,
		Processor:    processor,
		Automation:   services.NewRecurringAutomation(processor, res.Store, loc),
		cleanup:      res.Cleanup,
	}

	if cfg.SeedFile != "" {
		if _, err := seed.ImportFile(ctx, res.Store, cfg.SeedFile); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed %s: %w", cfg.SeedFile, err)
		}
	}
	return app, nil
}

func (a *App) Close() error {
	if a.cleanup == nil {
		return nil
	}
	return a.cleanup()
}
