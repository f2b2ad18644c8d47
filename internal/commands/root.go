// Package commands implements the fintrackctl command tree.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
)

// AppOpener opens the wired application for a command.
type AppOpener func(ctx context.Context) (*cli.App, error)

// DefaultOpener bootstraps configuration from the environment.
func DefaultOpener(ctx context.Context) (*cli.App, error) {
	cfg, logger, err := cli.Bootstrap(applog.ComponentCLI)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(ctx, cfg, backend.NewFactory(logger.Logger))
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(open AppOpener) *cobra.Command {
	if open == nil {
		open = DefaultOpener
	}

	rootCmd := &cobra.Command{
		Use:   "fintrackctl",
		Short: "Pay periods, recurring transactions and seed data from the command line",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newPayPeriodCommand(open),
		newRecurringCommand(open),
		newSeedCommand(open),
	)
	return rootCmd
}

func withApp(cmd *cobra.Command, open AppOpener, fn func(app *cli.App) error) error {
	app, err := open(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
