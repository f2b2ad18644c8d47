package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/seed"
)

func newSeedCommand(open AppOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Import categories and recurring rules from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(app *cli.App) error {
				res, err := seed.ImportFile(cmd.Context(), app.Store, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d categories and %d recurring rules (%d already present)\n",
					res.CategoriesCreated, res.RulesCreated, res.Skipped)
				return nil
			})
		},
	}
}
