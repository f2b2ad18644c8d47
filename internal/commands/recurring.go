package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
)

func newRecurringCommand(open AppOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Inspect and apply recurring rules",
	}
	cmd.AddCommand(newRecurringRunCommand(open))
	return cmd
}

func newRecurringRunCommand(open AppOpener) *cobra.Command {
	var date string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply due recurring rules once for the day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(app *cli.App) error {
				loc := app.Config.Location()
				now := time.Now().In(loc)
				if date != "" {
					d, err := core.ParseDate(date, loc)
					if err != nil {
						return err
					}
					now = d.Time
				}
				out := cmd.OutOrStdout()

				if dryRun {
					rules, err := app.Store.ListRules(cmd.Context())
					if err != nil {
						return err
					}
					scan := app.Processor.Scan(rules, core.DateOf(now))
					for _, p := range scan.Due {
						fmt.Fprintf(out, "due      %s %s (%s)\n", p.Date, p.Rule.Name, p.Rule.Amount)
					}
					for _, s := range scan.Skipped {
						fmt.Fprintf(out, "skipped  %s: %s\n", s.Name, s.Reason)
					}
					fmt.Fprintf(out, "%d due, %d skipped\n", len(scan.Due), len(scan.Skipped))
					return nil
				}

				res, err := app.Automation.Run(cmd.Context(), now)
				if err != nil {
					return err
				}
				if !res.Ran {
					fmt.Fprintf(out, "Recurring transactions already processed for %s\n", res.Day)
					return nil
				}
				fmt.Fprintln(out, res.Summary.Message())
				for _, f := range res.Summary.Failed {
					fmt.Fprintf(out, "  failed %s: %v\n", f.Name, f.Err)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "run as of this day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list due rules without applying them")
	return cmd
}
