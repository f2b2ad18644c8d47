package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
)

func newPayPeriodCommand(open AppOpener) *cobra.Command {
	var withSummary bool

	cmd := &cobra.Command{
		Use:   "payperiod [date]",
		Short: "Show the pay period containing a date (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(app *cli.App) error {
				loc := app.Config.Location()
				ref := time.Now().In(loc)
				if len(args) == 1 {
					d, err := core.ParseDate(args[0], loc)
					if err != nil {
						return err
					}
					ref = d.Time
				}

				p := app.Summaries.Period(ref)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Pay period %s\n", p.Key)
				fmt.Fprintf(out, "  start: %s\n  end:   %s\n", p.Start, p.End)
				if !withSummary {
					return nil
				}

				sum, err := app.Summaries.ForDate(cmd.Context(), ref)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  income:  %s\n", core.Money{Cents: sum.IncomeCents})
				fmt.Fprintf(out, "  expense: %s\n", core.Money{Cents: sum.ExpenseCents})
				fmt.Fprintf(out, "  net:     %s (%d transactions)\n", sum.Net, sum.TransactionCount)
				for _, c := range sum.Categories {
					fmt.Fprintf(out, "    %-20s %s\n", c.Name, core.Money{Cents: c.Spent})
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&withSummary, "summary", false, "include income and spending totals")
	return cmd
}
