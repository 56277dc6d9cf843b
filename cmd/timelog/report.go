package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"timelog/internal/core"
)

func newMonthCmd(a *app) *cobra.Command {
	var (
		offset    int
		totalOnly bool
	)
	cmd := &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Show entries and totals for a calendar month",
		Long: `Show entries and totals for a calendar month. Without an argument the
current month is used; --offset moves relative to it.`,
		Example: `  timelog month
  timelog month 2024-02
  timelog month --offset -1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := a.now()
			if len(args) == 1 {
				t, err := time.Parse("2006-01", args[0])
				if err != nil {
					return fmt.Errorf("%w: month %q must be YYYY-MM", core.ErrInvalidMonth, args[0])
				}
				ref = t
			}
			year, month := core.ShiftMonth(ref.Year(), int(ref.Month()), offset)

			sum, err := a.rt.Service.MonthSummary(a.context(cmd), year, month)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), sum, !totalOnly)
			return nil
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "Shift the month by N (negative for earlier)")
	cmd.Flags().BoolVar(&totalOnly, "totals", false, "Print totals only")
	return cmd
}

func newYearCmd(a *app) *cobra.Command {
	var totalOnly bool
	cmd := &cobra.Command{
		Use:   "year [YYYY-MM-DD]",
		Short: "Show totals for the service year containing a date",
		Long: `Show totals for the service year (September 1 to August 31) that
contains the given date, or today.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := a.now()
			if len(args) == 1 {
				t, err := core.ParseDate(args[0])
				if err != nil {
					return err
				}
				ref = t
			}

			sum, err := a.rt.Service.ServiceYearSummary(a.context(cmd), ref)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), sum, !totalOnly)
			return nil
		},
	}
	cmd.Flags().BoolVar(&totalOnly, "totals", false, "Print totals only")
	return cmd
}

func printSummary(out io.Writer, sum core.Summary, withEntries bool) {
	fmt.Fprintf(out, "%s (%s to %s)\n\n", sum.Label, sum.Window.Start, sum.Window.End)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if withEntries {
		if len(sum.Entries) == 0 {
			fmt.Fprintln(tw, "No entries.")
		} else {
			fmt.Fprintln(tw, "ID\tDATE\tDURATION\tCATEGORY")
			for _, e := range sum.Entries {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Date, core.FormatDuration(e.DurationMinutes()), e.Category)
			}
		}
		fmt.Fprintln(tw)
	}

	for _, ct := range sum.ByCategory {
		fmt.Fprintf(tw, "%s\t%s\n", ct.Name, core.FormatDuration(ct.Minutes))
	}
	fmt.Fprintf(tw, "Total\t%s\n", core.FormatDuration(sum.TotalMinutes))
	tw.Flush()
}
