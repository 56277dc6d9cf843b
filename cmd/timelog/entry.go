package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"timelog/internal/core"
)

// durationFlags are shared by add and edit.
type durationFlags struct {
	date     string
	hours    int
	minutes  int
	duration string
	category string
}

func (f *durationFlags) register(cmd *cobra.Command, dateDefault string) {
	cmd.Flags().StringVar(&f.date, "date", dateDefault, "Day of the entry (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.hours, "hours", 0, "Hours (0-99)")
	cmd.Flags().IntVar(&f.minutes, "minutes", 0, "Minutes (0-59)")
	cmd.Flags().StringVarP(&f.duration, "duration", "d", "", `Duration such as "1:30", "1h30m" or "90m"`)
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Category name")
	cmd.MarkFlagsMutuallyExclusive("duration", "hours")
	cmd.MarkFlagsMutuallyExclusive("duration", "minutes")
}

func newAddCmd(a *app) *cobra.Command {
	var f durationFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log time for a day",
		Example: `  timelog add --hours 1 --minutes 30 --category Study
  timelog add --date 2025-03-10 -d 2h15m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := core.Entry{Date: f.date, Category: f.category, Hours: f.hours, Minutes: f.minutes}
			if e.Date == "" {
				e.Date = a.today()
			}
			if f.duration != "" {
				h, m, err := core.ParseHoursMinutes(f.duration)
				if err != nil {
					return err
				}
				e.Hours, e.Minutes = h, m
			}

			ctx := a.context(cmd)
			id, err := a.rt.Service.AddEntry(ctx, e)
			if err != nil {
				return err
			}
			if e, err = a.rt.Service.GetEntry(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", describeEntry(e))
			return nil
		},
	}
	f.register(cmd, "")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var (
		f             durationFlags
		clearCategory bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an existing entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var changes core.EntryChanges
			flags := cmd.Flags()
			if flags.Changed("date") {
				changes.Date = &f.date
			}
			if flags.Changed("hours") {
				changes.Hours = &f.hours
			}
			if flags.Changed("minutes") {
				changes.Minutes = &f.minutes
			}
			if f.duration != "" {
				h, m, err := core.ParseHoursMinutes(f.duration)
				if err != nil {
					return err
				}
				changes.Hours, changes.Minutes = &h, &m
			}
			if flags.Changed("category") {
				changes.Category = &f.category
			}
			if clearCategory {
				empty := ""
				changes.Category = &empty
			}
			if changes.IsEmpty() {
				return fmt.Errorf("%w: nothing to change", core.ErrValidation)
			}

			ctx := a.context(cmd)
			if _, err := a.rt.Service.UpdateEntry(ctx, id, changes); err != nil {
				return err
			}
			e, err := a.rt.Service.GetEntry(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", describeEntry(e))
			return nil
		},
	}
	f.register(cmd, "")
	cmd.Flags().BoolVar(&clearCategory, "clear-category", false, "Remove the category label")
	cmd.MarkFlagsMutuallyExclusive("category", "clear-category")
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.rt.Service.DeleteEntry(a.context(cmd), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %d\n", id)
			return nil
		},
	}
}

// describeEntry renders "entry 3: 2025-03-10 1h 30m [Study]".
func describeEntry(e core.Entry) string {
	s := fmt.Sprintf("entry %d: %s %s", e.ID, e.Date, core.FormatDuration(e.DurationMinutes()))
	if !e.Uncategorized() {
		s += fmt.Sprintf(" [%s]", e.Category)
	}
	return s
}
