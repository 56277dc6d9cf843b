package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"timelog/internal/cli"
	"timelog/internal/core"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// app holds state shared by every subcommand for a single invocation.
type app struct {
	rt     *cli.Runtime
	now    func() time.Time
	stdout io.Writer
	stderr io.Writer
}

func (a *app) context(cmd *cobra.Command) context.Context {
	return a.rt.Context(cmd.Context())
}

// today is the local calendar date.
func (a *app) today() string {
	return core.FormatDate(a.now())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "timelog",
		Short: "timelog – record hours and minutes against calendar days",
		Long: `timelog keeps a local SQLite log of time spent per day, optionally
labelled with a category, and reports monthly and service-year totals.
The service year runs from September 1 to August 31.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rt, err := cli.Bootstrap(cmd.Context(), a.stderr)
			if err != nil {
				return err
			}
			a.rt = rt
			return nil
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.AddCommand(newAddCmd(a))
	root.AddCommand(newEditCmd(a))
	root.AddCommand(newRmCmd(a))
	root.AddCommand(newMonthCmd(a))
	root.AddCommand(newYearCmd(a))
	root.AddCommand(newCategoryCmd(a))
	root.AddCommand(newWatchCmd(a))
	root.AddCommand(newVersionCmd(a))
	return root
}

// execute runs one invocation and releases the store afterwards.
func execute(ctx context.Context, args []string) error {
	return run(ctx, args, &app{now: time.Now, stdout: os.Stdout, stderr: os.Stderr})
}

func run(ctx context.Context, args []string, a *app) error {
	root := newRootCmd(a)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if a.rt != nil {
		if cerr := a.rt.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// exitCode is 1 for input problems and 2 for everything else.
func exitCode(err error) int {
	if errors.Is(err, core.ErrValidation) || errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrDuplicate) {
		return 1
	}
	return 2
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", core.ErrValidation, s)
	}
	return id, nil
}
