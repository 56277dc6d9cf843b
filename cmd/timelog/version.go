package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"timelog/internal/storage"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the program and database schema versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.rt.Store.SchemaVersion(a.context(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "timelog %s (schema %d/%d, %s)\n", Version, v, storage.SchemaVersion, a.rt.Config.DBPath)
			return nil
		},
	}
}
