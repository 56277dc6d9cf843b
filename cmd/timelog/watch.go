package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"timelog/internal/cli"
	"timelog/internal/worker"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print change notifications from the AMQP queue until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cli.ConnectAMQP(a.rt.Config)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, stop := cli.GracefulShutdown(a.context(cmd), a.rt.Logger)
			defer stop()

			w := worker.NewChangeWorker(a.rt.Service, cmd.OutOrStdout())
			err = client.ConsumeChanges(ctx, w.HandleChange)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
