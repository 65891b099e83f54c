package main

import (
	"errors"

	"github.com/spf13/cobra"

	"grantstats/internal/amqp"
	"grantstats/internal/cli"
	applog "grantstats/internal/log"
	"grantstats/internal/worker"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-render the report whenever an aggregate run announces new tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.AMQPURL == "" {
				return errors.New("watch needs AMQP_URL")
			}
			ctx, stop := cli.SignalContext(cmd.Context())
			defer stop()

			svc, err := newReportService(a)
			if err != nil {
				return err
			}
			client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue)
			if err != nil {
				return err
			}
			defer client.Close()

			a.logger.WithComponent(applog.ComponentApp).Info("Watching for aggregation runs",
				"exchange", a.cfg.AMQPExchange,
				"queue", a.cfg.AMQPQueue)
			return worker.NewReportWorker(a.logger, svc).Run(ctx, client)
		},
	}
}
