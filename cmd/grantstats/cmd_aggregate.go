package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"grantstats/internal/amqp"
	"grantstats/internal/backend"
	"grantstats/internal/cli"
	"grantstats/internal/dataset"
	applog "grantstats/internal/log"
	"grantstats/internal/services"
)

func newAggregateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate",
		Short: "Build the four summary tables from the input file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := cli.SignalContext(cmd.Context())
			defer stop()
			return runAggregate(ctx, a, cmd)
		},
	}
}

func runAggregate(ctx context.Context, a *app, cmd *cobra.Command) error {
	log := a.logger.WithComponent(applog.ComponentApp)

	sinkCfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return err
	}
	sinks, err := backend.NewFactory(a.logger).CreateSinks(ctx, sinkCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Cleanup(); err != nil {
			log.Warn("Failed to close sinks", applog.FieldError, err)
		}
	}()

	var publisher services.Publisher
	if a.cfg.AMQPURL != "" {
		client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		defer client.Close()
		publisher = client
		log.Info("Run notifications enabled",
			"exchange", a.cfg.AMQPExchange,
			"queue", a.cfg.AMQPQueue)
	}

	opts := dataset.DefaultOptions()
	opts.Delimiter = a.cfg.DelimiterRune()
	opts.ExcludedDivision = a.cfg.ExcludedDivision

	svc := services.NewAggregateService(a.logger, sinks.Primary, sinks.Extras, publisher, opts)
	res, err := svc.Run(ctx, a.cfg.InputFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Aggregated %d records (%d excluded, %d with unknown year)\n",
		res.Records, res.Excluded, res.UnknownYears)
	for _, t := range res.Tables {
		fmt.Fprintf(out, "  %-26s %6d rows  %s\n", t.Kind, len(t.Rows), a.cfg.TablePath(t.Kind))
	}
	fmt.Fprintf(out, "Digest: %s\n", res.Digest)
	return nil
}
