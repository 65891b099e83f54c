package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"grantstats/internal/cli"
	"grantstats/internal/config"
	"grantstats/internal/core"
	"grantstats/internal/report"
	"grantstats/internal/services"
)

func newReportCmd(a *app) *cobra.Command {
	var tablePath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the sector trends chart from global_sectors_year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := cli.SignalContext(cmd.Context())
			defer stop()

			svc, err := newReportService(a)
			if err != nil {
				return err
			}
			if tablePath == "" {
				tablePath = a.cfg.TablePath(core.GlobalSectorsYear)
			}
			return runReport(ctx, svc, tablePath, cmd)
		},
	}
	cmd.Flags().StringVar(&tablePath, "table", "", "global_sectors_year table to chart (default: in the output directory)")
	return cmd
}

func newReportService(a *app) (*services.ReportService, error) {
	palette := report.DefaultPalette()
	if a.cfg.PaletteFile != "" {
		p, err := report.LoadPalette(a.cfg.PaletteFile)
		if err != nil {
			return nil, err
		}
		palette = p
	}
	return services.NewReportService(a.logger, services.ReportOptions{
		OutputDir: a.cfg.OutputDir,
		Delimiter: a.cfg.DelimiterRune(),
		PNGExport: a.cfg.ReportPNGExport,
		Palette:   palette,
	}), nil
}

func runReport(ctx context.Context, svc *services.ReportService, tablePath string, cmd *cobra.Command) error {
	res, err := svc.Generate(ctx, tablePath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Chart saved to %s\n", res.HTMLPath)
	if res.PNGPath != "" {
		fmt.Fprintf(out, "Image exported to %s\n", res.PNGPath)
	}
	fmt.Fprintf(out, "Open %s in any browser to explore the %d sectors.\n", config.ReportFileName, len(res.Sectors))
	return nil
}
