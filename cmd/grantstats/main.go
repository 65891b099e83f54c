package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"grantstats/internal/cli"
	"grantstats/internal/config"
	applog "grantstats/internal/log"
)

// app carries what every subcommand needs once the root has set it up.
type app struct {
	overrides cli.Overrides
	cfg       *config.Config
	logger    *applog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "grantstats",
		Short: "Aggregate grant funding by sector, year and grantee and chart the trends",
		Long: `grantstats reads a grant commitment file, writes four summary tables
(global_sectors, global_sectors_year, global_sectors_org, global_sectors_year_org)
and renders the per-year sector table as a self-contained HTML report.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadConfig(a.overrides)
			if err != nil {
				return err
			}
			logger, err := cli.SetupLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.overrides.InputFile, "input", "i", "", "input record file (overrides GRANTS_INPUT_FILE)")
	flags.StringVarP(&a.overrides.OutputDir, "output-dir", "o", "", "directory for tables and report (overrides GRANTS_OUTPUT_DIR)")
	flags.StringVar(&a.overrides.LogLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	root.AddCommand(newAggregateCmd(a), newReportCmd(a), newWatchCmd(a))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
