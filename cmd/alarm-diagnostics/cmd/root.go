package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/service/diagnose"
	"github.com/oshokin/vessel-alarm/internal/version"
)

var (
	// options collects the flag values.
	options = &diagnose.Options{}

	// rootCmd represents the base command for running diagnostics.
	rootCmd = &cobra.Command{
		Use:   "alarm-diagnostics",
		Short: "Run the safety system self-tests and record the results.",
		Long: `Runs the fire detection, emergency shutdown and bilge alarm self-tests.

By default the tests run on a fresh set of local simulators. With --remote they
run on the alarm panel, which restores its simulators afterwards.
One test-result record per subsystem (TC-SYS-MNT-001-<SUBSYSTEM>, requirement
REQ-SYS-MNT-001) is written as JSON into the output directory and, when a
database URL is configured, stored in PostgreSQL.
The command exits with a non-zero status when any subsystem fails.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return diagnose.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-diagnostics CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	logger.AttachCobraLevelFlag(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.BoolVar(&options.Remote, "remote", false, "run on the alarm panel instead of local simulators")
	flags.StringVar(&options.ServerAddress, "server", "", "alarm panel address for --remote (default from config)")
	flags.StringVarP(&options.OutputDir, "output", "o", diagnose.DefaultOutputDir, "directory for the JSON records")
	flags.StringVar(&options.DatabaseURL, "database-url", "", "PostgreSQL DSN for storing records (default from config)")
}
