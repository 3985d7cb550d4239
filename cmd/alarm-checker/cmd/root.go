package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/service/checker"
	"github.com/oshokin/vessel-alarm/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// once prints a single snapshot instead of polling.
	once bool

	// rootCmd represents the base command for polling the alarm panel.
	rootCmd = &cobra.Command{
		Use:   "alarm-checker [server-address]",
		Short: "Monitor the alarm panel.",
		Long: `Polls the alarm panel every 5 seconds and logs the overall alarm together with
the triggered and suppressed subsystems.

Server address can be provided as argument or loaded from configuration file.
With --once a single snapshot is printed to stdout and the command exits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			checkerOptions := &checker.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				Once:          once,
				Output:        cmd.OutOrStdout(),
			}

			return checker.Run(ctx, checkerOptions)
		},
	}
)

// Execute runs the alarm-checker CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	logger.AttachCobraLevelFlag(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().BoolVar(&once, "once", false, "print one snapshot and exit")
}
