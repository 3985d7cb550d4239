package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/service/maintenance"
	"github.com/oshokin/vessel-alarm/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string

	// rootCmd groups the on and off subcommands.
	rootCmd = &cobra.Command{
		Use:   "alarm-maintenance",
		Short: "Put panel subsystems into or out of maintenance mode.",
		Long: `Changes the maintenance flag of one alarm panel subsystem (fire, esd, bilge).

Alarms of a subsystem in maintenance are reported as suppressed and do not
raise the overall alarm. The change is recorded with the current user and host.
An unknown subsystem makes the command exit with a non-zero status.`,
	}
)

// newModeCommand builds the on or off subcommand.
func newModeCommand(use string, enabled bool, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <subsystem> [server-address]",
		Short: short,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var serverAddress string
			if len(args) > 1 {
				serverAddress = args[1]
			}

			return maintenance.Run(ctx, &maintenance.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				Subsystem:     args[0],
				Enabled:       enabled,
			})
		},
	}
}

// Execute runs the alarm-maintenance CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	logger.AttachCobraLevelFlag(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")

	rootCmd.AddCommand(
		newModeCommand("on", true, "Enable maintenance mode, suppressing the subsystem's alarms."),
		newModeCommand("off", false, "Disable maintenance mode, returning the subsystem to service."),
	)
}
