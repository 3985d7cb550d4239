package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/service/server"
	"github.com/oshokin/vessel-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile path where maintenance flags are persisted.
	stateFile string
	// httpAddress overrides the health and metrics listener.
	httpAddress string

	// rootCmd represents the base command for running the alarm panel.
	rootCmd = &cobra.Command{
		Use:   "alarm-panel [listen-address]",
		Short: "Run the central alarm panel over the simulated safety systems.",
		Long: `Starts the central alarm panel for the fire detection, emergency shutdown
and bilge alarm systems and serves it over gRPC.

Only the port from server_addr in the configuration is used for listening (e.g., :50051).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:50051).
Maintenance flags are persisted to a JSON file and restored on start.
When http_addr is set, /healthz, /v1/alarms, /v1/maintenance and /metrics are served too.
Alarm snapshots are published to the configured MQTT, AMQP and Kafka sinks when they change.
Only one alarm-panel process may run on a host.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				HTTPAddress:   httpAddress,
				StateFile:     stateFile,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-panel CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&stateFile, "state-file", "s", "", "path to persist maintenance flags (default from config)")
	rootCmd.Flags().StringVar(&httpAddress, "http-addr", "", "health and metrics listen address (default from config)")
}
