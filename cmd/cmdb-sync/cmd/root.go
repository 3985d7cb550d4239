package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/service/cmdbsync"
	"github.com/oshokin/vessel-alarm/internal/version"
)

var (
	// options collects the flag values.
	options = &cmdbsync.Options{}

	// rootCmd represents the base command for the CMDB sync.
	rootCmd = &cobra.Command{
		Use:   "cmdb-sync",
		Short: "Record the deployed build in the Jira CMDB.",
		Long: `Lists the configuration items of the CMDB project, stamps the first one with
the current build and creates a baseline item for this version.

Jira settings come from the jira section of the configuration file and the
JIRA_URL, JIRA_USER, JIRA_TOKEN, CMDB_PROJECT and CMDB_ISSUE_TYPE variables.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return cmdbsync.Run(ctx, options)
		},
	}
)

// Execute runs the cmdb-sync CLI and exits with non-zero status on error.
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
	flags.StringVar(&options.JQL, "jql", "", "query selecting the items (default: the CMDB project)")
	flags.BoolVar(&options.SkipCreate, "skip-create", false, "do not create a baseline item")
}
