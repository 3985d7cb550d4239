package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/report"
	"github.com/oshokin/vessel-alarm/internal/service/reporter"
	"github.com/oshokin/vessel-alarm/internal/version"
)

var (
	// options collects the flag values.
	options = &reporter.Options{}

	// rootCmd represents the base command for generating the report.
	rootCmd = &cobra.Command{
		Use:   "compliance-report [input]",
		Short: "Generate a compliance report from test-result records.",
		Long: `Builds a .docx compliance report from test-result records.

Input is a directory of .json files, a single .json file or a .csv file.
With --database-url the latest run stored by alarm-diagnostics is used instead.
A .pdf output name is replaced by .docx; other names get .docx appended.
An optional --template document supplies styles, headers and page layout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if len(args) > 0 {
				options.Input = args[0]
			}

			return reporter.Run(ctx, options)
		},
	}
)

// Execute runs the compliance-report CLI and exits with non-zero status on error.
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
	flags.StringVarP(&options.Output, "output", "o", report.DefaultOutput, "report path")
	flags.StringVarP(&options.Template, "template", "t", "", "optional .docx template")
	flags.StringVar(&options.DatabaseURL, "database-url", "", "load the latest stored run from PostgreSQL")
}
