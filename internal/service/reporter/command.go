package reporter

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/report"
	"github.com/oshokin/vessel-alarm/internal/repository/results"
)

// Options controls where records come from and where the report goes.
type Options struct {
	// Input is a directory of .json files, a .json file or a .csv file.
	Input string
	// DatabaseURL loads the latest stored run instead of Input when set.
	DatabaseURL string
	// Output is the report path; see report.OutputPath.
	Output string
	// Template is an optional .docx the report is appended to.
	Template string
}

// DefaultInput is the directory alarm-diagnostics writes to by default.
const DefaultInput = "test_results"

// recordSource loads the latest stored run.
type recordSource interface {
	LatestRun(ctx context.Context) ([]report.TestResult, error)
}

// Run loads the records and writes the report.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "compliance-report")

	var (
		records []report.TestResult
		err     error
	)

	if opts.DatabaseURL != "" {
		records, err = loadFromDatabase(ctx, opts.DatabaseURL)
	} else {
		input := opts.Input
		if input == "" {
			input = DefaultInput
		}

		records, err = report.Load(ctx, input)
	}

	if err != nil {
		return err
	}

	return generate(ctx, opts, records, time.Now())
}

func loadFromDatabase(ctx context.Context, databaseURL string) ([]report.TestResult, error) {
	pool, err := results.Open(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	return latest(ctx, results.NewStore(pool))
}

func latest(ctx context.Context, source recordSource) ([]report.TestResult, error) {
	records, err := source.LatestRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored records: %w", err)
	}

	logger.InfoKV(ctx, "Loaded stored records", "records", len(records))

	return records, nil
}

// generate normalises the output path, writes the report and logs the summary.
func generate(ctx context.Context, opts *Options, records []report.TestResult, now time.Time) error {
	output, switched := report.OutputPath(opts.Output)
	if switched {
		logger.WarnKV(ctx, "PDF output is not supported, writing a .docx report instead", "output", output)
	}

	doc := &report.Document{
		GeneratedAt: now,
		Results:     records,
		Template:    opts.Template,
	}

	if err := report.Write(ctx, output, doc); err != nil {
		return err
	}

	summary := report.Summarize(records)

	logger.InfoKV(ctx, "Compliance summary",
		"total", summary.Total,
		"passed", summary.Passed,
		"failed", summary.Failed,
		"compliant", summary.Compliant())

	return nil
}
