package diagnose

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/diagnostics"
	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/report"
	"github.com/oshokin/vessel-alarm/internal/repository/results"
	"github.com/oshokin/vessel-alarm/internal/service/common"
	"github.com/oshokin/vessel-alarm/internal/simulator"
)

// Options controls where diagnostics run and where records go.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Remote runs diagnostics on the panel instead of local simulators.
	Remote bool
	// ServerAddress overrides the panel address in remote mode.
	ServerAddress string
	// OutputDir receives the JSON records file.
	OutputDir string
	// DatabaseURL overrides the configured PostgreSQL DSN.
	DatabaseURL string
}

const (
	// RequirementID is the requirement every diagnostics record covers.
	RequirementID = "REQ-SYS-MNT-001"
	// testIDPrefix precedes the upper-cased subsystem name.
	testIDPrefix = "TC-SYS-MNT-001-"
	// DefaultOutputDir is used when no output directory is given.
	DefaultOutputDir = "test_results"
	// outputDirPermissions applies to a newly created output directory.
	outputDirPermissions = 0o750
)

// ErrChecksFailed is returned after records are written when any subsystem failed.
var ErrChecksFailed = errors.New("diagnostics failed")

// Run executes diagnostics, writes the records and optionally stores them.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-diagnostics")

	cfg, err := loadSettings(opts)
	if err != nil {
		return err
	}

	var outcome *diagnostics.Results

	if opts.Remote {
		outcome, err = runRemote(ctx, cfg, opts.ServerAddress)
	} else {
		outcome = runLocal(ctx, cfg)
	}

	if err != nil {
		return err
	}

	scenarios := diagnostics.RunScenarios(ctx, simulator.WithStepDelay(cfg.StepDelay))
	records := append(Records(outcome), ScenarioRecords(scenarios)...)

	dir := opts.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}

	path, err := WriteRecords(dir, outcome, records)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Diagnostics records written",
		"path", path,
		"run_id", outcome.RunID.String(),
		"passed", outcome.Map())

	databaseURL := cfg.DatabaseURL
	if opts.DatabaseURL != "" {
		databaseURL = opts.DatabaseURL
	}

	if databaseURL != "" {
		if err = store(ctx, databaseURL, outcome, records); err != nil {
			return err
		}
	}

	if !outcome.AllPassed() {
		return fmt.Errorf("%w: %v", ErrChecksFailed, outcome.Map())
	}

	if failed := failedScenarios(scenarios); len(failed) > 0 {
		return fmt.Errorf("%w: scenarios %s", ErrChecksFailed, strings.Join(failed, ", "))
	}

	return nil
}

// loadSettings reads the settings file. Local runs fall back to defaults
// when the file does not exist.
func loadSettings(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)

	switch {
	case err == nil:
		return cfg, nil
	case !opts.Remote && errors.Is(err, os.ErrNotExist):
		return &config.Config{StepDelay: config.DefaultStepDelay, Timeout: config.DefaultTimeout}, nil
	default:
		return nil, fmt.Errorf("load configuration: %w", err)
	}
}

func runLocal(ctx context.Context, cfg *config.Config) *diagnostics.Results {
	logger.Info(ctx, "Running diagnostics on local simulators")

	runner := diagnostics.NewRunner(
		simulator.NewFireDetection(simulator.WithStepDelay(cfg.StepDelay)),
		simulator.NewEmergencyShutdown(),
		simulator.NewBilgeAlarm(simulator.WithStepDelay(cfg.StepDelay)),
	)

	outcome := runner.RunAll(ctx)

	return &outcome
}

func runRemote(ctx context.Context, cfg *config.Config, override string) (*diagnostics.Results, error) {
	serverAddress := cfg.ServerAddress
	if override != "" {
		serverAddress = override
	}

	logger.InfoKV(ctx, "Running diagnostics on the alarm panel", "server_address", serverAddress)

	// The panel runs three simulated steps per call.
	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout+3*cfg.StepDelay))
	if err != nil {
		return nil, fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	return client.RunDiagnostics(ctx)
}

// Records converts the verdicts into one test-result record per subsystem.
func Records(outcome *diagnostics.Results) []report.TestResult {
	records := make([]report.TestResult, 0, len(outcome.Checks))

	for _, check := range outcome.Checks {
		details := make(map[string]any, len(check.Details)+1)
		maps.Copy(details, check.Details)

		if check.Message != "" {
			details["message"] = check.Message
		}

		records = append(records, report.TestResult{
			TestID:        TestID(check.Subsystem),
			RequirementID: RequirementID,
			Result:        check.Passed,
			Details:       details,
		})
	}

	return records
}

// ScenarioRecords converts compliance scenario outcomes into test-result records.
// Scenarios always run on local simulators, also in remote mode.
func ScenarioRecords(scenarios []diagnostics.ScenarioResult) []report.TestResult {
	records := make([]report.TestResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		details := make(map[string]any, len(scenario.Details)+1)
		maps.Copy(details, scenario.Details)

		if scenario.Message != "" {
			details["message"] = scenario.Message
		}

		records = append(records, report.TestResult{
			TestID:        scenario.TestID,
			RequirementID: scenario.RequirementID,
			Result:        scenario.Passed,
			Details:       details,
		})
	}

	return records
}

func failedScenarios(scenarios []diagnostics.ScenarioResult) []string {
	var failed []string

	for _, scenario := range scenarios {
		if !scenario.Passed {
			failed = append(failed, scenario.TestID)
		}
	}

	return failed
}

// TestID names the record of one subsystem.
func TestID(subsystem string) string {
	return testIDPrefix + strings.ToUpper(subsystem)
}

// WriteRecords writes the records of one run as an indented JSON list and returns the file path.
func WriteRecords(dir string, outcome *diagnostics.Results, records []report.TestResult) (string, error) {
	if err := os.MkdirAll(dir, outputDirPermissions); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal records: %w", err)
	}

	path := filepath.Join(dir, "diagnostics_"+outcome.RunID.String()+".json")

	if err = os.WriteFile(path, append(data, '\n'), config.DefaultFilePermissions); err != nil {
		return "", fmt.Errorf("write records: %w", err)
	}

	return path, nil
}

func store(ctx context.Context, databaseURL string, outcome *diagnostics.Results, records []report.TestResult) error {
	pool, err := results.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err = results.Migrate(ctx, pool); err != nil {
		return err
	}

	if err = results.NewStore(pool).SaveRun(ctx, outcome.RunID, outcome.CompletedAt, records); err != nil {
		return fmt.Errorf("store records: %w", err)
	}

	logger.InfoKV(ctx, "Diagnostics records stored", "run_id", outcome.RunID.String(), "records", len(records))

	return nil
}
