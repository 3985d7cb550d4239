package reporter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/vessel-alarm/internal/report"
	"github.com/oshokin/vessel-alarm/internal/repository/results"
)

type fakeSource struct {
	records []report.TestResult
	err     error
}

func (f *fakeSource) LatestRun(context.Context) ([]report.TestResult, error) {
	return f.records, f.err
}

// TestGenerate_SwitchesPDFToDocx writes next to the requested name with a .docx extension.
func TestGenerate_SwitchesPDFToDocx(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	records := []report.TestResult{{TestID: "TC-1", RequirementID: "REQ-1", Result: true}}

	err := generate(context.Background(), &Options{Output: filepath.Join(dir, "audit.pdf")}, records, time.Now())
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "audit.docx"))
	require.NoError(t, err)
	require.Positive(t, info.Size())

	_, err = os.Stat(filepath.Join(dir, "audit.pdf"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestGenerate_NoRecords refuses to write an empty report.
func TestGenerate_NoRecords(t *testing.T) {
	t.Parallel()

	err := generate(context.Background(), &Options{Output: filepath.Join(t.TempDir(), "empty")}, nil, time.Now())
	require.ErrorIs(t, err, report.ErrNoResults)
}

// TestLatest wraps store errors.
func TestLatest(t *testing.T) {
	t.Parallel()

	records, err := latest(context.Background(), &fakeSource{records: []report.TestResult{{TestID: "TC-9"}}})
	require.NoError(t, err)
	require.Len(t, records, 1)

	_, err = latest(context.Background(), &fakeSource{err: results.ErrNoRuns})
	require.True(t, errors.Is(err, results.ErrNoRuns))
}

// TestRun_FromDirectory loads records from a directory and writes the report.
func TestRun_FromDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "in")
	require.NoError(t, os.Mkdir(input, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(input, "run.json"),
		[]byte(`[{"test_id":"TC-A","requirement_id":"REQ-A","result":"pass"}]`), 0o600))

	output := filepath.Join(dir, "report.docx")
	require.NoError(t, Run(context.Background(), &Options{Input: input, Output: output}))

	_, err := os.Stat(output)
	require.NoError(t, err)
}
