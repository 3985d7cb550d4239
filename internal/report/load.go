package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/vessel-alarm/internal/logger"
)

var (
	// ErrInputNotFound is returned when the input path does not exist.
	ErrInputNotFound = errors.New("input not found")
	// ErrUnsupportedFormat is returned for inputs that are neither a directory nor a .json or .csv file.
	ErrUnsupportedFormat = errors.New("unsupported input format, provide .json, .csv or a directory of JSON files")
	// ErrNoResults is returned when there is nothing to report on.
	ErrNoResults = errors.New("no test results found")
)

// Load reads records from a directory of JSON files or a single JSON or CSV file.
// Unreadable files inside a directory are skipped with a warning.
func Load(ctx context.Context, path string) ([]TestResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}

		return nil, fmt.Errorf("stat input: %w", err)
	}

	var results []TestResult

	switch {
	case info.IsDir():
		logger.InfoKV(ctx, "Loading all JSON results from directory", "path", path)
		results, err = loadDir(ctx, path)
	case hasExt(path, ".json"):
		logger.InfoKV(ctx, "Loading test results from file", "path", path)
		results, err = loadJSONFile(path)
	case hasExt(path, ".csv"):
		logger.InfoKV(ctx, "Loading test results from file", "path", path)
		results, err = loadCSVFile(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Loaded test result records", "count", len(results))

	return results, nil
}

func loadDir(ctx context.Context, dir string) ([]TestResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var results []TestResult

	for _, entry := range entries {
		if entry.IsDir() || !hasExt(entry.Name(), ".json") {
			continue
		}

		records, err := loadJSONFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.WarnKV(ctx, "Skipping unreadable results file", "file", entry.Name(), "error", err)

			continue
		}

		results = append(results, records...)
	}

	return results, nil
}

func loadJSONFile(path string) ([]TestResult, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	results, err := DecodeJSON(contents)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return results, nil
}

// DecodeJSON decodes a single record object or a list of records.
// List entries that are not objects are ignored; any other top-level value yields nothing.
func DecodeJSON(data []byte) ([]TestResult, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '{':
		var record TestResult
		if err := json.Unmarshal(trimmed, &record); err != nil {
			return nil, err
		}

		return []TestResult{record}, nil
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, err
		}

		results := make([]TestResult, 0, len(entries))

		for _, entry := range entries {
			entry = bytes.TrimSpace(entry)
			if len(entry) == 0 || entry[0] != '{' {
				continue
			}

			var record TestResult
			if err := json.Unmarshal(entry, &record); err != nil {
				return nil, err
			}

			results = append(results, record)
		}

		return results, nil
	default:
		return nil, nil
	}
}

func loadCSVFile(path string) ([]TestResult, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	results, err := DecodeCSV(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return results, nil
}

// DecodeCSV reads records from a CSV stream with a header row.
// The result column is normalised to a boolean when it spells pass or fail.
func DecodeCSV(r io.Reader) ([]TestResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, err
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	field := func(row []string, name string) (string, bool) {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return "", false
		}

		return row[i], true
	}

	var results []TestResult

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		record := TestResult{}
		record.TestID, _ = field(row, "test_id")
		record.RequirementID, _ = field(row, "requirement_id")

		if record.RequirementID == "" {
			record.RequirementID, _ = field(row, "requirement")
		}

		if value, ok := field(row, "result"); ok {
			record.Result = normalizeCSVResult(value)
		}

		if details, ok := field(row, "details"); ok {
			record.Details = details
		}

		results = append(results, record)
	}

	return results, nil
}

func hasExt(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}
