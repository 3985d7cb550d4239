package results

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oshokin/vessel-alarm/internal/report"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ErrNoRuns is returned when the table holds no records.
var ErrNoRuns = errors.New("no stored test runs")

// Store persists test-result records.
type Store struct {
	db DB
}

// NewStore wraps a connection pool.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// row is the column form of one record.
type row struct {
	id            uuid.UUID
	testID        string
	requirementID string
	passed        bool
	result        []byte
	details       []byte
}

func toRow(record *report.TestResult) (row, error) {
	result, err := json.Marshal(record.Result)
	if err != nil {
		return row{}, fmt.Errorf("encode result of %s: %w", record.TestID, err)
	}

	details, err := json.Marshal(record.Details)
	if err != nil {
		return row{}, fmt.Errorf("encode details of %s: %w", record.TestID, err)
	}

	return row{
		id:            uuid.New(),
		testID:        record.TestID,
		requirementID: record.RequirementID,
		passed:        record.Passed(),
		result:        result,
		details:       details,
	}, nil
}

func fromRow(r *row) (report.TestResult, error) {
	record := report.TestResult{
		TestID:        r.testID,
		RequirementID: r.requirementID,
	}

	var err error

	if record.Result, err = decodeValue(r.result); err != nil {
		return record, fmt.Errorf("decode result of %s: %w", r.testID, err)
	}

	if record.Details, err = decodeValue(r.details); err != nil {
		return record, fmt.Errorf("decode details of %s: %w", r.testID, err)
	}

	return record, nil
}

// decodeValue decodes JSONB keeping numbers as json.Number, matching report.Load.
func decodeValue(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	return value, nil
}

// SaveRun stores every record of one run atomically.
func (s *Store) SaveRun(ctx context.Context, runID uuid.UUID, recordedAt time.Time, records []report.TestResult) error {
	rows := make([]row, 0, len(records))

	for i := range records {
		r, err := toRow(&records[i])
		if err != nil {
			return err
		}

		rows = append(rows, r)
	}

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		for _, r := range rows {
			_, err := tx.Exec(ctx, `
                INSERT INTO test_results
                    (id, run_id, recorded_at, test_id, requirement_id, passed, result, details)
                VALUES
                    ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb)
            `, r.id, runID, recordedAt, r.testID, r.requirementID, r.passed, string(r.result), string(r.details))
			if err != nil {
				return fmt.Errorf("insert test result %s: %w", r.testID, err)
			}
		}

		return nil
	})
}

// LatestRun returns the records of the most recently stored run, ordered by test id.
func (s *Store) LatestRun(ctx context.Context) ([]report.TestResult, error) {
	rows, err := s.db.Query(ctx, `
        SELECT test_id, requirement_id, passed, result, details
        FROM test_results
        WHERE run_id = (SELECT run_id FROM test_results ORDER BY recorded_at DESC LIMIT 1)
        ORDER BY test_id
    `)
	if err != nil {
		return nil, fmt.Errorf("query test results: %w", err)
	}
	defer rows.Close()

	var records []report.TestResult

	for rows.Next() {
		var r row
		if err := rows.Scan(&r.testID, &r.requirementID, &r.passed, &r.result, &r.details); err != nil {
			return nil, fmt.Errorf("scan test result: %w", err)
		}

		record, err := fromRow(&r)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate test results: %w", err)
	}

	if len(records) == 0 {
		return nil, ErrNoRuns
	}

	return records, nil
}
