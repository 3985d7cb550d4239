package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// TestResult is one test-result record.
//
// Result may be a bool, a string, a json.Number or nil. Details may be a
// string, a map[string]any or nil.
type TestResult struct {
	TestID        string `json:"test_id"`
	RequirementID string `json:"requirement_id"`
	Result        any    `json:"result"`
	Details       any    `json:"details,omitempty"`
}

const notAvailable = "N/A"

var passValues = map[string]struct{}{
	"pass": {}, "passed": {}, "true": {}, "yes": {}, "y": {}, "1": {},
}

var failValues = map[string]struct{}{
	"fail": {}, "failed": {}, "false": {}, "no": {}, "n": {}, "0": {},
}

// UnmarshalJSON decodes a record, falling back to the "requirement" key when
// "requirement_id" is empty and keeping numbers as json.Number.
func (r *TestResult) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return err
	}

	*r = TestResult{
		TestID:        text(raw["test_id"]),
		RequirementID: text(raw["requirement_id"]),
		Result:        raw["result"],
		Details:       raw["details"],
	}

	if r.RequirementID == "" {
		r.RequirementID = text(raw["requirement"])
	}

	return nil
}

// Passed applies the pass rule to Result.
func (r *TestResult) Passed() bool {
	switch v := r.Result.(type) {
	case bool:
		return v
	case string:
		_, ok := passValues[strings.ToLower(strings.TrimSpace(v))]

		return ok
	case json.Number:
		f, err := v.Float64()

		return err == nil && f != 0
	case float64:
		return v != 0
	case int:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return false
	}
}

// StatusText is PASSED or FAILED.
func (r *TestResult) StatusText() string {
	if r.Passed() {
		return "PASSED"
	}

	return "FAILED"
}

// DisplayTestID returns the test id or N/A.
func (r *TestResult) DisplayTestID() string {
	if r.TestID == "" {
		return notAvailable
	}

	return r.TestID
}

// DisplayRequirement returns the requirement id or N/A.
func (r *TestResult) DisplayRequirement() string {
	if r.RequirementID == "" {
		return notAvailable
	}

	return r.RequirementID
}

// DetailsText renders Details for the report table. Objects become
// "key: value" pairs joined by "; " in key order.
func (r *TestResult) DetailsText() string {
	switch v := r.Details.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}

		slices.Sort(keys)

		parts := make([]string, 0, len(v))
		for _, key := range keys {
			parts = append(parts, key+": "+detailValue(v[key]))
		}

		return strings.Join(parts, "; ")
	default:
		return detailValue(v)
	}
}

// detailValue formats floats with three decimals and booleans as True/False.
func detailValue(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "True"
		}

		return "False"
	case float64:
		return strconv.FormatFloat(x, 'f', 3, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', 3, 32)
	case json.Number:
		if strings.ContainsAny(x.String(), ".eE") {
			if f, err := x.Float64(); err == nil {
				return strconv.FormatFloat(f, 'f', 3, 64)
			}
		}

		return x.String()
	case nil:
		return "None"
	default:
		return fmt.Sprint(x)
	}
}

// normalizeCSVResult maps the textual pass and fail spellings to booleans.
func normalizeCSVResult(value string) any {
	lowered := strings.ToLower(strings.TrimSpace(value))

	if _, ok := passValues[lowered]; ok {
		return true
	}

	if _, ok := failValues[lowered]; ok {
		return false
	}

	return value
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
