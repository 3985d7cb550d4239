package report

import (
	"fmt"
	"slices"
	"strings"
)

// Summary aggregates a set of records.
type Summary struct {
	Total        int
	Passed       int
	Failed       int
	Requirements int
	// NonCompliant lists the requirements of failed records, sorted and unique.
	NonCompliant []string
}

// Summarize counts records and collects requirement coverage.
func Summarize(results []TestResult) Summary {
	var (
		summary      = Summary{Total: len(results)}
		requirements = make(map[string]struct{})
		failed       []string
	)

	for i := range results {
		requirement := results[i].RequirementID
		if requirement != "" {
			requirements[requirement] = struct{}{}
		}

		if results[i].Passed() {
			summary.Passed++

			continue
		}

		summary.Failed++

		if requirement != "" {
			failed = append(failed, requirement)
		}
	}

	slices.Sort(failed)
	summary.NonCompliant = slices.Compact(failed)
	summary.Requirements = len(requirements)

	return summary
}

// Compliant reports whether every record passed.
func (s Summary) Compliant() bool {
	return s.Failed == 0
}

// Coverage is the first sentence of the summary.
func (s Summary) Coverage() string {
	return fmt.Sprintf("%d tests were executed, covering %d requirements. ", s.Total, s.Requirements)
}

// Text is the full summary sentence.
func (s Summary) Text() string {
	if s.Compliant() {
		return s.Coverage() + "All tests passed, indicating full compliance with the tested requirements."
	}

	return s.Coverage() + fmt.Sprintf("%d passed, %d failed. The system is NOT fully compliant.", s.Passed, s.Failed)
}

// NonCompliantText lists failed requirements, or is empty when there are none.
func (s Summary) NonCompliantText() string {
	if len(s.NonCompliant) == 0 {
		return ""
	}

	return "Non-compliant requirements: " + strings.Join(s.NonCompliant, ", ")
}
