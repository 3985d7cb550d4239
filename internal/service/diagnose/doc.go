// Package diagnose implements alarm-diagnostics. It runs the subsystem
// self-tests, either on a fresh set of simulators or on a running panel, and
// turns the verdicts into test-result records for the compliance report.
// The compliance scenarios always run locally and add their own records.
//
// Records are written as a JSON list into the output directory and, when a
// database URL is configured, stored in PostgreSQL as one run.
package diagnose
