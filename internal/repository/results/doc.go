// Package results stores test-result records in PostgreSQL.
//
// Each diagnostics run is saved in one transaction under its run id, and the
// compliance report can read back the latest run.
package results
