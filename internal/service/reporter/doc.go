// Package reporter implements compliance-report, which turns test-result
// records from files or PostgreSQL into a .docx compliance report.
package reporter
