// Package report turns test-result records into a compliance report.
//
// Records come from a directory of JSON files, a single JSON or CSV file, or
// the results database. The report is a .docx document built with go-docx,
// holding a summary and one table row per record. An optional template
// document keeps its own body, styles and page setup; the report follows it.
package report
