// Package cmdb is a small Jira REST client for configuration items.
//
// Items live as issues of one type in one project. Requests use basic auth and
// are retried with exponential backoff on transport errors, 429 and 5xx.
package cmdb
