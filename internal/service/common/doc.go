// Package common holds helpers shared by several services.
//
// It provides a gRPC client for the alarm panel with per-call timeouts, the
// detection of the current system actor (hostname/username) for the audit
// trail, and a process scan used as a single-instance guard.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
