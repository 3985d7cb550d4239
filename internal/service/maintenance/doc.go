// Package maintenance implements alarm-maintenance, the operator command that
// puts a panel subsystem into or out of maintenance mode.
//
// The command identifies the operator, asks the panel to change the flag and
// retries while the panel is unreachable. Unknown subsystems and rejected
// requests fail immediately.
package maintenance
