// Package panel implements the central alarm interface of the vessel.
//
// A Panel aggregates the alarm conditions of its registered subsystems into
// one overall decision. Each subsystem can be put into maintenance mode, which
// moves its active alarm from the triggered list to the suppressed list
// without letting it raise the overall alarm. Suppression is re-evaluated on
// every check and never latched.
//
// Subsystem capabilities are resolved once at registration: a subsystem either
// reports an alarm Status, reports a shutdown signal, or is treated as never
// alarming. Side effects such as logging and metrics go through Observers so
// the aggregation itself stays a pure read of subsystem state.
package panel
