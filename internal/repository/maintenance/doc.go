// Package maintenance persists the panel's maintenance flags.
//
// FileRepository keeps the flags together with the last actor and change time
// in a protojson file, so an operator's maintenance window survives a panel
// restart. MemoryRepository serves tests and ephemeral panels.
package maintenance
