// Package alarm contains the core domain types of the vessel alarm panel.
//
// Status is a momentary subsystem alarm snapshot, Result is the outcome of one
// panel check, and MaintenanceState is the persisted set of maintenance flags
// together with the Actor that last changed them.
package alarm
