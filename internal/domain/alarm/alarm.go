package alarm

import (
	"maps"
	"slices"
	"time"
)

// Status is a momentary alarm snapshot of a status-bearing subsystem.
type Status struct {
	// Visual is true while the visual alarm is on.
	Visual bool `json:"visual"`
	// Audible is true while the audible alarm is on.
	Audible bool `json:"audible"`
}

// Active reports whether either alarm channel is on.
func (s Status) Active() bool {
	return s.Visual || s.Audible
}

// Both reports whether both alarm channels are on.
func (s Status) Both() bool {
	return s.Visual && s.Audible
}

// Result is the outcome of one alarm check across all registered subsystems.
type Result struct {
	// OverallAlarm is true when at least one non-suppressed alarm is active.
	OverallAlarm bool `json:"overall_alarm"`
	// TriggeredSystems lists active subsystems outside maintenance, in registration order.
	TriggeredSystems []string `json:"triggered_systems"`
	// SuppressedAlarms lists active subsystems in maintenance, in registration order.
	SuppressedAlarms []string `json:"suppressed_alarms"`
	// CheckedAt is when the check ran.
	CheckedAt time.Time `json:"checked_at"`
}

// SameAlarms reports whether r and other carry the same alarm decision,
// ignoring CheckedAt.
func (r *Result) SameAlarms(other *Result) bool {
	if r == nil || other == nil {
		return r == other
	}

	return r.OverallAlarm == other.OverallAlarm &&
		slices.Equal(r.TriggeredSystems, other.TriggeredSystems) &&
		slices.Equal(r.SuppressedAlarms, other.SuppressedAlarms)
}

// Clone returns a copy of the result that shares no slices with r.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}

	return &Result{
		OverallAlarm:     r.OverallAlarm,
		TriggeredSystems: slices.Clone(r.TriggeredSystems),
		SuppressedAlarms: slices.Clone(r.SuppressedAlarms),
		CheckedAt:        r.CheckedAt,
	}
}

// Actor identifies who performed an action in the system.
type Actor struct {
	// Hostname is the machine name where the action was performed.
	Hostname string
	// Username is the system user who triggered the action.
	Username string
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String renders the actor as username@hostname.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return a.Username + "@" + a.Hostname
}

// MaintenanceState is the persisted set of maintenance flags.
type MaintenanceState struct {
	// Timestamp is when a flag was last changed.
	Timestamp time.Time
	// LastActor is who last changed a flag.
	LastActor *Actor
	// Flags maps subsystem names to their maintenance mode.
	Flags map[string]bool
}

// Clone returns a copy of the state to avoid leaking internal references.
func (s *MaintenanceState) Clone() *MaintenanceState {
	if s == nil {
		return nil
	}

	return &MaintenanceState{
		Timestamp: s.Timestamp,
		LastActor: s.LastActor.Clone(),
		Flags:     maps.Clone(s.Flags),
	}
}
