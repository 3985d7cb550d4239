package panel

import (
	"context"

	"github.com/oshokin/vessel-alarm/internal/logger"
)

// EventKind classifies a panel event.
type EventKind int

const (
	// EventTriggered is emitted for each subsystem contributing to the overall alarm.
	EventTriggered EventKind = iota + 1
	// EventSuppressed is emitted for each active subsystem held back by maintenance mode.
	EventSuppressed
	// EventMaintenanceChanged is emitted when a maintenance flag is set.
	EventMaintenanceChanged
	// EventUnknownSubsystem is emitted when a flag is set for an unregistered name.
	EventUnknownSubsystem
	// EventReset is emitted once after ResetAll.
	EventReset
	// EventChecked is emitted once at the end of every check.
	EventChecked
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventTriggered:
		return "triggered"
	case EventSuppressed:
		return "suppressed"
	case EventMaintenanceChanged:
		return "maintenance_changed"
	case EventUnknownSubsystem:
		return "unknown_subsystem"
	case EventReset:
		return "reset"
	case EventChecked:
		return "checked"
	default:
		return "unknown"
	}
}

// Event is something the panel reports to its observers.
type Event struct {
	Kind EventKind
	// Subsystem is empty for EventReset and EventChecked.
	Subsystem string
	// Maintenance is the new flag for EventMaintenanceChanged.
	Maintenance bool
	// OverallAlarm is the decision carried by EventChecked.
	OverallAlarm bool
}

// Observer receives panel events. Implementations must not call back into the panel.
type Observer interface {
	Observe(ctx context.Context, event Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event Event)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, event Event) {
	f(ctx, event)
}

// Observers fans one event out to several observers in order.
type Observers []Observer

// Observe forwards event to every observer.
func (o Observers) Observe(ctx context.Context, event Event) {
	for _, observer := range o {
		observer.Observe(ctx, event)
	}
}

// LogObserver writes panel events through the context logger.
type LogObserver struct{}

// Observe logs event at a level matching its severity.
func (LogObserver) Observe(ctx context.Context, event Event) {
	switch event.Kind {
	case EventTriggered:
		logger.InfoKV(ctx, "Alarm contributing to overall alarm", "subsystem", event.Subsystem)
	case EventSuppressed:
		logger.InfoKV(ctx, "Alarm suppressed due to maintenance mode", "subsystem", event.Subsystem)
	case EventMaintenanceChanged:
		logger.InfoKV(ctx, "Maintenance mode changed", "subsystem", event.Subsystem, "enabled", event.Maintenance)
	case EventUnknownSubsystem:
		logger.ErrorKV(ctx, "Subsystem not found in alarm panel", "subsystem", event.Subsystem)
	case EventReset:
		logger.Info(ctx, "All subsystem alarms have been reset")
	case EventChecked:
		logger.DebugKV(ctx, "Alarm check completed", "overall_alarm", event.OverallAlarm)
	}
}
