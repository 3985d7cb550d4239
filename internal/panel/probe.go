package panel

import (
	"reflect"

	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
)

// StatusReporter is a subsystem with visual and audible alarm outputs.
type StatusReporter interface {
	AlarmStatus() alarm.Status
}

// SignalReporter is a subsystem that signals the central alarm directly,
// like an emergency shutdown system.
type SignalReporter interface {
	SignalSent() bool
}

// AlarmClearer is a status-bearing subsystem whose outputs can be reset.
type AlarmClearer interface {
	ClearAlarms()
}

// SignalClearer is a signal-bearing subsystem whose signal can be reset.
type SignalClearer interface {
	ClearSignal()
}

// Capability is how the panel reads a subsystem's alarm condition.
type Capability int

const (
	// CapabilityNone marks a subsystem the panel cannot read; it never alarms.
	CapabilityNone Capability = iota
	// CapabilityStatus marks a subsystem read through StatusReporter.
	CapabilityStatus
	// CapabilitySignal marks a subsystem read through SignalReporter.
	CapabilitySignal
)

// String returns the capability name.
func (c Capability) String() string {
	switch c {
	case CapabilityStatus:
		return "status"
	case CapabilitySignal:
		return "signal"
	default:
		return "none"
	}
}

// probe reads and resets one subsystem through its resolved capability.
type probe struct {
	capability Capability
	active     func() bool
	reset      func()
}

// resolveProbe picks the capability of handle. A status reporter wins over a
// signal reporter when a handle implements both. A nil handle, typed or not,
// cannot be read.
func resolveProbe(handle any) probe {
	if isNil(handle) {
		return unreadable()
	}

	switch h := handle.(type) {
	case StatusReporter:
		p := probe{
			capability: CapabilityStatus,
			active:     func() bool { return h.AlarmStatus().Active() },
			reset:      func() {},
		}

		if c, ok := handle.(AlarmClearer); ok {
			p.reset = c.ClearAlarms
		}

		return p
	case SignalReporter:
		p := probe{
			capability: CapabilitySignal,
			active:     h.SignalSent,
			reset:      func() {},
		}

		if c, ok := handle.(SignalClearer); ok {
			p.reset = c.ClearSignal
		}

		return p
	default:
		return unreadable()
	}
}

func unreadable() probe {
	return probe{
		capability: CapabilityNone,
		active:     func() bool { return false },
		reset:      func() {},
	}
}

func isNil(handle any) bool {
	if handle == nil {
		return true
	}

	v := reflect.ValueOf(handle)

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
