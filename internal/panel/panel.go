package panel

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
)

// Subsystem is a named handle registered with the panel.
type Subsystem struct {
	// Name identifies the subsystem in results and maintenance calls.
	Name string
	// Handle is the subsystem itself; see StatusReporter and SignalReporter.
	Handle any
}

var (
	// ErrUnknownSubsystem is returned when a name is not registered with the panel.
	ErrUnknownSubsystem = errors.New("subsystem not found")
	// ErrDuplicateSubsystem is returned when two subsystems share a name.
	ErrDuplicateSubsystem = errors.New("duplicate subsystem name")
	// errEmptyName is returned when a subsystem has no name.
	errEmptyName = errors.New("subsystem name must not be empty")
)

// Option configures a Panel.
type Option func(*Panel)

// WithObserver adds an observer receiving panel events.
func WithObserver(o Observer) Option {
	return func(p *Panel) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// WithClock overrides the clock stamping check results.
func WithClock(now func() time.Time) Option {
	return func(p *Panel) {
		if now != nil {
			p.now = now
		}
	}
}

// entry is one registered subsystem.
type entry struct {
	name        string
	probe       probe
	maintenance bool
}

// Panel is the central alarm interface. It is not safe for concurrent use.
type Panel struct {
	entries   []*entry
	byName    map[string]*entry
	observers Observers
	now       func() time.Time
}

// New registers subsystems in the given order and resolves their capabilities.
// All maintenance flags start off.
func New(subsystems []Subsystem, opts ...Option) (*Panel, error) {
	p := &Panel{
		entries: make([]*entry, 0, len(subsystems)),
		byName:  make(map[string]*entry, len(subsystems)),
		now:     time.Now,
	}

	for _, s := range subsystems {
		if s.Name == "" {
			return nil, errEmptyName
		}

		if _, ok := p.byName[s.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSubsystem, s.Name)
		}

		e := &entry{
			name:  s.Name,
			probe: resolveProbe(s.Handle),
		}

		p.entries = append(p.entries, e)
		p.byName[s.Name] = e
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// SetMaintenanceMode sets the maintenance flag of the named subsystem.
// It returns ErrUnknownSubsystem and changes nothing if the name is not registered.
func (p *Panel) SetMaintenanceMode(ctx context.Context, name string, enabled bool) error {
	e, ok := p.byName[name]
	if !ok {
		p.observers.Observe(ctx, Event{Kind: EventUnknownSubsystem, Subsystem: name})

		return fmt.Errorf("%w: %s", ErrUnknownSubsystem, name)
	}

	e.maintenance = enabled

	p.observers.Observe(ctx, Event{Kind: EventMaintenanceChanged, Subsystem: name, Maintenance: enabled})

	return nil
}

// CheckAlarms reads every subsystem in registration order and computes the
// overall alarm. It never mutates subsystem state.
func (p *Panel) CheckAlarms(ctx context.Context) alarm.Result {
	result := alarm.Result{
		TriggeredSystems: []string{},
		SuppressedAlarms: []string{},
		CheckedAt:        p.now(),
	}

	for _, e := range p.entries {
		if !e.probe.active() {
			continue
		}

		if e.maintenance {
			result.SuppressedAlarms = append(result.SuppressedAlarms, e.name)
			p.observers.Observe(ctx, Event{Kind: EventSuppressed, Subsystem: e.name})

			continue
		}

		result.TriggeredSystems = append(result.TriggeredSystems, e.name)
		result.OverallAlarm = true
		p.observers.Observe(ctx, Event{Kind: EventTriggered, Subsystem: e.name})
	}

	p.observers.Observe(ctx, Event{Kind: EventChecked, OverallAlarm: result.OverallAlarm})

	return result
}

// ResetAll clears the alarm outputs of every subsystem that supports it.
// Subsystems without a reset capability are skipped.
func (p *Panel) ResetAll(ctx context.Context) {
	for _, e := range p.entries {
		e.probe.reset()
	}

	p.observers.Observe(ctx, Event{Kind: EventReset})
}

// Subsystems returns the registered names in registration order.
func (p *Panel) Subsystems() []string {
	names := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		names = append(names, e.name)
	}

	return names
}

// Capability returns how the panel reads the named subsystem.
func (p *Panel) Capability(name string) (Capability, bool) {
	e, ok := p.byName[name]
	if !ok {
		return CapabilityNone, false
	}

	return e.probe.capability, true
}

// Maintenance returns a copy of all maintenance flags.
func (p *Panel) Maintenance() map[string]bool {
	flags := make(map[string]bool, len(p.entries))
	for _, e := range p.entries {
		flags[e.name] = e.maintenance
	}

	return flags
}

// RestoreMaintenance applies persisted flags. Names that are not registered are
// returned so the caller can report them; they do not affect other flags.
func (p *Panel) RestoreMaintenance(ctx context.Context, flags map[string]bool) (unknown []string) {
	for _, e := range p.entries {
		enabled, ok := flags[e.name]
		if !ok || enabled == e.maintenance {
			continue
		}

		e.maintenance = enabled
		p.observers.Observe(ctx, Event{Kind: EventMaintenanceChanged, Subsystem: e.name, Maintenance: enabled})
	}

	for name := range flags {
		if _, ok := p.byName[name]; !ok {
			unknown = append(unknown, name)
		}
	}

	slices.Sort(unknown)

	return unknown
}
