package simulator

import (
	"fmt"
	"time"
)

// ValveState is the position of a fuel valve.
type ValveState string

const (
	// ValveOpen lets fuel through.
	ValveOpen ValveState = "open"
	// ValveClosed cuts the fuel supply.
	ValveClosed ValveState = "closed"
)

// Fuel valve names.
const (
	MainValve      = "main"
	AuxiliaryValve = "auxiliary"
)

// Activation point names.
const (
	PointBridge     = "bridge"
	PointEngineRoom = "engine_room"
)

const (
	mainValveCloseDelay      = 50 * time.Millisecond
	auxiliaryValveCloseDelay = 30 * time.Millisecond
)

// EmergencyShutdown simulates an ESD system: two fuel valves, two manual
// activation points and a link to the central alarm.
type EmergencyShutdown struct {
	mainValve      ValveState
	auxiliaryValve ValveState
	activated      map[string]bool
	connected      bool
	signalSent     bool
}

// NewEmergencyShutdown creates an armed ESD system with both valves open.
func NewEmergencyShutdown() *EmergencyShutdown {
	return &EmergencyShutdown{
		mainValve:      ValveOpen,
		auxiliaryValve: ValveOpen,
		activated: map[string]bool{
			PointBridge:     false,
			PointEngineRoom: false,
		},
		connected: true,
	}
}

// ActivateShutdown trips the ESD from the named control point. It closes the
// main valve, then the auxiliary valve, signals the central alarm and returns
// the time the sequence took.
func (e *EmergencyShutdown) ActivateShutdown(point string) (time.Duration, error) {
	if _, ok := e.activated[point]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownActivationPoint, point)
	}

	e.activated[point] = true
	start := time.Now()

	sleep(mainValveCloseDelay)
	e.mainValve = ValveClosed

	sleep(auxiliaryValveCloseDelay)
	e.auxiliaryValve = ValveClosed

	e.signalSent = true

	return time.Since(start), nil
}

// ValveStatus returns the position of every fuel valve.
func (e *EmergencyShutdown) ValveStatus() map[string]ValveState {
	return map[string]ValveState{
		MainValve:      e.mainValve,
		AuxiliaryValve: e.auxiliaryValve,
	}
}

// AllValvesClosed reports whether the fuel supply is fully cut.
func (e *EmergencyShutdown) AllValvesClosed() bool {
	return e.mainValve == ValveClosed && e.auxiliaryValve == ValveClosed
}

// ReopenValves opens both fuel valves and re-arms the activation points.
func (e *EmergencyShutdown) ReopenValves() {
	e.mainValve = ValveOpen
	e.auxiliaryValve = ValveOpen

	for point := range e.activated {
		e.activated[point] = false
	}
}

// Activated reports whether the named control point has tripped.
func (e *EmergencyShutdown) Activated(point string) bool {
	return e.activated[point]
}

// SignalSent reports whether the shutdown signal reached the central alarm.
func (e *EmergencyShutdown) SignalSent() bool {
	return e.signalSent
}

// ClearSignal resets the alarm signal.
func (e *EmergencyShutdown) ClearSignal() {
	e.signalSent = false
}

// Connected reports whether the alarm link is up.
func (e *EmergencyShutdown) Connected() bool {
	return e.connected
}
