package alarm

import (
	"errors"
	"fmt"
)

// StimulusKind names a fault that can be injected into a running subsystem.
type StimulusKind string

const (
	// StimulusSensor sets one fire sensor reading. Target is the sensor,
	// Parameter is temp or smoke.
	StimulusSensor StimulusKind = "sensor"
	// StimulusWaterLevel sets the water level of one bilge compartment.
	StimulusWaterLevel StimulusKind = "water_level"
	// StimulusShutdown activates the emergency shutdown from the control point in Target.
	StimulusShutdown StimulusKind = "shutdown"
	// StimulusPowerFailure cuts the main supply of the fire or bilge system.
	StimulusPowerFailure StimulusKind = "power_failure"
	// StimulusRestore returns the subsystem to its idle readings and normal power.
	StimulusRestore StimulusKind = "restore"
)

// ErrInvalidStimulus is returned for a stimulus the subsystem cannot accept.
var ErrInvalidStimulus = errors.New("invalid stimulus")

// Stimulus is one injected fault. Empty Target picks the subsystem's first
// sensor, compartment or control point.
type Stimulus struct {
	Subsystem string       `json:"subsystem"`
	Kind      StimulusKind `json:"kind"`
	Target    string       `json:"target,omitempty"`
	Parameter string       `json:"parameter,omitempty"`
	Value     float64      `json:"value,omitempty"`
}

// Validate checks the fields every stimulus needs.
func (s *Stimulus) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: missing", ErrInvalidStimulus)
	}

	if s.Subsystem == "" {
		return fmt.Errorf("%w: subsystem is required", ErrInvalidStimulus)
	}

	switch s.Kind {
	case StimulusSensor, StimulusWaterLevel, StimulusShutdown, StimulusPowerFailure, StimulusRestore:
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidStimulus, s.Kind)
	}
}
