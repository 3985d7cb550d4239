package simulator

import (
	"errors"
	"time"
)

// PowerStatus names the supply a subsystem currently runs on.
type PowerStatus string

const (
	// PowerMain is the fire system's normal supply.
	PowerMain PowerStatus = "main"
	// PowerEmergency is the fire system's supply after a main power failure.
	PowerEmergency PowerStatus = "emergency"
	// PowerNormal is the bilge system's normal supply.
	PowerNormal PowerStatus = "normal"
	// PowerFailed is the bilge system's state after a power failure.
	PowerFailed PowerStatus = "failed"
)

var (
	// ErrUnknownSensor is returned for a sensor ID the fire system does not have.
	ErrUnknownSensor = errors.New("unknown sensor")
	// ErrUnknownParameter is returned for a sensor parameter other than temp or smoke.
	ErrUnknownParameter = errors.New("unknown sensor parameter")
	// ErrUnknownActivationPoint is returned for a shutdown control point that does not exist.
	ErrUnknownActivationPoint = errors.New("unknown activation point")
	// ErrUnknownCompartment is returned for a bilge compartment that does not exist.
	ErrUnknownCompartment = errors.New("unknown compartment")
)

// Option configures a simulator.
type Option func(*options)

type options struct {
	// stepDelay is how long one simulation step takes in real time.
	stepDelay time.Duration
}

// DefaultStepDelay is the real time one RunSimulation call takes.
const DefaultStepDelay = 100 * time.Millisecond

// WithStepDelay overrides the real time one RunSimulation call takes.
// Zero makes simulation steps instantaneous.
func WithStepDelay(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.stepDelay = d
		}
	}
}

func newOptions(opts []Option) options {
	o := options{stepDelay: DefaultStepDelay}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// sleep blocks for d when d is positive.
func sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
