package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/simulator"
)

// Subsystem names used in results.
const (
	SubsystemFire  = "fire"
	SubsystemESD   = "esd"
	SubsystemBilge = "bilge"
)

// Stimulus parameters of the self-test.
const (
	fireTestSensor      = "sensor_1"
	fireTestTemperature = 60.0
	fireTestSmoke       = 0.5
	bilgeTestMargin     = 1.0
	shutdownTestPoint   = simulator.PointBridge
	simulationDuration  = time.Second
)

// FireUnit is what the self-test needs from a fire detection system.
type FireUnit interface {
	ClearAlarms()
	SetSensorValue(sensorID string, param simulator.Parameter, value float64) error
	RunSimulation(d time.Duration)
	AlarmStatus() alarm.Status
}

// ShutdownUnit is what the self-test needs from an emergency shutdown system.
type ShutdownUnit interface {
	ReopenValves()
	ClearSignal()
	ActivateShutdown(point string) (time.Duration, error)
	ValveStatus() map[string]simulator.ValveState
	SignalSent() bool
}

// BilgeUnit is what the self-test needs from a bilge alarm system.
type BilgeUnit interface {
	ClearAlarms()
	Compartments() []simulator.Compartment
	SetWaterLevel(compartmentID string, level float64) error
	RunSimulation(d time.Duration)
	AlarmStatus() alarm.Status
}

var (
	errNotConfigured   = errors.New("subsystem not configured")
	errNoCompartments  = errors.New("bilge system has no compartments")
	errAlarmsInactive  = errors.New("alarms not triggered as expected")
	errShutdownIncompl = errors.New("shutdown or alarm signal not as expected")
)

// Check is the outcome of one subsystem's self-test.
type Check struct {
	Subsystem string
	Passed    bool
	// Message explains a failure; empty on success.
	Message string
	// Details carries the observations the verdict was based on.
	Details map[string]any
}

// Results is the outcome of one full diagnostics run.
type Results struct {
	RunID       uuid.UUID
	CompletedAt time.Time
	Fire        bool
	ESD         bool
	Bilge       bool
	// Checks holds one entry per subsystem in fire, esd, bilge order.
	Checks []Check
}

// Map returns the verdicts keyed by subsystem name.
func (r *Results) Map() map[string]bool {
	return map[string]bool{
		SubsystemFire:  r.Fire,
		SubsystemESD:   r.ESD,
		SubsystemBilge: r.Bilge,
	}
}

// AllPassed reports whether every subsystem passed.
func (r *Results) AllPassed() bool {
	return r.Fire && r.ESD && r.Bilge
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock overrides the clock stamping runs.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// Runner drives the self-test of the three subsystems. It is not safe for concurrent use.
type Runner struct {
	fire    FireUnit
	esd     ShutdownUnit
	bilge   BilgeUnit
	now     func() time.Time
	lastRun time.Time
}

// NewRunner creates a runner over the given subsystems. A nil subsystem fails its test.
func NewRunner(fire FireUnit, esd ShutdownUnit, bilge BilgeUnit, opts ...Option) *Runner {
	r := &Runner{
		fire:  fire,
		esd:   esd,
		bilge: bilge,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RunAll tests every subsystem and records the completion time.
func (r *Runner) RunAll(ctx context.Context) Results {
	results := Results{RunID: uuid.New()}
	ctx = logger.WithKV(ctx, "run_id", results.RunID.String())

	checks := []Check{
		r.run(ctx, SubsystemFire, r.testFire),
		r.run(ctx, SubsystemESD, r.testShutdown),
		r.run(ctx, SubsystemBilge, r.testBilge),
	}

	results.Fire = checks[0].Passed
	results.ESD = checks[1].Passed
	results.Bilge = checks[2].Passed
	results.Checks = checks

	r.lastRun = r.now()
	results.CompletedAt = r.lastRun

	logger.InfoKV(ctx, "Diagnostics completed",
		"fire", results.Fire,
		"esd", results.ESD,
		"bilge", results.Bilge,
		"completed_at", results.CompletedAt)

	return results
}

// LastRun returns when RunAll last completed, or the zero time.
func (r *Runner) LastRun() time.Time {
	return r.lastRun
}

// run executes one subsystem test, turning errors and panics into a failed Check.
func (r *Runner) run(ctx context.Context, name string, test func(details map[string]any) error) (check Check) {
	check = Check{
		Subsystem: name,
		Details:   make(map[string]any),
	}

	defer func() {
		if p := recover(); p != nil {
			check.Passed = false
			check.Message = fmt.Sprintf("panic: %v", p)
			logger.ErrorKV(ctx, "Diagnostic exception", "subsystem", name, "panic", p)
		}
	}()

	if err := test(check.Details); err != nil {
		check.Message = err.Error()
		logger.ErrorKV(ctx, "Diagnostic FAIL", "subsystem", name, "error", err)

		return check
	}

	check.Passed = true
	logger.InfoKV(ctx, "Diagnostic PASS", "subsystem", name)

	return check
}

func (r *Runner) testFire(details map[string]any) error {
	if r.fire == nil {
		return errNotConfigured
	}

	r.fire.ClearAlarms()

	if err := r.fire.SetSensorValue(fireTestSensor, simulator.ParamTemperature, fireTestTemperature); err != nil {
		return fmt.Errorf("set temperature: %w", err)
	}

	if err := r.fire.SetSensorValue(fireTestSensor, simulator.ParamSmoke, fireTestSmoke); err != nil {
		return fmt.Errorf("set smoke: %w", err)
	}

	r.fire.RunSimulation(simulationDuration)

	status := r.fire.AlarmStatus()
	details["sensor"] = fireTestSensor
	details["visual"] = status.Visual
	details["audible"] = status.Audible

	if !status.Both() {
		return errAlarmsInactive
	}

	return nil
}

func (r *Runner) testShutdown(details map[string]any) error {
	if r.esd == nil {
		return errNotConfigured
	}

	r.esd.ReopenValves()
	r.esd.ClearSignal()

	elapsed, err := r.esd.ActivateShutdown(shutdownTestPoint)
	if err != nil {
		return fmt.Errorf("activate shutdown: %w", err)
	}

	valvesClosed := true
	for _, state := range r.esd.ValveStatus() {
		if state != simulator.ValveClosed {
			valvesClosed = false
		}
	}

	signalSent := r.esd.SignalSent()
	details["activation_point"] = shutdownTestPoint
	details["shutdown_time_sec"] = elapsed.Seconds()
	details["valves_closed"] = valvesClosed
	details["signal_sent"] = signalSent

	if !valvesClosed || !signalSent {
		return errShutdownIncompl
	}

	return nil
}

func (r *Runner) testBilge(details map[string]any) error {
	if r.bilge == nil {
		return errNotConfigured
	}

	r.bilge.ClearAlarms()

	compartments := r.bilge.Compartments()
	if len(compartments) == 0 {
		return errNoCompartments
	}

	target := compartments[0]
	level := target.AlarmThreshold + bilgeTestMargin

	if err := r.bilge.SetWaterLevel(target.ID, level); err != nil {
		return fmt.Errorf("set water level: %w", err)
	}

	r.bilge.RunSimulation(simulationDuration)

	status := r.bilge.AlarmStatus()
	details["compartment"] = target.ID
	details["water_level"] = level
	details["visual"] = status.Visual
	details["audible"] = status.Audible

	if !status.Both() {
		return errAlarmsInactive
	}

	return nil
}
