package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/panel"
	"github.com/oshokin/vessel-alarm/internal/simulator"
)

// Compliance scenario identifiers.
const (
	TestCentralAlarm         = "TC-SYS-INTF-001"
	TestMaintenanceSuppress  = "TC-SYS-INTF-002"
	TestFireEmergencyPower   = "TC-SYS-PWR-001"
	TestBilgePowerFailure    = "TC-SYS-PWR-002"
	TestBilgeEmergencyPower  = "TC-SYS-PWR-003"
	RequirementCentralAlarm  = "REQ-SYS-INTF-001"
	RequirementSuppression   = "REQ-SYS-INTF-002"
	RequirementFirePower     = "REQ-SYS-PWR-001"
	RequirementBilgeNotice   = "REQ-SYS-PWR-002"
	RequirementBilgePower    = "REQ-SYS-PWR-003"
	maxPowerFailureNotice    = 5 * time.Second
	scenarioFireTemperature  = 80.0
	emergencyFireTemperature = 75.0
	emergencyFireSmoke       = 0.4
	emergencyBilgeMargin     = 5.0
)

var (
	errNotPropagated  = errors.New("central alarm did not raise the general alarm for every subsystem")
	errNotSuppressed  = errors.New("maintenance mode did not suppress the fire alarm")
	errNoPowerNotice  = errors.New("power failure notification missing or late")
	errNoEmergencyRun = errors.New("alarms not triggered on emergency power")
)

// Scenario is one compliance test case. Every run gets fresh simulators and
// a fresh central alarm panel over them.
type Scenario struct {
	TestID        string
	RequirementID string
	Description   string

	run func(ctx context.Context, b *bench) (map[string]any, error)
}

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	TestID        string
	RequirementID string
	Passed        bool
	// Message explains a failure; empty on success.
	Message string
	Details map[string]any
}

// bench is the set of simulators a scenario drives.
type bench struct {
	fire  *simulator.FireDetection
	esd   *simulator.EmergencyShutdown
	bilge *simulator.BilgeAlarm
	panel *panel.Panel
}

func newBench(opts []simulator.Option) (*bench, error) {
	b := &bench{
		fire:  simulator.NewFireDetection(opts...),
		esd:   simulator.NewEmergencyShutdown(),
		bilge: simulator.NewBilgeAlarm(opts...),
	}

	p, err := panel.New([]panel.Subsystem{
		{Name: SubsystemFire, Handle: b.fire},
		{Name: SubsystemESD, Handle: b.esd},
		{Name: SubsystemBilge, Handle: b.bilge},
	})
	if err != nil {
		return nil, err
	}

	b.panel = p

	return b, nil
}

// Scenarios returns the compliance scenarios in report order.
func Scenarios() []Scenario {
	return []Scenario{
		{
			TestID:        TestCentralAlarm,
			RequirementID: RequirementCentralAlarm,
			Description:   "Central alarm interface integration",
			run:           centralAlarmPropagation,
		},
		{
			TestID:        TestMaintenanceSuppress,
			RequirementID: RequirementSuppression,
			Description:   "Alarm suppression in maintenance mode",
			run:           maintenanceSuppression,
		},
		{
			TestID:        TestFireEmergencyPower,
			RequirementID: RequirementFirePower,
			Description:   "Emergency power operation of fire detection",
			run:           fireOnEmergencyPower,
		},
		{
			TestID:        TestBilgePowerFailure,
			RequirementID: RequirementBilgeNotice,
			Description:   "Power failure notification of the bilge system",
			run:           bilgePowerFailureNotice,
		},
		{
			TestID:        TestBilgeEmergencyPower,
			RequirementID: RequirementBilgePower,
			Description:   "Emergency power operation of the bilge alarm",
			run:           bilgeOnEmergencyPower,
		},
	}
}

// RunScenarios runs every scenario on its own simulators.
func RunScenarios(ctx context.Context, opts ...simulator.Option) []ScenarioResult {
	scenarios := Scenarios()
	results := make([]ScenarioResult, 0, len(scenarios))

	for _, s := range scenarios {
		results = append(results, s.Run(ctx, opts...))
	}

	return results
}

// Run executes the scenario. Errors and panics fail this scenario only.
func (s Scenario) Run(ctx context.Context, opts ...simulator.Option) (result ScenarioResult) {
	result = ScenarioResult{
		TestID:        s.TestID,
		RequirementID: s.RequirementID,
		Details:       make(map[string]any),
	}

	ctx = logger.WithKV(ctx, "test_id", s.TestID)

	defer func() {
		if p := recover(); p != nil {
			result.Passed = false
			result.Message = fmt.Sprintf("panic: %v", p)
			logger.ErrorKV(ctx, "Scenario exception", "panic", p)
		}
	}()

	b, err := newBench(opts)
	if err != nil {
		result.Message = err.Error()

		return result
	}

	details, err := s.run(ctx, b)
	if details != nil {
		result.Details = details
	}

	if err != nil {
		result.Message = err.Error()
		logger.ErrorKV(ctx, "Scenario FAIL", "requirement_id", s.RequirementID, "error", err)

		return result
	}

	result.Passed = true
	logger.InfoKV(ctx, "Scenario PASS", "requirement_id", s.RequirementID)

	return result
}

// AllScenariosPassed reports whether every result passed.
func AllScenariosPassed(results []ScenarioResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}

	return true
}

func triggered(result alarm.Result, subsystem string) bool {
	return result.OverallAlarm && slices.Contains(result.TriggeredSystems, subsystem)
}

func statusDetails(status alarm.Status) map[string]any {
	return map[string]any{"visual": status.Visual, "audible": status.Audible}
}

func firstCompartment(b *simulator.BilgeAlarm) (simulator.Compartment, error) {
	compartments := b.Compartments()
	if len(compartments) == 0 {
		return simulator.Compartment{}, errNoCompartments
	}

	return compartments[0], nil
}

// centralAlarmPropagation raises each subsystem's alarm in turn and expects
// the general alarm to name it.
func centralAlarmPropagation(ctx context.Context, b *bench) (map[string]any, error) {
	if err := b.fire.SetSensorValue("sensor_1", simulator.ParamTemperature, scenarioFireTemperature); err != nil {
		return nil, err
	}

	if err := b.fire.SetSensorValue("sensor_1", simulator.ParamSmoke, fireTestSmoke); err != nil {
		return nil, err
	}

	b.fire.RunSimulation(simulationDuration)
	afterFire := b.panel.CheckAlarms(ctx)
	b.fire.ClearAlarms()

	if _, err := b.esd.ActivateShutdown(simulator.PointBridge); err != nil {
		return nil, err
	}

	afterESD := b.panel.CheckAlarms(ctx)
	b.esd.ClearSignal()

	compartment, err := firstCompartment(b.bilge)
	if err != nil {
		return nil, err
	}

	if err = b.bilge.SetWaterLevel(compartment.ID, compartment.AlarmThreshold); err != nil {
		return nil, err
	}

	b.bilge.RunSimulation(simulationDuration)
	afterBilge := b.panel.CheckAlarms(ctx)

	details := map[string]any{
		"fire_alarm_triggered":      triggered(afterFire, SubsystemFire),
		"esd_alarm_triggered":       triggered(afterESD, SubsystemESD),
		"bilge_alarm_triggered":     triggered(afterBilge, SubsystemBilge),
		"overall_alarm_after_fire":  afterFire.OverallAlarm,
		"overall_alarm_after_esd":   afterESD.OverallAlarm,
		"overall_alarm_after_bilge": afterBilge.OverallAlarm,
	}

	if !triggered(afterFire, SubsystemFire) || !triggered(afterESD, SubsystemESD) || !triggered(afterBilge, SubsystemBilge) {
		return details, errNotPropagated
	}

	return details, nil
}

// maintenanceSuppression expects a fire alarm to be suppressed while fire is in maintenance.
func maintenanceSuppression(ctx context.Context, b *bench) (map[string]any, error) {
	if err := b.panel.SetMaintenanceMode(ctx, SubsystemFire, true); err != nil {
		return nil, err
	}

	if err := b.fire.SetSensorValue("sensor_2", simulator.ParamTemperature, scenarioFireTemperature); err != nil {
		return nil, err
	}

	if err := b.fire.SetSensorValue("sensor_2", simulator.ParamSmoke, emergencyFireSmoke); err != nil {
		return nil, err
	}

	b.fire.RunSimulation(simulationDuration)
	result := b.panel.CheckAlarms(ctx)

	details := map[string]any{
		"fire_alarm":        statusDetails(b.fire.AlarmStatus()),
		"overall_alarm":     result.OverallAlarm,
		"suppressed_alarms": result.SuppressedAlarms,
	}

	if result.OverallAlarm || !slices.Contains(result.SuppressedAlarms, SubsystemFire) {
		return details, errNotSuppressed
	}

	return details, nil
}

// fireOnEmergencyPower expects fire detection to alarm after losing main power.
func fireOnEmergencyPower(_ context.Context, b *bench) (map[string]any, error) {
	b.fire.TriggerPowerFailure()

	if err := b.fire.SetSensorValue("sensor_5", simulator.ParamTemperature, emergencyFireTemperature); err != nil {
		return nil, err
	}

	if err := b.fire.SetSensorValue("sensor_5", simulator.ParamSmoke, emergencyFireSmoke); err != nil {
		return nil, err
	}

	b.fire.RunSimulation(simulationDuration)
	status := b.fire.AlarmStatus()

	details := map[string]any{
		"power_status": string(b.fire.PowerStatus()),
		"alarm_status": statusDetails(status),
	}

	if !status.Both() {
		return details, errNoEmergencyRun
	}

	return details, nil
}

// bilgePowerFailureNotice expects the bilge system to report a power loss within five seconds.
func bilgePowerFailureNotice(_ context.Context, b *bench) (map[string]any, error) {
	report := b.bilge.SimulatePowerFailure()

	details := map[string]any{
		"notification_sent": report.NotificationSent,
		"time_delay_sec":    report.Delay.Seconds(),
	}

	if !report.NotificationSent || report.Delay > maxPowerFailureNotice {
		return details, errNoPowerNotice
	}

	return details, nil
}

// bilgeOnEmergencyPower expects the bilge alarm to keep working after a power failure.
func bilgeOnEmergencyPower(_ context.Context, b *bench) (map[string]any, error) {
	b.bilge.SimulatePowerFailure()

	compartment, err := firstCompartment(b.bilge)
	if err != nil {
		return nil, err
	}

	if err = b.bilge.SetWaterLevel(compartment.ID, compartment.AlarmThreshold+emergencyBilgeMargin); err != nil {
		return nil, err
	}

	b.bilge.RunSimulation(simulationDuration)
	status := b.bilge.AlarmStatus()

	details := map[string]any{
		"power_status": string(b.bilge.PowerStatus()),
		"alarm_status": statusDetails(status),
	}

	if !status.Both() {
		return details, errNoEmergencyRun
	}

	return details, nil
}
