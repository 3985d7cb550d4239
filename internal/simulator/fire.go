package simulator

import (
	"fmt"
	"time"

	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
)

// Parameter names a fire sensor reading.
type Parameter string

const (
	// ParamTemperature is the sensor temperature in °C.
	ParamTemperature Parameter = "temp"
	// ParamSmoke is the sensor smoke density.
	ParamSmoke Parameter = "smoke"
)

const (
	// FireTemperatureThreshold is the temperature above which a sensor raises the alarm.
	FireTemperatureThreshold = 50.0
	// FireSmokeThreshold is the smoke density above which a sensor raises the alarm.
	FireSmokeThreshold = 0.3

	fireSensorCount    = 10
	ambientTemperature = 25.0
)

// FireSensor is the state of one detector head.
type FireSensor struct {
	ID          string
	Temperature float64
	Smoke       float64
}

// exceedsThreshold reports whether the sensor reads a fire condition.
func (s FireSensor) exceedsThreshold() bool {
	return s.Temperature > FireTemperatureThreshold || s.Smoke > FireSmokeThreshold
}

// FireDetection simulates a fire detection system with ten detector heads.
type FireDetection struct {
	sensors []FireSensor
	index   map[string]int
	alarms  alarm.Status
	power   PowerStatus
	elapsed time.Duration
	opts    options
}

// NewFireDetection creates a fire detection system at ambient conditions on main power.
func NewFireDetection(opts ...Option) *FireDetection {
	f := &FireDetection{
		sensors: make([]FireSensor, 0, fireSensorCount),
		index:   make(map[string]int, fireSensorCount),
		power:   PowerMain,
		opts:    newOptions(opts),
	}

	for i := 1; i <= fireSensorCount; i++ {
		id := fmt.Sprintf("sensor_%d", i)
		f.index[id] = len(f.sensors)
		f.sensors = append(f.sensors, FireSensor{ID: id, Temperature: ambientTemperature})
	}

	return f
}

// SetSensorValue sets one reading of one sensor.
func (f *FireDetection) SetSensorValue(sensorID string, param Parameter, value float64) error {
	i, ok := f.index[sensorID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSensor, sensorID)
	}

	switch param {
	case ParamTemperature:
		f.sensors[i].Temperature = value
	case ParamSmoke:
		f.sensors[i].Smoke = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParameter, param)
	}

	return nil
}

// Sensor returns the state of one sensor.
func (f *FireDetection) Sensor(sensorID string) (FireSensor, bool) {
	i, ok := f.index[sensorID]
	if !ok {
		return FireSensor{}, false
	}

	return f.sensors[i], true
}

// RunSimulation advances the simulation by d and raises both alarms when any
// sensor exceeds a threshold.
func (f *FireDetection) RunSimulation(d time.Duration) {
	sleep(f.opts.stepDelay)

	f.elapsed += d

	for _, s := range f.sensors {
		if s.exceedsThreshold() {
			f.alarms = alarm.Status{Visual: true, Audible: true}
			return
		}
	}
}

// ResetSensors returns every sensor to ambient temperature with no smoke.
func (f *FireDetection) ResetSensors() {
	for i := range f.sensors {
		f.sensors[i].Temperature = ambientTemperature
		f.sensors[i].Smoke = 0
	}
}

// AlarmStatus returns the current alarm outputs.
func (f *FireDetection) AlarmStatus() alarm.Status {
	return f.alarms
}

// ClearAlarms switches both alarm outputs off.
func (f *FireDetection) ClearAlarms() {
	f.alarms = alarm.Status{}
}

// TriggerPowerFailure switches the system to emergency power. Detection keeps working.
func (f *FireDetection) TriggerPowerFailure() {
	f.power = PowerEmergency
}

// RestorePower switches the system back to main power.
func (f *FireDetection) RestorePower() {
	f.power = PowerMain
}

// PowerStatus returns the current supply.
func (f *FireDetection) PowerStatus() PowerStatus {
	return f.power
}

// Elapsed returns the total simulated time.
func (f *FireDetection) Elapsed() time.Duration {
	return f.elapsed
}
