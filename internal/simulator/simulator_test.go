package simulator

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
)

// TestFireDetection_AlarmsAboveThreshold checks either reading above its threshold raises both alarms.
func TestFireDetection_AlarmsAboveThreshold(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		temp  float64
		smoke float64
		want  bool
	}{
		{name: "ambient", temp: ambientTemperature, smoke: 0, want: false},
		{name: "at thresholds", temp: FireTemperatureThreshold, smoke: FireSmokeThreshold, want: false},
		{name: "hot only", temp: 51, smoke: 0, want: true},
		{name: "smoke only", temp: 20, smoke: 0.31, want: true},
		{name: "both", temp: 75, smoke: 0.4, want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := NewFireDetection(WithStepDelay(0))
			require.NoError(t, f.SetSensorValue("sensor_3", ParamTemperature, tc.temp))
			require.NoError(t, f.SetSensorValue("sensor_3", ParamSmoke, tc.smoke))

			f.RunSimulation(time.Second)

			status := f.AlarmStatus()
			require.Equal(t, tc.want, status.Visual)
			require.Equal(t, tc.want, status.Audible)
		})
	}
}

// TestFireDetection_SetSensorValue_Unknown rejects unknown sensors and parameters.
func TestFireDetection_SetSensorValue_Unknown(t *testing.T) {
	t.Parallel()

	f := NewFireDetection()

	require.ErrorIs(t, f.SetSensorValue("sensor_11", ParamTemperature, 60), ErrUnknownSensor)
	require.ErrorIs(t, f.SetSensorValue("sensor_1", Parameter("humidity"), 60), ErrUnknownParameter)

	s, ok := f.Sensor("sensor_1")
	require.True(t, ok)
	require.InDelta(t, ambientTemperature, s.Temperature, 1e-9)
}

// TestFireDetection_EmergencyPower verifies detection keeps alarming on emergency power.
func TestFireDetection_EmergencyPower(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := NewFireDetection()
		f.TriggerPowerFailure()

		require.NoError(t, f.SetSensorValue("sensor_5", ParamTemperature, 75))
		require.NoError(t, f.SetSensorValue("sensor_5", ParamSmoke, 0.4))

		start := time.Now()
		f.RunSimulation(time.Second)

		require.Equal(t, DefaultStepDelay, time.Since(start))
		require.Equal(t, PowerEmergency, f.PowerStatus())
		require.True(t, f.AlarmStatus().Both())
		require.Equal(t, time.Second, f.Elapsed())

		// Alarms latch until cleared.
		require.NoError(t, f.SetSensorValue("sensor_5", ParamTemperature, ambientTemperature))
		require.NoError(t, f.SetSensorValue("sensor_5", ParamSmoke, 0))
		f.RunSimulation(time.Second)
		require.True(t, f.AlarmStatus().Active())

		f.ClearAlarms()
		require.False(t, f.AlarmStatus().Active())
	})
}

// TestEmergencyShutdown_Activate closes both valves and sends the signal.
func TestEmergencyShutdown_Activate(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		e := NewEmergencyShutdown()
		require.True(t, e.Connected())
		require.False(t, e.AllValvesClosed())

		elapsed, err := e.ActivateShutdown(PointBridge)
		require.NoError(t, err)
		require.Equal(t, mainValveCloseDelay+auxiliaryValveCloseDelay, elapsed)

		require.True(t, e.Activated(PointBridge))
		require.False(t, e.Activated(PointEngineRoom))
		require.True(t, e.AllValvesClosed())
		require.Equal(t, ValveClosed, e.ValveStatus()[MainValve])
		require.Equal(t, ValveClosed, e.ValveStatus()[AuxiliaryValve])
		require.True(t, e.SignalSent())

		e.ReopenValves()
		e.ClearSignal()

		require.False(t, e.Activated(PointBridge))
		require.False(t, e.AllValvesClosed())
		require.False(t, e.SignalSent())
	})
}

// TestEmergencyShutdown_UnknownPoint leaves the system untouched.
func TestEmergencyShutdown_UnknownPoint(t *testing.T) {
	t.Parallel()

	e := NewEmergencyShutdown()

	_, err := e.ActivateShutdown("galley")
	require.ErrorIs(t, err, ErrUnknownActivationPoint)
	require.False(t, e.SignalSent())
	require.Equal(t, ValveOpen, e.ValveStatus()[MainValve])
}

// TestBilgeAlarm_ThresholdIsInclusive checks a level equal to the threshold alarms on every run.
func TestBilgeAlarm_ThresholdIsInclusive(t *testing.T) {
	t.Parallel()

	b := NewBilgeAlarm(WithStepDelay(0))
	first := b.Compartments()[0]
	require.Equal(t, "compartment_1", first.ID)
	require.InDelta(t, DefaultBilgeThreshold, first.AlarmThreshold, 1e-9)

	for i := 0; i < 3; i++ {
		b.ClearAlarms()
		require.NoError(t, b.SetWaterLevel(first.ID, first.AlarmThreshold))
		b.RunSimulation(time.Second)
		require.True(t, b.AlarmStatus().Both())
	}

	b.ClearAlarms()
	require.NoError(t, b.SetWaterLevel(first.ID, first.AlarmThreshold-0.01))
	b.RunSimulation(time.Second)
	require.False(t, b.AlarmStatus().Active())
}

// TestBilgeAlarm_Compartments returns copies and rejects unknown compartments.
func TestBilgeAlarm_Compartments(t *testing.T) {
	t.Parallel()

	b := NewBilgeAlarm()
	cs := b.Compartments()
	require.Len(t, cs, bilgeCompartmentCount)

	cs[0].WaterLevel = 999
	require.Zero(t, b.Compartments()[0].WaterLevel)

	require.ErrorIs(t, b.SetWaterLevel("compartment_9", 1), ErrUnknownCompartment)
	require.ErrorIs(t, b.SetAlarmThreshold("compartment_9", 1), ErrUnknownCompartment)
	require.NoError(t, b.SetAlarmThreshold("compartment_2", 80))
	require.InDelta(t, 80.0, b.Compartments()[1].AlarmThreshold, 1e-9)
}

// TestBilgeAlarm_PowerFailure reports the notification within five seconds and keeps alarming.
func TestBilgeAlarm_PowerFailure(t *testing.T) {
	t.Parallel()

	b := NewBilgeAlarm(WithStepDelay(0))

	report := b.SimulatePowerFailure()
	require.True(t, report.NotificationSent)
	require.LessOrEqual(t, report.Delay, 5*time.Second)
	require.Equal(t, PowerFailed, b.PowerStatus())

	first := b.Compartments()[0]
	require.NoError(t, b.SetWaterLevel(first.ID, first.AlarmThreshold+5))
	b.RunSimulation(time.Second)
	require.True(t, b.AlarmStatus().Both())
	require.Equal(t, time.Second, b.Elapsed())
}

// TestSimulators_RestoreBaseline returns stimulated sensors and compartments to their idle readings.
func TestSimulators_RestoreBaseline(t *testing.T) {
	t.Parallel()

	f := NewFireDetection(WithStepDelay(0))
	require.NoError(t, f.SetSensorValue("sensor_4", ParamTemperature, 90))
	require.NoError(t, f.SetSensorValue("sensor_4", ParamSmoke, 0.8))

	f.ResetSensors()

	s, ok := f.Sensor("sensor_4")
	require.True(t, ok)
	require.InDelta(t, ambientTemperature, s.Temperature, 1e-9)
	require.Zero(t, s.Smoke)

	b := NewBilgeAlarm(WithStepDelay(0))
	require.NoError(t, b.SetWaterLevel("compartment_2", 120))

	b.Drain()

	for _, c := range b.Compartments() {
		require.Zero(t, c.WaterLevel)
	}
}

// TestSimulators_RestorePower returns both powered systems to their normal supply.
func TestSimulators_RestorePower(t *testing.T) {
	t.Parallel()

	f := NewFireDetection(WithStepDelay(0))
	f.TriggerPowerFailure()
	require.Equal(t, PowerEmergency, f.PowerStatus())
	f.RestorePower()
	require.Equal(t, PowerMain, f.PowerStatus())

	b := NewBilgeAlarm(WithStepDelay(0))
	b.SimulatePowerFailure()
	require.Equal(t, PowerFailed, b.PowerStatus())
	b.RestorePower()
	require.Equal(t, PowerNormal, b.PowerStatus())
}
