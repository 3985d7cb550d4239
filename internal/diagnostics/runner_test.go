package diagnostics

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
	"github.com/oshokin/vessel-alarm/internal/simulator"
)

// deadFire never raises its alarms.
type deadFire struct {
	*simulator.FireDetection
}

func (deadFire) AlarmStatus() alarm.Status { return alarm.Status{Visual: true} }

// explodingShutdown panics when activated.
type explodingShutdown struct {
	*simulator.EmergencyShutdown
}

func (explodingShutdown) ActivateShutdown(string) (time.Duration, error) {
	panic("valve actuator jammed")
}

// stuckValveShutdown leaves the auxiliary valve open.
type stuckValveShutdown struct {
	*simulator.EmergencyShutdown
}

func (s stuckValveShutdown) ValveStatus() map[string]simulator.ValveState {
	status := s.EmergencyShutdown.ValveStatus()
	status[simulator.AuxiliaryValve] = simulator.ValveOpen

	return status
}

// dryBilge has no compartments.
type dryBilge struct {
	*simulator.BilgeAlarm
}

func (dryBilge) Compartments() []simulator.Compartment { return nil }

// TestRunAll_NominalSubsystemsPass runs the self-test against healthy simulators.
func TestRunAll_NominalSubsystemsPass(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		fire := simulator.NewFireDetection()
		esd := simulator.NewEmergencyShutdown()
		bilge := simulator.NewBilgeAlarm()

		// Leftover state from earlier use must not matter.
		_, err := esd.ActivateShutdown(simulator.PointEngineRoom)
		require.NoError(t, err)

		runner := NewRunner(fire, esd, bilge)
		require.True(t, runner.LastRun().IsZero())

		results := runner.RunAll(context.Background())

		require.Equal(t, map[string]bool{"fire": true, "esd": true, "bilge": true}, results.Map())
		require.True(t, results.AllPassed())
		require.NotEqual(t, uuid.Nil, results.RunID)
		require.Equal(t, results.CompletedAt, runner.LastRun())
		require.Len(t, results.Checks, 3)

		for _, check := range results.Checks {
			require.True(t, check.Passed, check.Subsystem)
			require.Empty(t, check.Message)
		}

		require.Equal(t, "compartment_1", results.Checks[2].Details["compartment"])
		require.InDelta(t, simulator.DefaultBilgeThreshold+bilgeTestMargin, results.Checks[2].Details["water_level"], 1e-9)
		require.Equal(t, true, results.Checks[1].Details["valves_closed"])
	})
}

// TestRunAll_IsolatesFailures keeps testing other subsystems after one fails or panics.
func TestRunAll_IsolatesFailures(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		runner := NewRunner(
			deadFire{simulator.NewFireDetection()},
			explodingShutdown{simulator.NewEmergencyShutdown()},
			simulator.NewBilgeAlarm(),
		)

		results := runner.RunAll(context.Background())

		require.False(t, results.Fire)
		require.False(t, results.ESD)
		require.True(t, results.Bilge)
		require.False(t, results.AllPassed())

		require.Contains(t, results.Checks[0].Message, "alarms not triggered")
		require.Contains(t, results.Checks[1].Message, "valve actuator jammed")
		require.False(t, runner.LastRun().IsZero())
	})
}

// TestRunAll_ShutdownChecksValves fails when a valve stays open.
func TestRunAll_ShutdownChecksValves(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		runner := NewRunner(nil, stuckValveShutdown{simulator.NewEmergencyShutdown()}, dryBilge{simulator.NewBilgeAlarm()})

		results := runner.RunAll(context.Background())

		require.False(t, results.Fire)
		require.Equal(t, errNotConfigured.Error(), results.Checks[0].Message)
		require.False(t, results.ESD)
		require.Equal(t, false, results.Checks[1].Details["valves_closed"])
		require.False(t, results.Bilge)
		require.Equal(t, errNoCompartments.Error(), results.Checks[2].Message)
	})
}

// TestRunAll_StampsWithClock records the injected completion time.
func TestRunAll_StampsWithClock(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 10, 1, 8, 30, 0, 0, time.UTC)
	runner := NewRunner(nil, nil, nil, WithClock(func() time.Time { return at }))

	results := runner.RunAll(context.Background())

	require.Equal(t, at, results.CompletedAt)
	require.Equal(t, at, runner.LastRun())
	require.Equal(t, map[string]bool{"fire": false, "esd": false, "bilge": false}, results.Map())
}
