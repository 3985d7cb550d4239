package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestStatus_Active covers the visual-or-audible rule.
func TestStatus_Active(t *testing.T) {
	t.Parallel()

	require.False(t, Status{}.Active())
	require.True(t, Status{Visual: true}.Active())
	require.True(t, Status{Audible: true}.Active())
	require.False(t, Status{Audible: true}.Both())
	require.True(t, Status{Visual: true, Audible: true}.Both())
}

// TestResult_SameAlarms ignores the check timestamp but not the lists.
func TestResult_SameAlarms(t *testing.T) {
	t.Parallel()

	a := &Result{OverallAlarm: true, TriggeredSystems: []string{"fire"}, CheckedAt: time.Unix(1, 0)}
	b := &Result{OverallAlarm: true, TriggeredSystems: []string{"fire"}, CheckedAt: time.Unix(2, 0)}
	c := &Result{OverallAlarm: false, SuppressedAlarms: []string{"fire"}}

	require.True(t, a.SameAlarms(b))
	require.False(t, a.SameAlarms(c))
	require.False(t, a.SameAlarms(nil))
	require.True(t, (*Result)(nil).SameAlarms(nil))
}

// TestResult_Clone verifies the clone shares no backing arrays.
func TestResult_Clone(t *testing.T) {
	t.Parallel()

	r := &Result{OverallAlarm: true, TriggeredSystems: []string{"fire", "esd"}}
	c := r.Clone()

	c.TriggeredSystems[0] = "bilge"

	require.Equal(t, "fire", r.TriggeredSystems[0])
	require.Nil(t, (*Result)(nil).Clone())
}

// TestActorClone verifies that Clone returns a deep copy and handles nil safely.
func TestActorClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Actor)(nil).Clone())

	a := &Actor{
		Hostname: "bridge-console",
		Username: "chief.engineer",
	}

	b := a.Clone()

	require.Equal(t, a, b)
	require.NotSame(t, a, b)
	require.Equal(t, "chief.engineer@bridge-console", a.String())
}

// TestMaintenanceStateClone verifies flags and actor are deep-copied.
func TestMaintenanceStateClone(t *testing.T) {
	t.Parallel()

	s := &MaintenanceState{
		Timestamp: time.Now().UTC().Truncate(time.Second),
		LastActor: &Actor{Hostname: "ecr", Username: "oiler"},
		Flags:     map[string]bool{"fire": true},
	}

	c := s.Clone()
	c.Flags["fire"] = false

	require.True(t, s.Flags["fire"])
	require.Equal(t, s.LastActor, c.LastActor)
	require.NotSame(t, s.LastActor, c.LastActor)
}

// TestStimulus_Validate accepts the known kinds and rejects the rest.
func TestStimulus_Validate(t *testing.T) {
	t.Parallel()

	var missing *Stimulus

	require.ErrorIs(t, missing.Validate(), ErrInvalidStimulus)
	require.ErrorIs(t, (&Stimulus{Kind: StimulusSensor}).Validate(), ErrInvalidStimulus)
	require.ErrorIs(t, (&Stimulus{Subsystem: "fire", Kind: "flood"}).Validate(), ErrInvalidStimulus)

	for _, kind := range []StimulusKind{
		StimulusSensor,
		StimulusWaterLevel,
		StimulusShutdown,
		StimulusPowerFailure,
		StimulusRestore,
	} {
		require.NoError(t, (&Stimulus{Subsystem: "fire", Kind: kind}).Validate(), kind)
	}
}
