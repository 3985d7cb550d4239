//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
)

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestSetMaintenanceMode_Validation rejects a nil actor and an empty subsystem before any call.
func TestSetMaintenanceMode_Validation(t *testing.T) {
	t.Parallel()

	c := new(Client)

	_, err := c.SetMaintenanceMode(context.Background(), nil, "fire", true)
	require.ErrorIs(t, err, errActorRequired)

	_, err = c.SetMaintenanceMode(context.Background(), &alarm.Actor{Hostname: "h", Username: "u"}, "", true)
	require.ErrorIs(t, err, errSubsystemRequired)
}

// TestInjectFault_Validation rejects an incomplete stimulus before any call.
func TestInjectFault_Validation(t *testing.T) {
	t.Parallel()

	c := new(Client)

	_, err := c.InjectFault(context.Background(), nil)
	require.ErrorIs(t, err, alarm.ErrInvalidStimulus)

	_, err = c.InjectFault(context.Background(), &alarm.Stimulus{Kind: alarm.StimulusShutdown})
	require.ErrorIs(t, err, alarm.ErrInvalidStimulus)
}
