//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestIsProcessRunning_Unknown finds no process with a made-up name.
func TestIsProcessRunning_Unknown(t *testing.T) {
	t.Parallel()

	running, err := IsProcessRunning("vessel-alarm-no-such-binary-7f3a")
	require.NoError(t, err)
	require.False(t, running)
	require.NoError(t, EnsureSingleInstance("vessel-alarm-no-such-binary-7f3a"))
}

// TestExecutableNames strips directories from the name.
func TestExecutableNames(t *testing.T) {
	t.Parallel()

	names := executableNames("/opt/vessel/alarm-panel")
	require.Contains(t, names, "alarm-panel")
}
