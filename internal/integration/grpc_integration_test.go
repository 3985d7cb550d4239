package integration

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
	"github.com/oshokin/vessel-alarm/internal/service/common"
	"github.com/oshokin/vessel-alarm/internal/service/server"
)

// reservePort returns a free local address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// writeSettings stores a settings file for a panel at addr and returns its path.
func writeSettings(t *testing.T, addr, httpAddr string) string {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, config.Save(cfgPath, &config.Config{
		ServerAddress: addr,
		HTTPAddress:   httpAddr,
		Timeout:       5 * time.Second,
		CheckInterval: 20 * time.Millisecond,
		StepDelay:     time.Millisecond,
	}))

	return cfgPath
}

// startPanel runs the alarm panel with a temporary config and the given state file.
// Returns a stop function that waits for the panel to exit.
func startPanel(t *testing.T, addr, httpAddr, statePath string) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := writeSettings(t, addr, httpAddr)
	done := make(chan error, 1)

	go func() {
		options := &server.Options{
			ConfigPath:    cfgPath,
			ListenAddress: addr,
			StateFile:     statePath,
		}

		done <- server.Run(ctx, options)
	}()

	// Wait for the gRPC listener.
	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err != nil {
			return false
		}

		_ = conn.Close()

		return true
	}, 3*time.Second, 20*time.Millisecond)

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func dialPanel(t *testing.T, addr string) *common.Client {
	t.Helper()

	c, err := common.Dial(context.Background(), addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

var operator = &alarm.Actor{
	Hostname: "bridge-console",
	Username: "watch-officer",
}

// TestGRPC_MaintenanceRoundtrip sets a flag, checks it on disk and sees it restored after a restart.
func TestGRPC_MaintenanceRoundtrip(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	statePath := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()

	stop := startPanel(t, addr, "", statePath)
	c := dialPanel(t, addr)

	initial, err := c.GetMaintenance(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"fire": false, "esd": false, "bilge": false}, initial.Flags)

	state, err := c.SetMaintenanceMode(ctx, operator, "bilge", true)
	require.NoError(t, err)
	require.True(t, state.Flags["bilge"])
	require.Equal(t, operator, state.LastActor)

	_, err = os.Stat(statePath)
	require.NoError(t, err)

	_, err = c.SetMaintenanceMode(ctx, operator, "galley", true)
	require.Error(t, err)

	result, err := c.CheckAlarms(ctx)
	require.NoError(t, err)
	require.False(t, result.OverallAlarm)

	stop()

	stop = startPanel(t, addr, "", statePath)
	defer stop()

	// A fresh connection avoids the reconnect backoff of the old one.
	restored, err := dialPanel(t, addr).GetMaintenance(ctx)
	require.NoError(t, err)
	require.True(t, restored.Flags["bilge"])
	require.Equal(t, operator, restored.LastActor)
}

// TestGRPC_RemoteDiagnostics runs the self-tests on the panel and leaves it clear.
func TestGRPC_RemoteDiagnostics(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	stop := startPanel(t, addr, "", filepath.Join(t.TempDir(), "state.json"))
	defer stop()

	ctx := context.Background()
	c := dialPanel(t, addr)

	results, err := c.RunDiagnostics(ctx)
	require.NoError(t, err)
	require.True(t, results.AllPassed(), "%+v", results.Checks)
	require.Len(t, results.Checks, 3)

	result, err := c.CheckAlarms(ctx)
	require.NoError(t, err)
	require.False(t, result.OverallAlarm)
	require.Empty(t, result.TriggeredSystems)

	_, err = c.ResetAlarms(ctx)
	require.NoError(t, err)
}

// TestHTTP_HealthAndMetrics serves the HTTP surface next to gRPC.
func TestHTTP_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	httpAddr := reservePort(t)

	stop := startPanel(t, addr, httpAddr, filepath.Join(t.TempDir(), "state.json"))
	defer stop()

	var health map[string]any

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + httpAddr + "/healthz") //nolint:noctx // Test helper.
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		return resp.StatusCode == http.StatusOK && json.NewDecoder(resp.Body).Decode(&health) == nil
	}, 3*time.Second, 20*time.Millisecond)

	require.Equal(t, true, health["ok"])
	require.Equal(t, server.ProcessName, health["service"])

	resp, err := http.Get("http://" + httpAddr + "/metrics") //nolint:noctx // Test helper.
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestGRPC_InjectFault raises a fire alarm on the running panel, then suppresses it under maintenance.
func TestGRPC_InjectFault(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	stop := startPanel(t, addr, "", filepath.Join(t.TempDir(), "state.json"))
	defer stop()

	ctx := context.Background()
	c := dialPanel(t, addr)

	result, err := c.InjectFault(ctx, &alarm.Stimulus{
		Subsystem: "fire",
		Kind:      alarm.StimulusSensor,
		Target:    "sensor_1",
		Parameter: "temp",
		Value:     80,
	})
	require.NoError(t, err)
	require.True(t, result.OverallAlarm)
	require.Equal(t, []string{"fire"}, result.TriggeredSystems)

	_, err = c.SetMaintenanceMode(ctx, operator, "fire", true)
	require.NoError(t, err)

	result, err = c.CheckAlarms(ctx)
	require.NoError(t, err)
	require.False(t, result.OverallAlarm)
	require.Equal(t, []string{"fire"}, result.SuppressedAlarms)

	_, err = c.InjectFault(ctx, &alarm.Stimulus{Subsystem: "galley", Kind: alarm.StimulusRestore})
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.InjectFault(ctx, &alarm.Stimulus{Subsystem: "esd", Kind: alarm.StimulusPowerFailure})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestHTTP_Stimulus floods a bilge compartment over HTTP and sees the panel raise the alarm.
func TestHTTP_Stimulus(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	httpAddr := reservePort(t)

	stop := startPanel(t, addr, httpAddr, filepath.Join(t.TempDir(), "state.json"))
	defer stop()

	var resp *http.Response

	require.Eventually(t, func() bool {
		var err error

		resp, err = http.Post("http://"+httpAddr+"/v1/subsystems/bilge/stimulus", //nolint:noctx // Test helper.
			"application/json", strings.NewReader(`{"kind":"water_level","target":"compartment_3","value":150}`))

		return err == nil
	}, 3*time.Second, 20*time.Millisecond)

	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result alarm.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.True(t, result.OverallAlarm)
	require.Equal(t, []string{"bilge"}, result.TriggeredSystems)
}
