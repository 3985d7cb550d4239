package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/vessel-alarm/internal/diagnostics"
	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
	"github.com/oshokin/vessel-alarm/internal/panel"
)

type unit struct{ status alarm.Status }

func (u *unit) AlarmStatus() alarm.Status { return u.status }

// TestMetrics_ObservesPanel wires the metrics as a panel observer.
func TestMetrics_ObservesPanel(t *testing.T) {
	t.Parallel()

	m := New()
	fire := &unit{status: alarm.Status{Visual: true}}
	bilge := &unit{status: alarm.Status{Audible: true}}

	p, err := panel.New([]panel.Subsystem{
		{Name: "fire", Handle: fire},
		{Name: "bilge", Handle: bilge},
	}, panel.WithObserver(m))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, p.SetMaintenanceMode(ctx, "bilge", true))
	require.Error(t, p.SetMaintenanceMode(ctx, "ballast", true))

	p.CheckAlarms(ctx)
	p.CheckAlarms(ctx)

	require.InDelta(t, 2, testutil.ToFloat64(m.checks), 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(m.overall), 1e-9)
	require.InDelta(t, 2, testutil.ToFloat64(m.triggered.WithLabelValues("fire")), 1e-9)
	require.InDelta(t, 2, testutil.ToFloat64(m.suppressed.WithLabelValues("bilge")), 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(m.maintenance.WithLabelValues("bilge")), 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(m.unknown), 1e-9)

	fire.status = alarm.Status{}
	p.CheckAlarms(ctx)
	require.InDelta(t, 0, testutil.ToFloat64(m.overall), 1e-9)

	p.ResetAll(ctx)
	require.InDelta(t, 1, testutil.ToFloat64(m.resets), 1e-9)
}

// TestMetrics_RecordDiagnosticsAndServe checks diagnostics gauges reach the HTTP exposition.
func TestMetrics_RecordDiagnosticsAndServe(t *testing.T) {
	t.Parallel()

	m := New()
	at := time.Unix(1_760_000_000, 0)

	m.RecordDiagnostics(&diagnostics.Results{Fire: true, ESD: false, Bilge: true, CompletedAt: at})

	require.InDelta(t, 1, testutil.ToFloat64(m.diagnosticsPassed.WithLabelValues("fire")), 1e-9)
	require.InDelta(t, 0, testutil.ToFloat64(m.diagnosticsPassed.WithLabelValues("esd")), 1e-9)
	require.InDelta(t, float64(at.Unix()), testutil.ToFloat64(m.diagnosticsLastRun), 1e-9)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `vessel_alarm_diagnostics_passed{subsystem="esd"} 0`)
	require.Contains(t, rec.Body.String(), "vessel_alarm_checks_total 0")
}
