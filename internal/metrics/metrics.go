// Package metrics exposes the alarm panel and diagnostics as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oshokin/vessel-alarm/internal/diagnostics"
	"github.com/oshokin/vessel-alarm/internal/panel"
)

const namespace = "vessel_alarm"

// Metrics is a panel.Observer that keeps Prometheus series on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	checks      prometheus.Counter
	overall     prometheus.Gauge
	triggered   *prometheus.CounterVec
	suppressed  *prometheus.CounterVec
	maintenance *prometheus.GaugeVec
	unknown     prometheus.Counter
	resets      prometheus.Counter

	diagnosticsPassed  *prometheus.GaugeVec
	diagnosticsLastRun prometheus.Gauge
}

// New creates the collectors and registers them with a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		checks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Number of alarm checks performed by the panel.",
		}),
		overall: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overall_alarm",
			Help:      "1 while the overall alarm is raised.",
		}),
		triggered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triggered_total",
			Help:      "Checks in which a subsystem contributed to the overall alarm.",
		}, []string{"subsystem"}),
		suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suppressed_total",
			Help:      "Checks in which an active subsystem alarm was suppressed by maintenance mode.",
		}, []string{"subsystem"}),
		maintenance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "maintenance_mode",
			Help:      "1 while a subsystem is in maintenance mode.",
		}, []string{"subsystem"}),
		unknown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_subsystem_total",
			Help:      "Maintenance requests naming an unregistered subsystem.",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Number of panel-wide alarm resets.",
		}),
		diagnosticsPassed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "diagnostics",
			Name:      "passed",
			Help:      "1 if the subsystem passed its last self-test.",
		}, []string{"subsystem"}),
		diagnosticsLastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "diagnostics",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed self-test.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.checks,
		m.overall,
		m.triggered,
		m.suppressed,
		m.maintenance,
		m.unknown,
		m.resets,
		m.diagnosticsPassed,
		m.diagnosticsLastRun,
	)

	return m
}

// Observe updates the series for one panel event.
func (m *Metrics) Observe(_ context.Context, event panel.Event) {
	switch event.Kind {
	case panel.EventTriggered:
		m.triggered.WithLabelValues(event.Subsystem).Inc()
	case panel.EventSuppressed:
		m.suppressed.WithLabelValues(event.Subsystem).Inc()
	case panel.EventMaintenanceChanged:
		m.maintenance.WithLabelValues(event.Subsystem).Set(boolToFloat(event.Maintenance))
	case panel.EventUnknownSubsystem:
		m.unknown.Inc()
	case panel.EventReset:
		m.resets.Inc()
	case panel.EventChecked:
		m.checks.Inc()
		m.overall.Set(boolToFloat(event.OverallAlarm))
	}
}

// RecordDiagnostics stores the verdicts of a diagnostics run.
func (m *Metrics) RecordDiagnostics(results *diagnostics.Results) {
	for name, passed := range results.Map() {
		m.diagnosticsPassed.WithLabelValues(name).Set(boolToFloat(passed))
	}

	m.diagnosticsLastRun.Set(float64(results.CompletedAt.Unix()))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
