// Package metrics records counters for a single export run and dumps them in
// the Prometheus text format for the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "zbx_export"

// Recorder owns a private registry so a run never leaks into the global one.
// All methods are safe on a nil *Recorder.
type Recorder struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	events      *prometheus.CounterVec
	runDuration prometheus.Gauge
	lastSuccess prometheus.Gauge
	lastFailure prometheus.Gauge
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Zabbix JSON-RPC requests by method and outcome.",
		}, []string{"method", "outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_exported_total",
			Help:      "Events written to CSV by query mode.",
		}, []string{"mode"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last export run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful export run.",
		}),
		lastFailure: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_failure_timestamp_seconds",
			Help:      "Unix time of the last failed export run.",
		}),
	}
	r.registry.MustRegister(r.requests, r.events, r.runDuration, r.lastSuccess, r.lastFailure)
	return r
}

// ObserveRequest counts one API call.
func (r *Recorder) ObserveRequest(method string, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.requests.WithLabelValues(method, outcome).Inc()
}

// AddEvents counts n exported events for the given mode.
func (r *Recorder) AddEvents(mode string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.events.WithLabelValues(mode).Add(float64(n))
}

// ObserveRun records the duration and outcome of a run finished at end.
func (r *Recorder) ObserveRun(d time.Duration, end time.Time, err error) {
	if r == nil {
		return
	}
	r.runDuration.Set(d.Seconds())
	if err != nil {
		r.lastFailure.Set(float64(end.Unix()))
		return
	}
	r.lastSuccess.Set(float64(end.Unix()))
}

// WriteTextfile atomically writes the current values to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
