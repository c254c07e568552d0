// Package metrics is a small backend-agnostic layer for recording pipeline
// instrumentation.
//
// A single global Backend defaults to a no-op, so pipeline code can record
// unconditionally and metrics stay optional. Concrete systems (Prometheus
// Pushgateway, Datadog) live in subpackages and are installed at startup via
// SetBackend, mirroring how store backends register themselves.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a duration-style observation in seconds.
	ObserveDuration(name string, seconds float64, labels Labels)
	// Flush pushes buffered metrics, for backends that need it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)      {}
func (nopBackend) ObserveDuration(string, float64, Labels) {}
func (nopBackend) Flush() error                            { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the current one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep records one pipeline step execution: a success/failure counter
// plus the step duration.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter("census_step_total", 1, lbls)
	backend.ObserveDuration("census_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows counts rows handled during a run, partitioned by kind.
//
// Kinds in use:
//   - "places_inserted"
//   - "people_inserted"
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("census_rows_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}
