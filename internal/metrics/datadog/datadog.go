// Package datadog implements a DogStatsD backend for the metrics package.
//
// Labels become Datadog tags in "key:value" form, so the same instrumented
// call sites serve both the Prometheus and Datadog backends. All Datadog
// dependencies stay inside this package.
package datadog

import (
	"fmt"

	"census/internal/metrics"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Config holds Datadog backend configuration.
type Config struct {
	// Addr is the DogStatsD address, e.g. "127.0.0.1:8125" or "unix:///path/to/socket".
	Addr string

	// Namespace is an optional prefix added to all metric names, e.g. "census.".
	Namespace string

	// GlobalTags are tags applied to every metric emitted by this backend,
	// e.g. []string{"env:prod", "service:census"}.
	GlobalTags []string
}

// Backend is a Datadog implementation of metrics.Backend.
type Backend struct {
	client *statsd.Client
}

// NewBackend constructs a Datadog metrics backend. Addr is required.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: Addr is required")
	}

	var opts []statsd.Option
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}

	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}

	return &Backend{client: c}, nil
}

// IncCounter sends a Datadog Count metric. DogStatsD counts are int64, so
// fractional deltas are truncated.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	b.client.Count(name, int64(delta), labelsToTags(labels), 1)
}

// ObserveDuration sends a Datadog Histogram metric.
func (b *Backend) ObserveDuration(name string, seconds float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	b.client.Histogram(name, seconds, labelsToTags(labels), 1)
}

// Flush closes the statsd client, which flushes any buffered data. Intended
// for process shutdown.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

func labelsToTags(lbls metrics.Labels) []string {
	if len(lbls) == 0 {
		return nil
	}
	out := make([]string, 0, len(lbls))
	for k, v := range lbls {
		out = append(out, fmt.Sprintf("%s:%s", k, v))
	}
	return out
}
