package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"census/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

func readSummaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()

	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("SummaryVec.WithLabelValues(...) does not implement prometheus.Metric")
	}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write() error = %v", err)
	}
	if m.GetSummary() == nil {
		t.Fatalf("metric did not contain Summary value")
	}
	sum := m.GetSummary()
	return sum.GetSampleCount(), sum.GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{
			name:       "missing gateway URL returns error",
			jobName:    "census",
			gatewayURL: "",
			wantErr:    true,
		},
		{
			name:        "empty job name uses default",
			jobName:     "",
			gatewayURL:  "http://pushgateway:9091",
			wantJobName: "census",
		},
		{
			name:        "explicit job name is preserved",
			jobName:     "nightly-ingest",
			gatewayURL:  "http://pushgateway:9091",
			wantJobName: "nightly-ingest",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewBackend(%q, %q) error = nil, want non-nil", tt.jobName, tt.gatewayURL)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend(%q, %q) error = %v", tt.jobName, tt.gatewayURL, err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("backend.jobName = %q, want %q", b.jobName, tt.wantJobName)
			}

			// Label cardinality sanity: these must not panic.
			b.stepCounter.WithLabelValues("load_places", "success").Add(1)
			b.stepDuration.WithLabelValues("compute", "failure").Observe(0.5)
			b.rowCounter.WithLabelValues("places_inserted").Add(1)
		})
	}
}

func TestIncCounter(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("census", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.IncCounter("census_step_total", 3, metrics.Labels{"step": "load_places", "status": "success"})
	b.IncCounter("census_rows_total", 5, metrics.Labels{"kind": "people_inserted"})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"foo": "bar"})

	if got := readCounterValue(t, b.stepCounter.WithLabelValues("load_places", "success")); got != 3 {
		t.Errorf("stepCounter value = %v, want 3", got)
	}
	if got := readCounterValue(t, b.rowCounter.WithLabelValues("people_inserted")); got != 5 {
		t.Errorf("rowCounter value = %v, want 5", got)
	}
}

func TestIncCounterNilCollectors(t *testing.T) {
	t.Parallel()

	b := &Backend{}

	b.IncCounter("census_step_total", 1, metrics.Labels{"step": "s", "status": "success"})
	b.IncCounter("census_rows_total", 1, metrics.Labels{"kind": "places_inserted"})
	b.ObserveDuration("census_step_duration_seconds", 1, metrics.Labels{"step": "s", "status": "success"})
}

func TestObserveDuration(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("census", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.ObserveDuration("census_step_duration_seconds", 1.5, metrics.Labels{"step": "compute", "status": "success"})
	b.ObserveDuration("other_metric", 2.0, metrics.Labels{"step": "compute", "status": "success"})

	count, sum := readSummaryCountSum(t, b.stepDuration, "compute", "success")
	if count != 1 || sum != 1.5 {
		t.Errorf("summary count = %d sum = %v, want 1 and 1.5", count, sum)
	}
}

func TestFlush(t *testing.T) {
	t.Parallel()

	type pushRequest struct {
		method  string
		path    string
		bodyLen int
	}
	reqCh := make(chan pushRequest, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushRequest{method: r.Method, path: r.URL.Path, bodyLen: len(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("census", server.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.IncCounter("census_step_total", 1, metrics.Labels{"step": "load_places", "status": "success"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got pushRequest
	select {
	case got = <-reqCh:
	default:
		t.Fatalf("Flush() did not reach the Pushgateway")
	}
	if got.bodyLen == 0 {
		t.Fatalf("push request body is empty")
	}
}
