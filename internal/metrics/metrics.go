// Package metrics exposes prometheus counters for calls relayed to the backend.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK        = "ok"
	OutcomeTransport = "transport_error"
	OutcomeStatus    = "status_error"
	OutcomeBadBody   = "bad_body"
)

type Recorder struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	masked   prometheus.Counter
}

func New() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r := &Recorder{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insintel",
			Name:      "backend_requests_total",
			Help:      "Backend calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "insintel",
			Name:      "backend_request_duration_seconds",
			Help:      "Backend call latency by operation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"operation"}),
		masked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "insintel",
			Name:      "document_list_masked_total",
			Help:      "Document list failures answered with the empty fallback.",
		}),
	}
	registry.MustRegister(r.requests, r.duration, r.masked)
	return r
}

func (r *Recorder) ObserveBackend(operation, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(operation, outcome).Inc()
	r.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (r *Recorder) IncMaskedList() {
	if r == nil {
		return
	}
	r.masked.Inc()
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Requests() *prometheus.CounterVec {
	return r.requests
}

func (r *Recorder) Masked() prometheus.Counter {
	return r.masked
}
