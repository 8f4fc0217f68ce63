// Package metrics instruments signing, verification and key provisioning
// with prometheus collectors.
//
// Collectors live on a private registry owned by Metrics so tests and
// multiple servers in one process never collide on global registration.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docsign"

// Provisioning results.
const (
	ProvisionCreated  = "created"
	ProvisionExisting = "existing"
	ProvisionError    = "error"
)

// Sign results.
const (
	SignOK    = "ok"
	SignError = "error"
)

// Metrics holds the docsign collectors.
type Metrics struct {
	registry *prometheus.Registry

	signTotal      *prometheus.CounterVec
	signDuration   prometheus.Histogram
	verifyTotal    *prometheus.CounterVec
	provisionTotal *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		signTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_total",
			Help:      "Signing workflow runs by result",
		}, []string{"result"}),
		signDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sign_duration_seconds",
			Help:      "Duration of signing workflow runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		verifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verify_total",
			Help:      "Verification outcomes",
		}, []string{"outcome"}),
		provisionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_provision_total",
			Help:      "Key lookups by provisioning result",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.signTotal,
		m.signDuration,
		m.verifyTotal,
		m.provisionTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSign records one signing workflow run.
func (m *Metrics) ObserveSign(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := SignOK
	if err != nil {
		result = SignError
	}
	m.signTotal.WithLabelValues(result).Inc()
	m.signDuration.Observe(elapsed.Seconds())
}

// ObserveVerify records a verification outcome by name.
func (m *Metrics) ObserveVerify(outcome string) {
	if m == nil {
		return
	}
	m.verifyTotal.WithLabelValues(outcome).Inc()
}

// ObserveProvision records a key provisioning result.
func (m *Metrics) ObserveProvision(result string) {
	if m == nil {
		return
	}
	m.provisionTotal.WithLabelValues(result).Inc()
}
