// Package telemetry exposes Prometheus instrumentation for compile and
// verify runs. It is purely observational: nothing it records ever feeds
// back into a hashed domain, and a Recorder is always optional — callers
// that don't want metrics pass telemetry.Noop().
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder records outcomes of compile and verify operations.
type Recorder interface {
	ObserveCompile(artifactKind string, d time.Duration, err error)
	ObserveVerify(mode string, d time.Duration, err error)
	ObserveCheckFailure(checkName string)
	SetLeafCount(n int)
}

// Registry wraps the Prometheus collectors SIGNIA registers. Callers serve
// its Gatherer from their own HTTP server's /metrics handler; this package
// never opens a listener itself (the signia CLI starts one only when
// --metrics-addr is set).
type Registry struct {
	registry *prometheus.Registry

	compileTotal    *prometheus.CounterVec
	compileDuration *prometheus.HistogramVec
	verifyTotal     *prometheus.CounterVec
	verifyDuration  *prometheus.HistogramVec
	checkFailures   *prometheus.CounterVec
	leafCount       prometheus.Gauge
}

// NewRegistry builds a Registry with its own prometheus.Registry, so
// embedding applications never collide with SIGNIA's metric names.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		compileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signia",
			Name:      "compile_total",
			Help:      "Total compile operations, partitioned by artifact kind and outcome.",
		}, []string{"artifact_kind", "outcome"}),
		compileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "signia",
			Name:      "compile_duration_seconds",
			Help:      "Compile operation latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"artifact_kind"}),
		verifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signia",
			Name:      "verify_total",
			Help:      "Total verify operations, partitioned by mode and outcome.",
		}, []string{"mode", "outcome"}),
		verifyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "signia",
			Name:      "verify_duration_seconds",
			Help:      "Verify operation latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		checkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signia",
			Name:      "verify_check_failures_total",
			Help:      "Verify checks that failed, partitioned by check name.",
		}, []string{"check"}),
		leafCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "signia",
			Name:      "last_bundle_leaf_count",
			Help:      "Leaf count of the most recently built Merkle proof.",
		}),
	}

	reg.MustRegister(r.compileTotal, r.compileDuration, r.verifyTotal, r.verifyDuration, r.checkFailures, r.leafCount)
	return r
}

// Gatherer exposes the underlying prometheus.Gatherer for a /metrics handler.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }

func (r *Registry) ObserveCompile(artifactKind string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.compileTotal.WithLabelValues(artifactKind, outcome).Inc()
	r.compileDuration.WithLabelValues(artifactKind).Observe(d.Seconds())
}

func (r *Registry) ObserveVerify(mode string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.verifyTotal.WithLabelValues(mode, outcome).Inc()
	r.verifyDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (r *Registry) ObserveCheckFailure(checkName string) {
	r.checkFailures.WithLabelValues(checkName).Inc()
}

func (r *Registry) SetLeafCount(n int) {
	r.leafCount.Set(float64(n))
}

// noop is the Recorder used when a caller doesn't want metrics at all.
type noop struct{}

// Noop returns a Recorder that discards every observation.
func Noop() Recorder { return noop{} }

func (noop) ObserveCompile(string, time.Duration, error) {}
func (noop) ObserveVerify(string, time.Duration, error)  {}
func (noop) ObserveCheckFailure(string)                  {}
func (noop) SetLeafCount(int)                            {}
