package provisioning

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/ec2-cli/internal/util/retry"
)

// Readiness wait outcomes.
const (
	WaitResultReady   = "ready"
	WaitResultTimeout = "timeout"
	WaitResultError   = "error"
)

// Metrics records provisioning metrics in a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	phaseDuration  *prometheus.HistogramVec
	readinessWait  *prometheus.HistogramVec
	bindingCreated *prometheus.CounterVec
	provisionTotal *prometheus.CounterVec
}

// NewMetrics creates the provisioning metrics and registers them.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ec2cli",
				Name:      "phase_duration_seconds",
				Help:      "Duration of provisioning phases in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12), // 500ms to ~17min
			},
			[]string{"phase"},
		),
		readinessWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ec2cli",
				Name:      "readiness_wait_seconds",
				Help:      "Duration of readiness waits in seconds by condition and result",
				Buckets:   prometheus.ExponentialBuckets(5, 2, 8), // 5s to ~21min
			},
			[]string{"condition", "result"},
		),
		bindingCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ec2cli",
				Name:      "permission_binding_created_total",
				Help:      "IAM resources created for the instance permission binding",
			},
			[]string{"resource"},
		),
		provisionTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ec2cli",
				Name:      "provision_total",
				Help:      "Provisioning runs by result",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(m.phaseDuration, m.readinessWait, m.bindingCreated, m.provisionTotal)
	return m
}

// Registry returns the registry holding the provisioning metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObservePhase records the duration of a phase.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// ObserveWait records a readiness wait, classifying err as the result.
func (m *Metrics) ObserveWait(condition string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.readinessWait.WithLabelValues(condition, WaitResult(err)).Observe(d.Seconds())
}

// RecordBindingCreated counts a created IAM resource.
func (m *Metrics) RecordBindingCreated(resource string) {
	if m == nil {
		return
	}
	m.bindingCreated.WithLabelValues(resource).Inc()
}

// RecordProvision counts a finished provisioning run.
func (m *Metrics) RecordProvision(result string) {
	if m == nil {
		return
	}
	m.provisionTotal.WithLabelValues(result).Inc()
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// WaitResult classifies the outcome of a readiness wait.
func WaitResult(err error) string {
	switch {
	case err == nil:
		return WaitResultReady
	case errors.Is(err, retry.ErrTimeout):
		return WaitResultTimeout
	default:
		return WaitResultError
	}
}
