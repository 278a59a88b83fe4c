package filesystem

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
)

// Metrics tracks Prometheus metrics for permission operations.
//
// All metrics use the "dittoacl_" prefix. Methods handle a nil receiver,
// so a nil *Metrics is a no-op when metrics are disabled.
type Metrics struct {
	// OperationDuration tracks the wall time of each operation.
	// Labels: method
	OperationDuration *prometheus.HistogramVec

	// OperationTotal counts operations by outcome.
	// Labels: method, result=[ok, NotFound, PermissionDenied, ...]
	OperationTotal *prometheus.CounterVec

	// ValidationErrorsTotal counts rejected ACL payloads.
	ValidationErrorsTotal prometheus.Counter

	// HelperDuration tracks recursive helper runs.
	// Labels: action
	HelperDuration *prometheus.HistogramVec

	// HelperFailuresTotal counts helper runs that exited non-zero.
	// Labels: action
	HelperFailuresTotal *prometheus.CounterVec
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *Metrics
)

// NewMetrics creates and registers the metrics. A nil registerer selects
// prometheus.DefaultRegisterer, registered once per process.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultMetricsOnce.Do(func() {
			defaultMetrics = newMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return newMetrics(registerer)
}

func newMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dittoacl_operation_duration_seconds",
				Help:    "Time to complete a permission operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		OperationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoacl_operation_total",
				Help: "Total permission operations by method and result",
			},
			[]string{"method", "result"},
		),
		ValidationErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dittoacl_validation_errors_total",
				Help: "Total rejected ACL payloads",
			},
		),
		HelperDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dittoacl_helper_duration_seconds",
				Help:    "Time spent in the recursive apply helper",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
			},
			[]string{"action"},
		),
		HelperFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoacl_helper_failures_total",
				Help: "Total recursive helper runs that failed",
			},
			[]string{"action"},
		),
	}

	registerer.MustRegister(
		m.OperationDuration,
		m.OperationTotal,
		m.ValidationErrorsTotal,
		m.HelperDuration,
		m.HelperFailuresTotal,
	)
	return m
}

// ObserveOperation records one operation and its outcome.
func (m *Metrics) ObserveOperation(method string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(method).Observe(duration.Seconds())
	m.OperationTotal.WithLabelValues(method, resultLabel(err)).Inc()
}

// ObserveValidationError records a rejected ACL payload.
func (m *Metrics) ObserveValidationError() {
	if m == nil {
		return
	}
	m.ValidationErrorsTotal.Inc()
}

// ObserveHelper records one helper run.
func (m *Metrics) ObserveHelper(action string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.HelperDuration.WithLabelValues(action).Observe(duration.Seconds())
	if err != nil {
		m.HelperFailuresTotal.WithLabelValues(action).Inc()
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if code := fserrors.CodeOf(err); code != 0 {
		return code.String()
	}
	return "error"
}
