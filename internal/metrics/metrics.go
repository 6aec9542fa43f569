package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics Prometheus-метрики сервиса наставничества
type Metrics struct {
	Transitions      *prometheus.CounterVec
	OperationErrors  *prometheus.CounterVec
	Notifications    *prometheus.CounterVec
	SessionsSwept    prometheus.Counter
	SweepRuns        *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPRequestTimes *prometheus.HistogramVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// New регистрирует метрики один раз на процесс
func New() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			Transitions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mentorship_transitions_total",
					Help: "Committed state transitions by entity and target status",
				},
				[]string{"entity", "status"},
			),
			OperationErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mentorship_operation_errors_total",
					Help: "Failed operations by operation and error kind",
				},
				[]string{"operation", "kind"},
			),
			Notifications: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mentorship_notifications_total",
					Help: "Notifications by event type and result",
				},
				[]string{"event", "result"},
			),
			SessionsSwept: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "mentorship_sessions_swept_total",
					Help: "Elapsed sessions marked completed by the sweep",
				},
			),
			SweepRuns: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mentorship_sweep_runs_total",
					Help: "Completion sweep runs by result",
				},
				[]string{"result"},
			),
			HTTPRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mentorship_http_requests_total",
					Help: "HTTP requests by route, method and status",
				},
				[]string{"route", "method", "status"},
			),
			HTTPRequestTimes: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "mentorship_http_request_duration_seconds",
					Help:    "HTTP request latency",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"route", "method"},
			),
		}
	})
	return sharedMetrics
}

// Методы безопасны для nil: сервисы в тестах работают без метрик

func (m *Metrics) RecordTransition(entity, status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(entity, status).Inc()
}

func (m *Metrics) RecordError(operation, kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "internal"
	}
	m.OperationErrors.WithLabelValues(operation, kind).Inc()
}

func (m *Metrics) RecordNotification(event, result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(event, result).Inc()
}

func (m *Metrics) RecordSweep(completed int64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SweepRuns.WithLabelValues("error").Inc()
		return
	}
	m.SweepRuns.WithLabelValues("ok").Inc()
	m.SessionsSwept.Add(float64(completed))
}

func (m *Metrics) RecordHTTP(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, status).Inc()
	m.HTTPRequestTimes.WithLabelValues(route, method).Observe(seconds)
}
