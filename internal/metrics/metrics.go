package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the complaint lifecycle and the HTTP layer.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ComplaintsCreated   *prometheus.CounterVec
	StateTransitions    *prometheus.CounterVec
	ComplaintsDeleted   prometheus.Counter
	NotificationsFailed prometheus.Counter
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers every metric on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ComplaintsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "denuncias_complaints_created_total",
			Help: "Complaints created by category",
		}, []string{"category"}),

		StateTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "denuncias_state_transitions_total",
			Help: "Committed complaint state transitions",
		}, []string{"from", "to"}),

		ComplaintsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "denuncias_complaints_deleted_total",
			Help: "Complaints deleted by their submitter",
		}),

		NotificationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "denuncias_notifications_failed_total",
			Help: "State change emails that could not be sent",
		}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "denuncias_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route pattern and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncComplaintCreated(category string) {
	if m != nil {
		m.ComplaintsCreated.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) IncStateTransition(from, to string) {
	if m != nil {
		m.StateTransitions.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) IncComplaintDeleted() {
	if m != nil {
		m.ComplaintsDeleted.Inc()
	}
}

func (m *Metrics) IncNotificationFailed() {
	if m != nil {
		m.NotificationsFailed.Inc()
	}
}

// ObserveHTTPRequest records the duration of one request
func (m *Metrics) ObserveHTTPRequest(method, route, status string, d time.Duration) {
	if m != nil {
		m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
	}
}
