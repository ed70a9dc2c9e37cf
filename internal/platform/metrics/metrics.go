package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Every method is
// safe on a nil receiver so services can run without metrics in tests.
type Metrics struct {
	UsersCreated   prometheus.Counter
	UsersDeleted   prometheus.Counter
	Logins         *prometheus.CounterVec
	TokensRevoked  *prometheus.CounterVec
	Notifications  *prometheus.CounterVec
	TasksCreated   prometheus.Counter
	RequestLatency *prometheus.HistogramVec
}

// New registers the metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskmanager_users_created_total",
			Help: "Total number of users created through signup",
		}),
		UsersDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskmanager_users_deleted_total",
			Help: "Total number of accounts deleted with their tasks",
		}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmanager_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}), // outcome: "success", "invalid_credentials", "locked"
		TokensRevoked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmanager_tokens_revoked_total",
			Help: "Session token revocations by scope",
		}, []string{"scope"}), // scope: "single", "all"
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmanager_notifications_total",
			Help: "Notification deliveries by kind and outcome",
		}, []string{"kind", "outcome"}),
		TasksCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskmanager_tasks_created_total",
			Help: "Total number of tasks created",
		}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskmanager_http_request_duration_seconds",
			Help:    "Latency distribution of HTTP handlers",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncrementUsersCreated() {
	if m != nil {
		m.UsersCreated.Inc()
	}
}

func (m *Metrics) IncrementUsersDeleted() {
	if m != nil {
		m.UsersDeleted.Inc()
	}
}

func (m *Metrics) IncrementLogin(outcome string) {
	if m != nil {
		m.Logins.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementTokensRevoked(scope string) {
	if m != nil {
		m.TokensRevoked.WithLabelValues(scope).Inc()
	}
}

func (m *Metrics) IncrementNotification(kind, outcome string) {
	if m != nil {
		m.Notifications.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) IncrementTasksCreated() {
	if m != nil {
		m.TasksCreated.Inc()
	}
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(method, route, status).Observe(d.Seconds())
	}
}
