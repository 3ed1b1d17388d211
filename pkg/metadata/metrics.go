package metadata

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsPath is the path the Prometheus handler is served on
const MetricsPath = "/metrics"

const namespace = "alertrelay"

var (
	WebhooksReceivedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhooks_received_total",
		Help:      "Number of webhook batches received",
	})
	ObservationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "observations_total",
		Help:      "Alert observations applied to the record store, by status",
	}, []string{"status"})
	MalformedObservationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "malformed_observations_total",
		Help:      "Observations skipped because they could not be applied",
	})
	NotificationsSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_submitted_total",
		Help:      "Notifications submitted to the retry queue, by origin",
	}, []string{"origin"})
	DeliveryAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivery_attempts_total",
		Help:      "Delivery attempts against the notification provider, by result",
	}, []string{"result"})
	PermanentFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivery_permanent_failures_total",
		Help:      "Notifications dropped because the provider rejected them permanently",
	})
	PersistenceFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persistence_failures_total",
		Help:      "Snapshot writes that failed",
	})
	ActiveAlerts = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_alerts",
		Help:      "Number of alerts currently firing",
	})
	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Notifications waiting in the retry queue",
	})
)

var registerOnce sync.Once

// AddMetricsToPrometheusRegistry registers all collectors with the default registry
func AddMetricsToPrometheusRegistry() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			WebhooksReceivedTotal,
			ObservationsTotal,
			MalformedObservationsTotal,
			NotificationsSubmittedTotal,
			DeliveryAttemptsTotal,
			PermanentFailuresTotal,
			PersistenceFailuresTotal,
			ActiveAlerts,
			QueueDepth,
		)
	})
}
