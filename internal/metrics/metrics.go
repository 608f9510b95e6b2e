package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

type Metrics struct {
	CheckoutsCreated    prometheus.Counter
	Confirmations       *prometheus.CounterVec // channel, outcome
	NotificationsFailed prometheus.Counter
	StaleOrdersFailed   prometheus.Counter
	WebhookEvents       *prometheus.CounterVec // type, outcome

	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

// New builds the collectors and registers them on reg. Tests pass a fresh
// prometheus.NewRegistry() so parallel tests do not collide.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CheckoutsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_created_total",
			Help:      "Checkout sessions handed to the payment gateway.",
		}),
		Confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_total",
			Help:      "Payment confirmations by channel and outcome.",
		}, []string{"channel", "outcome"}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Confirmation emails that could not be delivered.",
		}),
		StaleOrdersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_orders_failed_total",
			Help:      "Abandoned PENDING orders moved to FAILED.",
		}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "PayPal webhook events by type and outcome.",
		}, []string{"type", "outcome"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.CheckoutsCreated,
			m.Confirmations,
			m.NotificationsFailed,
			m.StaleOrdersFailed,
			m.WebhookEvents,
			m.Requests,
			m.LatencyMS,
		)
	}
	return m
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
