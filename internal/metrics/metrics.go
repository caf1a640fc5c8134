// Package metrics exposes Prometheus collectors for decision traffic and
// HTTP handling.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frahmantamala/paynow/internal/core/events"
)

const (
	MetricDecisionsTotal      = "paynow_decisions_total"
	MetricDecisionFailures    = "paynow_decision_failures_total"
	MetricDecisionDuration    = "paynow_decision_duration_seconds"
	MetricHTTPRequestsTotal   = "http_requests_total"
	MetricHTTPRequestDuration = "http_request_duration_seconds"
)

// Metrics is safe for concurrent use.
type Metrics struct {
	decisionsTotal      *prometheus.CounterVec
	decisionFailures    *prometheus.CounterVec
	decisionDuration    *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewMetrics builds unregistered collectors; call Register before use.
func NewMetrics() *Metrics {
	return &Metrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricDecisionsTotal,
				Help: "Decisions returned by the decision service, by decision",
			},
			[]string{"decision"},
		),
		decisionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricDecisionFailures,
				Help: "Failed calls to the decision service, by upstream status",
			},
			[]string{"status"},
		),
		decisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricDecisionDuration,
				Help:    "Round-trip time of decision requests in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.01, 0.1, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.decisionsTotal,
		m.decisionFailures,
		m.decisionDuration,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register collector: %w", err)
		}
	}
	return nil
}

// Subscribe feeds decision outcomes from the bus into the collectors.
func (m *Metrics) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventTypePaymentDecided, func(_ context.Context, e events.Event) error {
		decided, ok := e.(*events.PaymentDecidedEvent)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		m.ObserveDecision(decided.Decision, decided.Duration)
		return nil
	})
	bus.Subscribe(events.EventTypePaymentFailed, func(_ context.Context, e events.Event) error {
		failed, ok := e.(*events.PaymentFailedEvent)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		m.ObserveFailure(failed.StatusCode, failed.Duration)
		return nil
	})
}

func (m *Metrics) ObserveDecision(decision string, d time.Duration) {
	switch decision {
	case "allow", "review", "block":
	default:
		decision = "unknown"
	}
	m.decisionsTotal.WithLabelValues(decision).Inc()
	m.decisionDuration.WithLabelValues("decided").Observe(d.Seconds())
}

func (m *Metrics) ObserveFailure(status int, d time.Duration) {
	m.decisionFailures.WithLabelValues(strconv.Itoa(status)).Inc()
	m.decisionDuration.WithLabelValues("failed").Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(method, path, code).Inc()
	m.httpRequestDuration.WithLabelValues(method, path, code).Observe(d.Seconds())
}

func (m *Metrics) DecisionsTotal() *prometheus.CounterVec {
	return m.decisionsTotal
}

func (m *Metrics) DecisionFailures() *prometheus.CounterVec {
	return m.decisionFailures
}

func (m *Metrics) HTTPRequestsTotal() *prometheus.CounterVec {
	return m.httpRequestsTotal
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
