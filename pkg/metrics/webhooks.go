package metrics

import "github.com/prometheus/client_golang/prometheus"

// Webhook outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// WebhookMetrics counts inbound provider events by reference kind and outcome.
type WebhookMetrics struct {
	events *prometheus.CounterVec
}

// NewWebhookMetrics registers lenco_webhook_events_total on reg. A nil
// registerer yields a no-op recorder.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lenco_webhook_events_total",
		Help: "Lenco webhook events by reference kind and outcome.",
	}, []string{"kind", "outcome"})
	reg.MustRegister(events)
	return &WebhookMetrics{events: events}
}

// Observe increments the counter for kind and outcome.
func (w *WebhookMetrics) Observe(kind, outcome string) {
	if w == nil || w.events == nil {
		return
	}
	if kind == "" {
		kind = "none"
	}
	w.events.WithLabelValues(kind, normalizeLabel(outcome)).Inc()
}

// Counter exposes a single series, mainly for assertions in tests.
func (w *WebhookMetrics) Counter(kind, outcome string) prometheus.Counter {
	if w == nil || w.events == nil {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: "lenco_webhook_events_unregistered"})
	}
	return w.events.WithLabelValues(kind, outcome)
}
