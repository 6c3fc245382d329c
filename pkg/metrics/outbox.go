package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outbox publish results.
const (
	PublishOK     = "published"
	PublishRetry  = "retry"
	PublishParked = "parked"
)

// OutboxMetrics tracks the outbox publisher.
type OutboxMetrics struct {
	events *prometheus.CounterVec
	batch  prometheus.Histogram
}

// NewOutboxMetrics registers the publisher collectors on reg. A nil
// registerer yields a no-op recorder.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_total",
		Help: "Outbox events handled by the publisher, by event type and result.",
	}, []string{"event_type", "result"})
	batch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_batch_duration_seconds",
		Help:    "Time spent draining one outbox batch.",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 15},
	})
	reg.MustRegister(events, batch)
	return &OutboxMetrics{events: events, batch: batch}
}

func (o *OutboxMetrics) Observe(eventType, result string) {
	if o == nil || o.events == nil {
		return
	}
	o.events.WithLabelValues(normalizeLabel(eventType), result).Inc()
}

func (o *OutboxMetrics) ObserveBatch(d time.Duration) {
	if o == nil || o.batch == nil {
		return
	}
	o.batch.Observe(d.Seconds())
}

// Counter exposes a single series for assertions in tests.
func (o *OutboxMetrics) Counter(eventType, result string) prometheus.Counter {
	if o == nil || o.events == nil {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: "outbox_events_unregistered"})
	}
	return o.events.WithLabelValues(eventType, result)
}
