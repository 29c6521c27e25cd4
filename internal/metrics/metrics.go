// Package metrics exposes the node's ambient Prometheus instrumentation.
// None of these counters are part of the wire protocol in spec.md §6; they
// are observability the ambient stack carries regardless of the protocol
// Non-goals (spec.md §7), grounded on GoCodeAlone-modular's
// modules/eventbus/metrics_exporters.go collector and the Prometheus usage
// in the other_examples simple-message-broker reference.
package metrics

import (
	"github.com/arghyadipchak/mssngr/internal/topicreg"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every counter/gauge the node records.
type Metrics struct {
	published       *prometheus.CounterVec
	delivered       *prometheus.CounterVec
	dropped         *prometheus.CounterVec
	activeSubs      *prometheus.GaugeVec
	retentionEvicts *prometheus.CounterVec
}

// New registers all metrics against reg and returns the bundle. Passing a
// fresh prometheus.NewRegistry() per node (rather than the global default
// registry) keeps multiple nodes in one test binary from colliding.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mssngr_messages_published_total",
			Help: "Total messages accepted onto the broker channel, by topic.",
		}, []string{"topic"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mssngr_messages_delivered_total",
			Help: "Total messages delivered to subscribers, by topic and delivery mode.",
		}, []string{"topic", "mode"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mssngr_messages_dropped_total",
			Help: "Total per-subscriber delivery attempts that failed (serialization or send error), by topic.",
		}, []string{"topic"}),
		activeSubs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mssngr_active_subscribers",
			Help: "Current subscriber count, by topic.",
		}, []string{"topic"}),
		retentionEvicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mssngr_retention_evicted_total",
			Help: "Total retained messages evicted by the cleaner, by topic.",
		}, []string{"topic"}),
	}

	reg.MustRegister(m.published, m.delivered, m.dropped, m.activeSubs, m.retentionEvicts)
	return m
}

// Published records one accepted publish.
func (m *Metrics) Published(topic string) {
	m.published.WithLabelValues(topic).Inc()
}

// Delivered records one successful per-subscriber send.
func (m *Metrics) Delivered(topic string, mode topicreg.Mode) {
	m.delivered.WithLabelValues(topic, mode.String()).Inc()
}

// Dropped records one failed per-subscriber delivery attempt.
func (m *Metrics) Dropped(topic string) {
	m.dropped.WithLabelValues(topic).Inc()
}

// SetActiveSubscribers updates the subscriber-count gauge for a topic.
func (m *Metrics) SetActiveSubscribers(topic string, n int) {
	m.activeSubs.WithLabelValues(topic).Set(float64(n))
}

// EvictedEvents adds n to the retention-eviction counter for a topic.
func (m *Metrics) EvictedEvents(topic string, n int) {
	if n <= 0 {
		return
	}
	m.retentionEvicts.WithLabelValues(topic).Add(float64(n))
}
