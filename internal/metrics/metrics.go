// Package metrics exposes Prometheus instrumentation for the provider
// fallback chain. The collector plugs into the orchestrator's attempt hook.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/nlu"
)

// Collector records per-attempt outcomes and latencies.
type Collector struct {
	attempts *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewCollector creates a collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scriptflow",
			Subsystem: "nlu",
			Name:      "attempts_total",
			Help:      "Provider attempts by provider, task, and outcome.",
		}, []string{"provider", "task", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scriptflow",
			Subsystem: "nlu",
			Name:      "attempt_duration_seconds",
			Help:      "Provider attempt latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "outcome"}),
	}
	reg.MustRegister(c.attempts, c.latency)
	return c
}

// OnAttempt is the orchestrator hook. It is safe for concurrent use.
func (c *Collector) OnAttempt(event nlu.AttemptEvent) {
	outcome := string(event.Outcome)
	c.attempts.WithLabelValues(event.Provider, string(event.Task), outcome).Inc()
	c.latency.WithLabelValues(event.Provider, outcome).Observe(event.Latency.Seconds())
}
