// Package metrics exposes hostblock counters to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/haukened/rr-hostblock/internal/dns/domain"
)

const namespace = "hostblock"

// Rebuild outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeAborted = "aborted"
	OutcomeError   = "error"
)

// Metrics holds the hostblock collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	rebuilds        *prometheus.CounterVec
	itemFailures    prometheus.Counter
	rebuildDuration prometheus.Histogram
	hosts           prometheus.Gauge
	lastSuccess     prometheus.Gauge
	lookups         *prometheus.CounterVec
	cache           *prometheus.CounterVec
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Rebuilds of the decision set by outcome.",
		}, []string{"outcome"}),
		itemFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_failures_total",
			Help:      "Items that could not be opened or read during a rebuild.",
		}),
		rebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Wall time of completed rebuilds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		hosts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hosts",
			Help:      "Members of the published decision set.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_rebuild_success_timestamp_seconds",
			Help:      "Unix time of the last successful rebuild.",
		}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Host lookups by verdict.",
		}, []string{"verdict"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decision_cache_total",
			Help:      "Decision cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.rebuilds, m.itemFailures, m.rebuildDuration, m.hosts, m.lastSuccess, m.lookups, m.cache)
	return m
}

// ObserveRebuild records the outcome of one rebuild.
func (m *Metrics) ObserveRebuild(res domain.RebuildResult, err error, at time.Time) {
	if m == nil {
		return
	}
	switch {
	case errors.Is(err, domain.ErrRebuildAborted):
		m.rebuilds.WithLabelValues(OutcomeAborted).Inc()
		return
	case err != nil:
		m.rebuilds.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.rebuilds.WithLabelValues(OutcomeOK).Inc()
	m.itemFailures.Add(float64(res.Failed()))
	m.rebuildDuration.Observe(res.Duration.Seconds())
	m.SetHosts(res.Hosts)
	m.lastSuccess.Set(float64(at.Unix()))
}

// SetHosts sets the published set size, e.g. after a restore.
func (m *Metrics) SetHosts(n int) {
	if m == nil {
		return
	}
	m.hosts.Set(float64(n))
}

// ObserveLookup counts one lookup.
func (m *Metrics) ObserveLookup(blocked bool) {
	if m == nil {
		return
	}
	verdict := "allowed"
	if blocked {
		verdict = "blocked"
	}
	m.lookups.WithLabelValues(verdict).Inc()
}

// ObserveCache counts one decision cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}
