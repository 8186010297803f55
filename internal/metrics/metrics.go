// Package metrics defines the Prometheus collectors for page tagging.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every collector name.
const Namespace = "sponsored_articles"

// Page outcomes, also reported in the X-Sponsored-Articles header.
const (
	OutcomePatched = "patched"
	OutcomeCSSOnly = "css-only"
	OutcomeSkipped = "skipped"
)

// Lookup sources.
const (
	SourceCache    = "cache"
	SourceDatabase = "database"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	PagesTotal       *prometheus.CounterVec
	ContainersMarked prometheus.Counter
	PatchDuration    prometheus.Histogram
	LookupDuration   *prometheus.HistogramVec
	LookupErrors     *prometheus.CounterVec
	CacheRequests    *prometheus.CounterVec
	BreakerState     prometheus.Gauge
	SponsoredAliases prometheus.Gauge
}

// New creates and registers the collectors on reg, or on the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		PagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pages_total",
			Help:      "Proxied pages by tagging outcome",
		}, []string{"outcome"}),
		ContainersMarked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "containers_marked_total",
			Help:      "Container tags that received the marker class",
		}),
		PatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "patch_duration_seconds",
			Help:      "Time spent scanning and patching one page",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		LookupDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Sponsored alias lookup latency by source",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"source"}),
		LookupErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "lookup_errors_total",
			Help:      "Failed alias lookups by source",
		}, []string{"source"}),
		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_requests_total",
			Help:      "Alias cache reads by result",
		}, []string{"result"}),
		BreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "lookup_breaker_state",
			Help:      "Lookup circuit breaker state (0 closed, 1 open, 2 half-open)",
		}),
		SponsoredAliases: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "sponsored_aliases",
			Help:      "Aliases returned by the most recent database lookup",
		}),
	}
}

// Page counts one proxied page.
func (m *Metrics) Page(outcome string, marked int) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(outcome).Inc()
	if marked > 0 {
		m.ContainersMarked.Add(float64(marked))
	}
}

// Patch records the duration of one patch pass.
func (m *Metrics) Patch(d time.Duration) {
	if m == nil {
		return
	}
	m.PatchDuration.Observe(d.Seconds())
}

// Lookup records a lookup against source.
func (m *Metrics) Lookup(source string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.LookupDuration.WithLabelValues(source).Observe(d.Seconds())
	if err != nil {
		m.LookupErrors.WithLabelValues(source).Inc()
	}
}

// Cache records a cache read result: hit, miss or error.
func (m *Metrics) Cache(result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// Breaker records the breaker state as its numeric value.
func (m *Metrics) Breaker(state int) {
	if m == nil {
		return
	}
	m.BreakerState.Set(float64(state))
}

// Aliases records the size of the latest alias set.
func (m *Metrics) Aliases(n int) {
	if m == nil {
		return
	}
	m.SponsoredAliases.Set(float64(n))
}
