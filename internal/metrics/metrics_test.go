package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybersalt/cs-sponsored-articles/internal/metrics"
)

// value returns the value of the single sample of family name whose labels
// include label=labelValue (or the only sample when label is empty).
func value(t *testing.T, reg *prometheus.Registry, name, label, labelValue string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label != "" && !hasLabel(m, label, labelValue) {
				continue
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("metric %s{%s=%q} not found", name, label, labelValue)
	return 0
}

func hasLabel(m *dto.Metric, name, val string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == val {
			return true
		}
	}
	return false
}

func TestMetrics_Record(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.Page(metrics.OutcomePatched, 3)
	m.Page(metrics.OutcomeCSSOnly, 0)
	m.Lookup(metrics.SourceDatabase, time.Millisecond, errors.New("boom"))
	m.Cache("hit")
	m.Breaker(1)
	m.Aliases(4)

	assert.InDelta(t, 1, value(t, reg, "sponsored_articles_pages_total", "outcome", metrics.OutcomePatched), 0)
	assert.InDelta(t, 1, value(t, reg, "sponsored_articles_pages_total", "outcome", metrics.OutcomeCSSOnly), 0)
	assert.InDelta(t, 3, value(t, reg, "sponsored_articles_containers_marked_total", "", ""), 0)
	assert.InDelta(t, 1, value(t, reg, "sponsored_articles_lookup_errors_total", "source", metrics.SourceDatabase), 0)
	assert.InDelta(t, 1, value(t, reg, "sponsored_articles_cache_requests_total", "result", "hit"), 0)
	assert.InDelta(t, 1, value(t, reg, "sponsored_articles_lookup_breaker_state", "", ""), 0)
	assert.InDelta(t, 4, value(t, reg, "sponsored_articles_sponsored_aliases", "", ""), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.Page(metrics.OutcomeSkipped, 0)
		m.Lookup(metrics.SourceCache, time.Second, nil)
		m.Cache("miss")
		m.Breaker(0)
		m.Aliases(0)
		m.Patch(time.Millisecond)
	})
}
