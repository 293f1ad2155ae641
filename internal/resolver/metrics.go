package resolver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/dshills/callcampaign-mcp/pkg/types"
)

// Metrics records resolution outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	resolutions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	candidates  prometheus.Histogram
	truncations prometheus.Counter
	failures    prometheus.Counter
	cacheHits   prometheus.Counter
}

// NewMetrics registers the resolver metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campaign",
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Client resolutions by the pass that produced them (exact, fuzzy, none)",
		}, []string{"pass"}),

		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "campaign",
			Subsystem: "resolver",
			Name:      "latency_seconds",
			Help:      "Client resolution latency by pass",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"pass"}),

		candidates: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "campaign",
			Subsystem: "resolver",
			Name:      "fuzzy_candidates",
			Help:      "Candidates examined by the fuzzy pass",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
		}),

		truncations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "campaign",
			Subsystem: "resolver",
			Name:      "truncated_total",
			Help:      "Fuzzy scans stopped at the candidate ceiling",
		}),

		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "campaign",
			Subsystem: "resolver",
			Name:      "store_errors_total",
			Help:      "Resolutions that failed because the client store was unavailable",
		}),

		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "campaign",
			Subsystem: "resolver",
			Name:      "cache_hits_total",
			Help:      "Resolutions served from the result cache",
		}),
	}
}

// observe counts a resolution under its pass. Cached results count as
// resolutions but did not scan, so they leave the fuzzy scan metrics alone.
func (m *Metrics) observe(result types.MatchResult, elapsed time.Duration, cached bool) {
	if m == nil {
		return
	}
	pass := string(result.Pass)
	m.resolutions.WithLabelValues(pass).Inc()
	m.latency.WithLabelValues(pass).Observe(elapsed.Seconds())
	if cached {
		m.cacheHits.Inc()
		return
	}
	if result.Pass != types.PassExact {
		m.candidates.Observe(float64(result.Candidates))
	}
	if result.Truncated {
		m.truncations.Inc()
	}
}

func (m *Metrics) storeError() {
	if m == nil {
		return
	}
	m.failures.Inc()
}

// PassCounts returns the number of resolutions per pass since startup
func (m *Metrics) PassCounts() map[types.Pass]float64 {
	counts := map[types.Pass]float64{
		types.PassExact: 0,
		types.PassFuzzy: 0,
		types.PassNone:  0,
	}
	if m == nil {
		return counts
	}
	for pass := range counts {
		counter, err := m.resolutions.GetMetricWithLabelValues(string(pass))
		if err != nil {
			continue
		}
		var metric dto.Metric
		if err := counter.Write(&metric); err != nil {
			continue
		}
		counts[pass] = metric.GetCounter().GetValue()
	}
	return counts
}
