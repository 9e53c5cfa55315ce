package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	catalogbadger "github.com/marmos91/artifactguard/pkg/catalog/badger"
	"github.com/marmos91/artifactguard/pkg/metrics"
)

// CacheStatsSource is satisfied by the badger catalog store.
type CacheStatsSource interface {
	CacheStats() []catalogbadger.CacheStat
}

// badgerCollector reads cache statistics at scrape time.
type badgerCollector struct {
	source CacheStatsSource
	ratio  *prometheus.Desc
	hits   *prometheus.Desc
	misses *prometheus.Desc
}

// RegisterBadgerMetrics exposes the catalog's BadgerDB cache statistics. It
// is a no-op when metrics are disabled.
func RegisterBadgerMetrics(source CacheStatsSource) error {
	if !metrics.IsEnabled() {
		return nil
	}
	return RegisterBadgerMetricsWith(metrics.GetRegistry(), source)
}

// RegisterBadgerMetricsWith registers the collector on reg.
func RegisterBadgerMetricsWith(reg prometheus.Registerer, source CacheStatsSource) error {
	return reg.Register(&badgerCollector{
		source: source,
		ratio: prometheus.NewDesc(
			prometheus.BuildFQName(metrics.Namespace, "catalog_badger", "cache_hit_ratio"),
			"BadgerDB cache hit ratio (0.0 to 1.0) by cache type",
			[]string{"cache_type"}, nil),
		hits: prometheus.NewDesc(
			prometheus.BuildFQName(metrics.Namespace, "catalog_badger", "cache_hits_total"),
			"BadgerDB cache hits by cache type",
			[]string{"cache_type"}, nil),
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(metrics.Namespace, "catalog_badger", "cache_misses_total"),
			"BadgerDB cache misses by cache type",
			[]string{"cache_type"}, nil),
	})
}

func (c *badgerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.ratio
	ch <- c.hits
	ch <- c.misses
}

func (c *badgerCollector) Collect(ch chan<- prometheus.Metric) {
	for _, st := range c.source.CacheStats() {
		ch <- prometheus.MustNewConstMetric(c.ratio, prometheus.GaugeValue, st.Ratio, st.Kind)
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(st.Hits), st.Kind)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(st.Misses), st.Kind)
	}
}
