package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-formstate/pkg/flat"
)

// CacheCollector exports the hit, miss and size figures of a flat.Flattener.
type CacheCollector struct {
	flattener *flat.Flattener
	hits      *prometheus.Desc
	misses    *prometheus.Desc
	entries   *prometheus.Desc
}

var _ prometheus.Collector = (*CacheCollector)(nil)

// NewCacheCollector reads f on every scrape; pass flat.Shared() to export the
// cache validators use by default.
func NewCacheCollector(f *flat.Flattener, namespace string) *CacheCollector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	labels := []string{"direction"}
	return &CacheCollector{
		flattener: f,
		hits: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "flat_cache", "hits_total"),
			"Flatten/unflatten cache hits.", labels, nil,
		),
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "flat_cache", "misses_total"),
			"Flatten/unflatten cache misses.", labels, nil,
		),
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "flat_cache", "entries"),
			"Entries currently held by the cache.", labels, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.entries
}

// Collect implements prometheus.Collector.
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	if c.flattener == nil {
		return
	}
	flatten, unflatten := c.flattener.Stats()
	flattenLen, unflattenLen := c.flattener.Len()

	for _, d := range []struct {
		direction string
		stats     flat.Stats
		size      int
	}{
		{"flatten", flatten, flattenLen},
		{"unflatten", unflatten, unflattenLen},
	} {
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(d.stats.Hits), d.direction)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(d.stats.Misses), d.direction)
		ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(d.size), d.direction)
	}
}
