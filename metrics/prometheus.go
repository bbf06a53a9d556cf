package metrics

import "github.com/prometheus/client_golang/prometheus"

// PrometheusCollector adapts a Registry's atomic snapshots into a
// prometheus.Collector, grounded on the teacher's metrics collector
// wiring: descriptors built once, values read fresh on every scrape.
type PrometheusCollector struct {
	reg *Registry

	parseCount   *prometheus.Desc
	parseSuccess *prometheus.Desc
	parseError   *prometheus.Desc
	parseAvgTime *prometheus.Desc

	aggUpdateCount   *prometheus.Desc
	aggSnapshotCount *prometheus.Desc
	aggTotalDepth    *prometheus.Desc
	aggCurrentSpread *prometheus.Desc

	cacheHits      *prometheus.Desc
	cacheMisses    *prometheus.Desc
	cacheGets      *prometheus.Desc
	cacheSets      *prometheus.Desc
	cacheDeletes   *prometheus.Desc
	cachePublishes *prometheus.Desc
	cacheHitRate   *prometheus.Desc

	feedUpdatesReceived *prometheus.Desc
	feedDropped         *prometheus.Desc
	feedReconnects      *prometheus.Desc
	feedConnectionState *prometheus.Desc
	feedLagSlots        *prometheus.Desc
}

// NewPrometheusCollector wraps reg for registration with a prometheus.Registry.
func NewPrometheusCollector(reg *Registry) *PrometheusCollector {
	const ns = "matchbook"
	desc := func(subsystem, name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(ns, subsystem, name), help, nil, nil)
	}
	return &PrometheusCollector{
		reg: reg,

		parseCount:   desc("parser", "parse_count", "Total parse attempts"),
		parseSuccess: desc("parser", "success_count", "Successful parses"),
		parseError:   desc("parser", "error_count", "Failed parses"),
		parseAvgTime: desc("parser", "avg_time_nanos", "Mean parse duration in nanoseconds"),

		aggUpdateCount:   desc("aggregator", "update_count", "Total apply_update calls"),
		aggSnapshotCount: desc("aggregator", "snapshot_count", "Total get_snapshot calls"),
		aggTotalDepth:    desc("aggregator", "total_depth", "Sum of bid+ask level counts observed"),
		aggCurrentSpread: desc("aggregator", "current_spread", "Most recently observed spread"),

		cacheHits:      desc("cache", "hits", "Cache hits"),
		cacheMisses:    desc("cache", "misses", "Cache misses"),
		cacheGets:      desc("cache", "gets", "Cache get calls"),
		cacheSets:      desc("cache", "sets", "Cache set calls"),
		cacheDeletes:   desc("cache", "deletes", "Cache delete calls"),
		cachePublishes: desc("cache", "publishes", "Pub/sub publish deliveries"),
		cacheHitRate:   desc("cache", "hit_rate", "Hits divided by gets"),

		feedUpdatesReceived: desc("feed", "updates_received", "Account updates ingested"),
		feedDropped:         desc("feed", "dropped", "Updates dropped due to backpressure"),
		feedReconnects:      desc("feed", "reconnects", "Transport reconnect attempts"),
		feedConnectionState: desc("feed", "connection_state", "Current connection state enum value"),
		feedLagSlots:        desc("feed", "lag_slots", "Observed slot lag behind the transport"),
	}
}

// Describe implements prometheus.Collector.
func (c *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.parseCount, c.parseSuccess, c.parseError, c.parseAvgTime,
		c.aggUpdateCount, c.aggSnapshotCount, c.aggTotalDepth, c.aggCurrentSpread,
		c.cacheHits, c.cacheMisses, c.cacheGets, c.cacheSets, c.cacheDeletes, c.cachePublishes, c.cacheHitRate,
		c.feedUpdatesReceived, c.feedDropped, c.feedReconnects, c.feedConnectionState, c.feedLagSlots,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	p := c.reg.Parser.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.parseCount, prometheus.CounterValue, float64(p.ParseCount))
	ch <- prometheus.MustNewConstMetric(c.parseSuccess, prometheus.CounterValue, float64(p.SuccessCount))
	ch <- prometheus.MustNewConstMetric(c.parseError, prometheus.CounterValue, float64(p.ErrorCount))
	ch <- prometheus.MustNewConstMetric(c.parseAvgTime, prometheus.GaugeValue, float64(p.AvgTimeNanos))

	a := c.reg.Aggregator.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.aggUpdateCount, prometheus.CounterValue, float64(a.UpdateCount))
	ch <- prometheus.MustNewConstMetric(c.aggSnapshotCount, prometheus.CounterValue, float64(a.SnapshotCount))
	ch <- prometheus.MustNewConstMetric(c.aggTotalDepth, prometheus.GaugeValue, float64(a.TotalDepth))
	ch <- prometheus.MustNewConstMetric(c.aggCurrentSpread, prometheus.GaugeValue, float64(a.CurrentSpread))

	cs := c.reg.Cache.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.cacheHits, prometheus.CounterValue, float64(cs.Hits))
	ch <- prometheus.MustNewConstMetric(c.cacheMisses, prometheus.CounterValue, float64(cs.Misses))
	ch <- prometheus.MustNewConstMetric(c.cacheGets, prometheus.CounterValue, float64(cs.Gets))
	ch <- prometheus.MustNewConstMetric(c.cacheSets, prometheus.CounterValue, float64(cs.Sets))
	ch <- prometheus.MustNewConstMetric(c.cacheDeletes, prometheus.CounterValue, float64(cs.Deletes))
	ch <- prometheus.MustNewConstMetric(c.cachePublishes, prometheus.CounterValue, float64(cs.Publishes))
	ch <- prometheus.MustNewConstMetric(c.cacheHitRate, prometheus.GaugeValue, cs.HitRate)

	f := c.reg.Feed.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.feedUpdatesReceived, prometheus.CounterValue, float64(f.UpdatesReceived))
	ch <- prometheus.MustNewConstMetric(c.feedDropped, prometheus.CounterValue, float64(f.Dropped))
	ch <- prometheus.MustNewConstMetric(c.feedReconnects, prometheus.CounterValue, float64(f.Reconnects))
	ch <- prometheus.MustNewConstMetric(c.feedConnectionState, prometheus.GaugeValue, float64(f.ConnectionState))
	ch <- prometheus.MustNewConstMetric(c.feedLagSlots, prometheus.GaugeValue, float64(f.LagSlots))
}
