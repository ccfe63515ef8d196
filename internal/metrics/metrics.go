package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine and cache observability. Registered on the default registry and
// served by the API server's /metrics endpoint.
var (
	CacheRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tubegate",
		Name:      "cache_refreshes_total",
		Help:      "Channel cache refresh passes by result.",
	}, []string{"result"})

	CacheRefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tubegate",
		Name:      "cache_refresh_duration_seconds",
		Help:      "Duration of a full channel cache refresh pass.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	ChannelFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tubegate",
		Name:      "channel_fetch_failures_total",
		Help:      "Individual channel fetches that failed during refresh.",
	})

	GatingDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tubegate",
		Name:      "gating_decisions_total",
		Help:      "Playback gating decisions by outcome.",
	}, []string{"outcome"})

	Heartbeats = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tubegate",
		Name:      "heartbeats_total",
		Help:      "Playback heartbeats by result.",
	}, []string{"result"})

	CatalogBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tubegate",
		Name:      "catalog_builds_total",
		Help:      "Catalog assembly operations by source (cache hit or rebuild).",
	}, []string{"source"})
)
