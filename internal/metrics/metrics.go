// Package metrics exposes opt-in Prometheus counters and a histogram for the
// crawler, indexer, and query processor, following the pattern demonstrated
// by the pack's telemetry/churn package: disabled by default, a no-op
// registration if nothing ever scrapes /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PagesCrawled counts successfully fetched and WARC-written pages.
	PagesCrawled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "searchengine_pages_crawled_total",
		Help: "Total number of pages successfully fetched and written to WARC.",
	})
	// WARCRotations counts WARC file rotations.
	WARCRotations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "searchengine_warc_rotations_total",
		Help: "Total number of WARC file rotations performed.",
	})
	// ShardSpills counts in-memory shard evictions to disk.
	ShardSpills = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "searchengine_index_shard_spills_total",
		Help: "Total number of index shards evicted to disk under memory pressure.",
	})
	// PartialFlushes counts streaming-indexer partial-run flushes.
	PartialFlushes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "searchengine_index_partial_flushes_total",
		Help: "Total number of partial run files flushed by the streaming indexer.",
	})
	// QueryLatency observes end-to-end query processing latency in seconds.
	QueryLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "searchengine_query_latency_seconds",
		Help:    "Query processing latency in seconds.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(PagesCrawled, WARCRotations, ShardSpills, PartialFlushes, QueryLatency)
}

// Serve starts a standalone HTTP server exposing /metrics on addr. It
// blocks; callers should run it in its own goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
