package prometheus

import (
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters and gauges for the redirect pipeline. promauto registers them
// with the default registry served by the /metrics server.
var (
	RedirectsTotal = promauto.NewCounter(prom.CounterOpts{
		Name: "redirects_total",
		Help: "Total number of redirects issued",
	})

	NotFoundTotal = promauto.NewCounter(prom.CounterOpts{
		Name: "redirect_not_found_total",
		Help: "Total number of requests for unknown short codes",
	})

	CacheHitsTotal = promauto.NewCounter(prom.CounterOpts{
		Name: "resolution_cache_hits_total",
		Help: "Total number of fresh resolution cache hits",
	})

	CacheMissesTotal = promauto.NewCounter(prom.CounterOpts{
		Name: "resolution_cache_misses_total",
		Help: "Total number of resolution cache misses",
	})

	StaleServedTotal = promauto.NewCounter(prom.CounterOpts{
		Name: "resolution_stale_served_total",
		Help: "Total number of redirects served from stale cache entries during origin outages",
	})

	OriginLookupDuration = promauto.NewHistogram(prom.HistogramOpts{
		Name:    "origin_lookup_duration_seconds",
		Help:    "Duration of link store lookups on cache miss",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	OriginErrorsTotal = promauto.NewCounterVec(prom.CounterOpts{
		Name: "origin_errors_total",
		Help: "Total number of link store errors by kind",
	}, []string{"kind"}) // not_found, unavailable

	ClicksPublishedTotal = promauto.NewCounter(prom.CounterOpts{
		Name: "clicks_published_total",
		Help: "Total number of click events dispatched",
	})

	ClicksDroppedTotal = promauto.NewCounter(prom.CounterOpts{
		Name: "clicks_dropped_total",
		Help: "Total number of click events lost to dispatch errors or timeouts",
	})

	ClicksSuppressedTotal = promauto.NewCounter(prom.CounterOpts{
		Name: "clicks_suppressed_total",
		Help: "Total number of visits not recorded due to the opt-out flag",
	})

	ClicksForwardedTotal = promauto.NewCounter(prom.CounterOpts{
		Name: "clicks_forwarded_total",
		Help: "Total number of click events forwarded to the link store",
	})

	ClickForwardErrorsTotal = promauto.NewCounter(prom.CounterOpts{
		Name: "click_forward_errors_total",
		Help: "Total number of failed forwarding attempts to the link store",
	})

	ClickStreamPending = promauto.NewGauge(prom.GaugeOpts{
		Name: "click_stream_pending_messages",
		Help: "Click events sitting in the stream awaiting forwarding",
	})

	RateLimitedTotal = promauto.NewCounter(prom.CounterOpts{
		Name: "rate_limited_requests_total",
		Help: "Total number of rate-limited requests",
	})
)
