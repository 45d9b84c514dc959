package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	StoreFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_store_flushes_total",
			Help: "Number of change-tracker flushes against the store",
		},
		[]string{"status"},
	)

	StoreFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_store_flush_duration_seconds",
			Help:    "Duration of change-tracker flushes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	StoreDetachedEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_store_detached_entries_total",
			Help: "Pending tracker entries discarded by detach",
		},
	)

	CrashLogsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_crash_logs_total",
			Help: "Crash log records written by the failure audit",
		},
		[]string{"class", "method"},
	)

	UnauditedFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_unaudited_failures_total",
			Help: "Service failures that were not written to the crash log",
		},
		[]string{"class", "method", "reason"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_lookups_total",
			Help: "Read-through cache lookups by key family and result",
		},
		[]string{"family", "result"},
	)
)

func RecordHttpRequest(method, endpoint, status string, duration time.Duration) {
	HttpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HttpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func RecordStoreFlush(err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreFlushesTotal.WithLabelValues(status).Inc()
	StoreFlushDuration.Observe(duration.Seconds())
}

func RecordDetached(n int) {
	if n > 0 {
		StoreDetachedEntries.Add(float64(n))
	}
}

func RecordCrashLog(class, method string) {
	CrashLogsTotal.WithLabelValues(class, method).Inc()
}

func RecordUnauditedFailure(class, method, reason string) {
	UnauditedFailuresTotal.WithLabelValues(class, method, reason).Inc()
}

func RecordCacheLookup(family, result string) {
	CacheLookupsTotal.WithLabelValues(family, result).Inc()
}
