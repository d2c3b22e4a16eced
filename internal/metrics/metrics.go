// Package metrics defines Prometheus metrics for zara-stock-tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zst"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 when the last liveness probe succeeded, 0 otherwise.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 when the last readiness probe succeeded, 0 otherwise.",
	})
)

// Poll cycle metrics.
var (
	PollCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_cycles_total",
		Help:      "Total number of completed poll cycles.",
	}, []string{"trigger"}) // timer | manual

	PollCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "poll_cycle_duration_seconds",
		Help:      "Duration of full poll cycles in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	PollCycleInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "poll_cycle_in_flight",
		Help:      "1 while a poll cycle is running, 0 otherwise.",
	})

	CheckNowCoalescedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "check_now_coalesced_total",
		Help:      "Manual check requests absorbed by an already-running cycle.",
	})

	ItemChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "item_checks_total",
		Help:      "Per-item poll outcomes.",
	}, []string{"outcome"})

	ItemsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "items_tracked",
		Help:      "Number of enabled tracked items seen by the last cycle.",
	})

	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Classified stock transitions by kind.",
	}, []string{"kind"})
)

// Provider metrics.
var (
	ProviderRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_requests_total",
		Help:      "Upstream provider fetches by result.",
	}, []string{"provider", "result"})

	ProviderRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_request_duration_seconds",
		Help:      "Duration of upstream provider fetches in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})

	ProviderDailyUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "provider_daily_usage",
		Help:      "Provider calls made within the rolling 24-hour window.",
	})

	ProviderDailyLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_daily_limit_hits_total",
		Help:      "Times the self-imposed daily provider budget was exhausted.",
	})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Provider fetches served from the response cache.",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Provider fetches that went to the upstream API.",
	})
)

// Notification metrics.
var (
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification dispatch attempts by notifier and status.",
	}, []string{"notifier", "status"})

	NotificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of notification sends in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	NotificationsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dropped_total",
		Help:      "Alerts dropped because the dispatch queue was full.",
	})
)

// Backup metrics.
var (
	BackupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backups_total",
		Help:      "Backup runs by status.",
	}, []string{"status"})

	BackupLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backup_last_success_timestamp_seconds",
		Help:      "Unix time of the last successful backup.",
	})

	BackupFilesKept = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backup_files_kept",
		Help:      "Backup files currently retained on disk.",
	})
)
