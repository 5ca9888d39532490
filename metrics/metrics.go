// Package metrics exposes prometheus collectors for the notification pipeline
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector bundles the application's prometheus metrics.
type Collector struct {
	AlertsCreated *prometheus.CounterVec
	AlertsSent    *prometheus.CounterVec
	EmailsSent    *prometheus.CounterVec
	EmailsFailed  *prometheus.CounterVec
	SweepDuration *prometheus.HistogramVec
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
}

var (
	globalCollector *Collector
	once            sync.Once
)

func getCollector() *Collector {
	once.Do(func() {
		globalCollector = &Collector{
			AlertsCreated: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "climascope_alerts_created_total",
					Help: "The total number of weather alerts created",
				},
				[]string{"alert_type"},
			),
			AlertsSent: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "climascope_alerts_sent_total",
					Help: "The total number of weather alerts delivered",
				},
				[]string{"alert_type"},
			),
			EmailsSent: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "climascope_emails_sent_total",
					Help: "The total number of emails delivered",
				},
				[]string{"email_type"},
			),
			EmailsFailed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "climascope_emails_failed_total",
					Help: "The total number of email delivery failures",
				},
				[]string{"email_type"},
			),
			SweepDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "climascope_job_duration_seconds",
					Help:    "Scheduled job duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"job"},
			),
			CacheHits: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "climascope_cache_hits_total",
					Help: "The total number of weather cache hits",
				},
				[]string{"cache_type"},
			),
			CacheMisses: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "climascope_cache_misses_total",
					Help: "The total number of weather cache misses",
				},
				[]string{"cache_type"},
			),
		}
	})
	return globalCollector
}

// RecordAlertCreated increments the created counter for an alert type.
func RecordAlertCreated(alertType string) {
	getCollector().AlertsCreated.WithLabelValues(alertType).Inc()
}

// RecordAlertSent increments the sent counter for an alert type.
func RecordAlertSent(alertType string) {
	getCollector().AlertsSent.WithLabelValues(alertType).Inc()
}

// RecordEmailSent increments the delivered counter for an email type.
func RecordEmailSent(emailType string) {
	getCollector().EmailsSent.WithLabelValues(emailType).Inc()
}

// RecordEmailFailed increments the failure counter for an email type.
func RecordEmailFailed(emailType string) {
	getCollector().EmailsFailed.WithLabelValues(emailType).Inc()
}

// ObserveJobDuration records how long a scheduled job took.
func ObserveJobDuration(job string, seconds float64) {
	getCollector().SweepDuration.WithLabelValues(job).Observe(seconds)
}

// TimeJob starts a timer for a job and returns a func recording the elapsed
// duration. Intended for use with defer.
func TimeJob(job string) func() {
	start := time.Now()
	return func() {
		ObserveJobDuration(job, time.Since(start).Seconds())
	}
}

// RecordCacheHit increments the hit counter for a cache backend.
func RecordCacheHit(cacheType string) {
	getCollector().CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss increments the miss counter for a cache backend.
func RecordCacheMiss(cacheType string) {
	getCollector().CacheMisses.WithLabelValues(cacheType).Inc()
}
