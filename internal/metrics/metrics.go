// Package metrics defines the Prometheus collectors of the service.
//
// Collectors are package-level and registered once with Register, so
// components record without carrying a registry around.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mangashelf"

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	SourceRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_requests_total",
		Help:      "Catalogue source requests by source, endpoint and outcome.",
	}, []string{"source", "endpoint", "outcome"})

	SourceCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_cache_hits_total",
		Help:      "Catalogue listing requests answered from cache.",
	}, []string{"source", "endpoint"})

	Migrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "migrations_total",
		Help:      "Manga migrations by mode and outcome.",
	}, []string{"mode", "outcome"})

	MigrationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "migration_duration_seconds",
		Help:      "Time spent migrating one manga.",
		Buckets:   prometheus.DefBuckets,
	})

	LibraryUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "library_update_manga_total",
		Help:      "Library entries refreshed by outcome.",
	}, []string{"outcome"})

	NewChapters = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "library_update_new_chapters_total",
		Help:      "Chapters discovered by library updates.",
	})

	Reconciliations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "network_to_local_total",
		Help:      "Source results reconciled with the local library, by result.",
	}, []string{"result"})
)

var registerOnce sync.Once

// Register adds every collector to reg. Later calls are no-ops.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			HTTPRequests,
			HTTPDuration,
			SourceRequests,
			SourceCacheHits,
			Migrations,
			MigrationDuration,
			LibraryUpdates,
			NewChapters,
			Reconciliations,
		)
	})
}

// SourceLabel renders a source id as a label value.
func SourceLabel(sourceID int64) string {
	return strconv.FormatInt(sourceID, 10)
}

// Outcome maps an error to the "ok"/"error" label pair.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
