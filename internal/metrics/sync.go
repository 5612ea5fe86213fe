package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cveledger",
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Count of upstream sync runs by outcome.",
	}, []string{"status"})

	syncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cveledger",
		Subsystem: "sync",
		Name:      "run_duration_seconds",
		Help:      "Duration of an upstream sync run.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	syncFetched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cveledger",
		Subsystem: "sync",
		Name:      "records_fetched_total",
		Help:      "Records fetched from upstream across all runs.",
	})

	syncStaged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cveledger",
		Subsystem: "sync",
		Name:      "records_staged_total",
		Help:      "Fetched records that were new and entered the pending queue.",
	})
)

// Sync tracks metrics for the upstream sync service.
type Sync struct{}

// NewSync constructs a Sync metrics sink.
func NewSync() *Sync {
	return &Sync{}
}

// ObserveRun records one sync run.
func (Sync) ObserveRun(err error, fetched, staged int, started time.Time) {
	status := outcome(err)
	syncTotal.WithLabelValues(status).Inc()
	syncDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	syncFetched.Add(float64(fetched))
	syncStaged.Add(float64(staged))
}
