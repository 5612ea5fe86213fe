package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	archiveOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cveledger",
		Subsystem: "archive",
		Name:      "ops_total",
		Help:      "Count of archive repository operations by outcome.",
	}, []string{"operation", "status"})

	archiveOpsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cveledger",
		Subsystem: "archive",
		Name:      "op_duration_seconds",
		Help:      "Duration of archive repository operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "status"})
)

// Archive tracks metrics for the ClickHouse archive repository.
type Archive struct{}

// NewArchive constructs an Archive metrics sink.
func NewArchive() *Archive {
	return &Archive{}
}

// Observe records one repository operation.
func (Archive) Observe(operation string, err error, started time.Time) {
	status := outcome(err)
	archiveOpsTotal.WithLabelValues(operation, status).Inc()
	archiveOpsDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}
