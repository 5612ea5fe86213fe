// Package metrics defines the prometheus instruments of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cveledger",
		Subsystem: "ledger",
		Name:      "submit_total",
		Help:      "Count of record submissions by outcome.",
	}, []string{"status"})

	mineTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cveledger",
		Subsystem: "ledger",
		Name:      "mine_total",
		Help:      "Count of mine operations by outcome.",
	}, []string{"status"})

	mineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cveledger",
		Subsystem: "ledger",
		Name:      "mine_duration_seconds",
		Help:      "Duration of the drain-solve-append sequence.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 12),
	}, []string{"status"})

	mineBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cveledger",
		Subsystem: "ledger",
		Name:      "mine_batch_size",
		Help:      "Number of records committed per mined block.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
)

// Ledger tracks metrics for the ledger service.
type Ledger struct{}

// NewLedger constructs a Ledger metrics sink.
func NewLedger() *Ledger {
	return &Ledger{}
}

// ObserveSubmit records a submission outcome.
func (Ledger) ObserveSubmit(err error) {
	submitTotal.WithLabelValues(outcome(err)).Inc()
}

// ObserveMine records a mine outcome, its duration and the batch size.
// NoOp mines (records == 0, err == nil) are counted under their own status.
func (Ledger) ObserveMine(err error, records int, started time.Time) {
	status := outcome(err)
	if err == nil && records == 0 {
		status = "noop"
	}
	mineTotal.WithLabelValues(status).Inc()
	mineDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	if err == nil && records > 0 {
		mineBatchSize.Observe(float64(records))
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
