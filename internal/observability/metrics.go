package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activitiesIngestedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "time_tracking",
		Subsystem: "ingest",
		Name:      "activities_ingested_total",
		Help:      "Number of activity events persisted via single or bulk ingestion.",
	})
	activitiesDiscardedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "time_tracking",
		Subsystem: "ingest",
		Name:      "empty_activities_discarded_total",
		Help:      "Number of empty batch entries dropped during bulk save.",
	})
	bulkBatchSizeHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "time_tracking",
		Subsystem: "ingest",
		Name:      "bulk_batch_size",
		Help:      "Distribution of activity counts per accepted bulk batch.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
	timesheetRecalcGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "time_tracking",
		Subsystem: "timesheet",
		Name:      "last_recalculated_timestamp_seconds",
		Help:      "Unix timestamp of the most recent timesheet recalculation.",
	})
)

func init() {
	prometheus.MustRegister(
		activitiesIngestedCounter,
		activitiesDiscardedCounter,
		bulkBatchSizeHistogram,
		timesheetRecalcGauge,
	)
}

// RecordActivitiesIngested counts persisted activity events.
func RecordActivitiesIngested(n int) {
	if n <= 0 {
		return
	}
	activitiesIngestedCounter.Add(float64(n))
}

// RecordEmptyActivitiesDiscarded counts entries dropped by bulk-save filtering.
func RecordEmptyActivitiesDiscarded(n int) {
	if n <= 0 {
		return
	}
	activitiesDiscardedCounter.Add(float64(n))
}

// RecordBulkBatchSize observes the size of an accepted bulk batch.
func RecordBulkBatchSize(n int) {
	if n <= 0 {
		return
	}
	bulkBatchSizeHistogram.Observe(float64(n))
}

// RecordTimesheetRecalculated updates the recalculation watermark gauge.
func RecordTimesheetRecalculated(ts time.Time) {
	if ts.IsZero() {
		return
	}
	timesheetRecalcGauge.Set(float64(ts.Unix()))
}
