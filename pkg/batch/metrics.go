package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job outcome labels.
const (
	outcomeSuccess          = "success"
	outcomeLookupFailed     = "lookup_failed"
	outcomeProcessingFailed = "processing_failed"
)

// Batch result labels.
const (
	resultCreated      = "created"
	resultPrecondition = "precondition_failed"
	resultCancelled    = "cancelled"
	resultStoreFailed  = "store_failed"
)

//nolint:gochecknoglobals // prometheus collectors register once per process
var (
	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoapply_jobs_processed_total",
			Help: "Total number of jobs processed, by outcome",
		},
		[]string{"outcome"},
	)

	BatchesRun = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoapply_batches_total",
			Help: "Total number of batch runs, by result",
		},
		[]string{"result"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autoapply_job_duration_seconds",
			Help:    "Duration of one job pipeline in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"outcome"},
	)

	JobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "autoapply_jobs_active",
			Help: "Number of job pipelines currently running",
		},
	)
)
