package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_pipeline_runs_total",
		Help: "Total number of pipeline runs, labelled by outcome.",
	}, []string{"outcome"})

	PipelineRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "weather_pipeline_run_duration_seconds",
		Help:    "Wall-clock duration of a pipeline run in seconds.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	FetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_fetch_attempts_total",
		Help: "Total number of provider HTTP attempts, labelled by result.",
	}, []string{"result"})

	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weather_fetch_failures_total",
		Help: "Total number of cities for which every fetch attempt failed.",
	})

	RecordsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weather_records_inserted_total",
		Help: "Total number of records newly stored.",
	})

	RecordsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weather_records_duplicate_total",
		Help: "Total number of records skipped because (city, observed_at) already existed.",
	})

	StoreAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_store_attempts_total",
		Help: "Total number of store insert attempts, labelled by result.",
	}, []string{"result"})
)
