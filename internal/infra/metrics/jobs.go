package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(jobsCreatedTotal, jobsFinishedTotal, jobsEvictedTotal, jobTableSize, jobCompletionLatencyMs)
}

var (
	jobsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_jobs_created_total",
			Help: "Total number of jobs admitted to the bridge.",
		},
	)

	jobsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_jobs_finished_total",
			Help: "Total number of jobs that reached a terminal status.",
		},
		[]string{"status"}, // 'completed', 'failed', 'timeout'
	)

	jobsEvictedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_jobs_evicted_total",
			Help: "Jobs removed by emergency capacity eviction, any status.",
		},
	)

	jobTableSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_job_table_size",
			Help: "Current number of jobs held in the in-memory table.",
		},
	)

	jobCompletionLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bridge_job_completion_latency_ms",
			Help:    "Time from job creation to agent reply in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 15000, 60000},
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncJobCreated() { jobsCreatedTotal.Inc() }

func IncJobFinished(status string) {
	jobsFinishedTotal.WithLabelValues(norm(status)).Inc()
}

func AddJobsEvicted(n int) {
	if n > 0 {
		jobsEvictedTotal.Add(float64(n))
	}
}

func SetJobTableSize(n int) { jobTableSize.Set(float64(n)) }

func ObserveCompletionLatency(ms int64) {
	jobCompletionLatencyMs.Observe(float64(ms))
}
