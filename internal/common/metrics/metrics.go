package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	CreditDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_decisions_total",
			Help: "Creditworthiness decisions by outcome and policy",
		},
		[]string{"decision", "policy", "hard_reject"},
	)

	CreditScores = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "credit_final_score",
			Help:    "Distribution of final creditworthiness scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"policy"},
	)

	ApplicantCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "applicant_cache_requests_total",
			Help: "Applicant list cache lookups by result",
		},
		[]string{"result"},
	)
)

// TrackJob marks a job active and returns a func that records its outcome.
// Pass "" as error code for success.
func TrackJob(taskType string) func(errorCode string) {
	start := time.Now()
	WorkerJobsActive.WithLabelValues(taskType).Inc()

	return func(errorCode string) {
		WorkerJobsActive.WithLabelValues(taskType).Dec()
		WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
		if errorCode == "" {
			WorkerJobsCompleted.WithLabelValues(taskType).Inc()
			return
		}
		WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
	}
}

func RecordDecision(decision, policy string, hardReject bool, score float64) {
	hr := "false"
	if hardReject {
		hr = "true"
	}
	CreditDecisions.WithLabelValues(decision, policy, hr).Inc()
	CreditScores.WithLabelValues(policy).Observe(score)
}
