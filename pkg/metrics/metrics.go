package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	claimsProcessor = "claims_processor"

	// Submission metrics
	submissionsTotal = "submissions_total"

	// Pipeline metrics
	tasksTerminalTotal      = "tasks_terminal_total"
	findingsTotal           = "validation_findings_total"
	pipelineDurationSeconds = "pipeline_duration_seconds"

	// Labels
	submissionOutcomeLabel = "outcome"
	taskStateLabel         = "state"
	findingSeverityLabel   = "severity"
)

var submissionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: claimsProcessor,
		Name:      submissionsTotal,
		Help:      "number of claim submissions partitioned by admission outcome",
	},
	[]string{submissionOutcomeLabel},
)

var tasksTerminalTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: claimsProcessor,
		Name:      tasksTerminalTotal,
		Help:      "number of tasks reaching each terminal state",
	},
	[]string{taskStateLabel},
)

var findingsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: claimsProcessor,
		Name:      findingsTotal,
		Help:      "number of validation findings partitioned by severity",
	},
	[]string{findingSeverityLabel},
)

var pipelineDurationMetric = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Subsystem: claimsProcessor,
		Name:      pipelineDurationSeconds,
		Help:      "time spent processing a task from pickup to terminal state",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	},
)

func IncreaseSubmissionsTotalMetric(outcome string) {
	submissionsTotalMetric.With(prometheus.Labels{submissionOutcomeLabel: outcome}).Inc()
}

func IncreaseTasksTerminalMetric(state string) {
	tasksTerminalTotalMetric.With(prometheus.Labels{taskStateLabel: state}).Inc()
}

func IncreaseFindingsMetric(severity string) {
	findingsTotalMetric.With(prometheus.Labels{findingSeverityLabel: severity}).Inc()
}

func ObservePipelineDuration(seconds float64) {
	pipelineDurationMetric.Observe(seconds)
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(submissionsTotalMetric)
	prometheus.MustRegister(tasksTerminalTotalMetric)
	prometheus.MustRegister(findingsTotalMetric)
	prometheus.MustRegister(pipelineDurationMetric)
}
