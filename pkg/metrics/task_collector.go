package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ayurankh/claims-processor/internal/store"
)

type taskStatsCollector struct {
	store        store.Store
	tasksByState *prometheus.Desc
	totalTasks   *prometheus.Desc
}

// NewTaskStatsCollector exposes live ledger counts; it scans the task table
// on every scrape.
func NewTaskStatsCollector(s store.Store) prometheus.Collector {
	fqName := func(name string) string {
		return fmt.Sprintf("%s_ledger_%s", claimsProcessor, name)
	}

	return &taskStatsCollector{
		store: s,
		tasksByState: prometheus.NewDesc(
			fqName("tasks"),
			"Number of tasks in the ledger by current state.",
			[]string{taskStateLabel},
			prometheus.Labels{},
		),
		totalTasks: prometheus.NewDesc(
			fqName("tasks_total"),
			"Total number of tasks in the ledger.",
			nil,
			prometheus.Labels{},
		),
	}
}

func (c *taskStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tasksByState
	ch <- c.totalTasks
}

func (c *taskStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.store.Task().Stats()

	total := 0
	for state, count := range stats {
		total += count
		ch <- prometheus.MustNewConstMetric(c.tasksByState, prometheus.GaugeValue, float64(count), string(state))
	}
	ch <- prometheus.MustNewConstMetric(c.totalTasks, prometheus.GaugeValue, float64(total))
}
