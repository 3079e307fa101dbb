package automation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Batch runs partitioned by outcome: completed, skipped, aborted
	batchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_automation_runs_total",
			Help: "Automation batch runs by outcome",
		},
		[]string{"outcome"},
	)

	leadsProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_automation_leads_processed_total",
			Help: "Leads successfully re-evaluated by the automation batch",
		},
	)

	itemFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_automation_item_failures_total",
			Help: "Leads whose re-evaluation failed inside a batch",
		},
	)

	staleItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_automation_stale_items_total",
			Help: "Leads skipped because their status changed while the batch ran",
		},
	)

	batchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadflow_automation_run_duration_seconds",
			Help:    "Wall time of completed automation batch runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	statusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_automation_status_transitions_total",
			Help: "Status changes made by automated progression rules",
		},
		[]string{"from", "to"},
	)

	temperatureTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_temperature_transitions_total",
			Help: "Temperature changes observed during batch re-evaluation",
		},
		[]string{"from", "to"},
	)
)
