package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksSubmitted tracks submitted tasks by priority.
	TasksSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_scheduler_tasks_submitted_total",
			Help: "Total number of tasks submitted by priority",
		},
		[]string{"priority"},
	)

	// TasksCompleted tracks finished tasks by outcome.
	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_scheduler_tasks_completed_total",
			Help: "Total number of tasks completed by outcome",
		},
		[]string{"outcome"}, // "success", "error", "timeout", "cancelled"
	)

	// TasksActive tracks the number of currently running tasks.
	TasksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "client_scheduler_tasks_active",
			Help: "Number of tasks currently running",
		},
	)

	// TasksQueued tracks the number of tasks waiting for a slot.
	TasksQueued = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "client_scheduler_tasks_queued",
			Help: "Number of tasks waiting for a concurrency slot",
		},
	)

	// TaskDuration tracks task execution time by priority.
	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_scheduler_task_duration_seconds",
			Help:    "Task execution duration in seconds by priority",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"priority"},
	)
)
