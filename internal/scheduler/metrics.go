package scheduler

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voxelstream"

type queueMetrics struct {
	submitted *prometheus.CounterVec
	completed *prometheus.CounterVec
	depth     prometheus.Gauge
}

func newQueueMetrics(reg prometheus.Registerer) *queueMetrics {
	m := &queueMetrics{
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_submitted_total",
			Help:      "Tasks submitted to the work queue.",
		}, []string{"kind"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_completed_total",
			Help:      "Tasks published to the completion queue.",
		}, []string{"kind"}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "task_queue_depth",
			Help:      "Tasks waiting for a worker.",
		}),
	}
	m.submitted = Register(reg, m.submitted)
	m.completed = Register(reg, m.completed)
	m.depth = Register(reg, m.depth)
	return m
}

func newTaskDuration(reg prometheus.Registerer) *prometheus.HistogramVec {
	return Register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Time spent executing a task on a worker.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"kind"}))
}

// Register adds c to reg and returns the collector that is actually
// registered. When an identical collector already exists it is reused, so
// several queues can share one registry. A nil reg leaves c unregistered.
func Register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
