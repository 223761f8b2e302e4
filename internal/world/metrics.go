package world

import (
	"voxelstream/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus"
)

type worldMetrics struct {
	chunksLoaded prometheus.Gauge
	jobsPending  *prometheus.GaugeVec
	players      prometheus.Gauge
}

func newWorldMetrics(reg prometheus.Registerer) *worldMetrics {
	return &worldMetrics{
		chunksLoaded: scheduler.Register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelstream",
			Name:      "chunks_loaded",
			Help:      "Chunks resident in the chunk store.",
		})),
		jobsPending: scheduler.Register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "voxelstream",
			Name:      "chunk_jobs_pending",
			Help:      "Bulk load and unload jobs waiting on completions.",
		}, []string{"kind"})),
		players: scheduler.Register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelstream",
			Name:      "players_connected",
			Help:      "Connected players.",
		})),
	}
}
