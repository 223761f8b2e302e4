package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"voxelstream/internal/config"
	"voxelstream/internal/voxel"
	"voxelstream/internal/world"
	"voxelstream/internal/worldgen"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// newGenerator builds the configured terrain generator and the height of its
// surface at the origin column.
func newGenerator(cfg config.WorldGen) (world.Generator, int) {
	if cfg.Generator == config.GeneratorFlat {
		return world.FlatGenerator{Height: cfg.FlatHeight, Fill: voxel.Dirt, Top: voxel.Grass}, cfg.FlatHeight - 1
	}
	g := worldgen.New(cfg.Seed)
	return g, g.Column(0, 0).Height
}

func renderDistance(d config.Distance) voxel.ChunkPos {
	return voxel.ChunkPos{X: d.X, Y: d.Y, Z: d.Z}
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// serveMetrics exposes reg on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
