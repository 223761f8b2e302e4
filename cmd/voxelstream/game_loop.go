package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voxelstream/internal/config"
	"voxelstream/internal/physics"
	"voxelstream/internal/profiling"
	"voxelstream/internal/renderzone"
	"voxelstream/internal/scheduler"
	"voxelstream/internal/voxel"
	"voxelstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// editEvery is how many ticks pass between block edits.
const editEvery = 30

// GameLoop walks one player through the world and pulls render zone buffers
// the way a renderer would.
type GameLoop struct {
	cfg     config.Config
	log     *zap.Logger
	world   *world.World
	player  world.PlayerID
	pos     voxel.Position
	zones   *renderzone.Set
	limiter *rate.Limiter

	ticks    int
	uploads  int
	vertices int
	edits    int
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	log.Info("starting",
		zap.Int("workers", cfg.Workers),
		zap.Any("render_distance", cfg.RenderDistance),
		zap.String("generator", cfg.WorldGen.Generator),
		zap.Int64("seed", cfg.WorldGen.Seed),
	)

	reg := newRegistry()
	if cfg.MetricsAddr != "" {
		serveMetrics(ctx, cfg.MetricsAddr, reg, log)
	}

	gen, ground := newGenerator(cfg.WorldGen)
	queue := scheduler.NewQueue[world.Task](reg)
	w := world.New(queue, gen, world.Options{
		Logger:         log.Named("world"),
		RenderDistance: renderDistance(cfg.RenderDistance),
		Registerer:     reg,
	})

	pool := scheduler.NewPool(queue, w, scheduler.PoolOptions{
		Workers:    cfg.Workers,
		IdleSleep:  cfg.IdleSleep,
		Logger:     log.Named("scheduler"),
		Registerer: reg,
	})
	pool.Start(ctx)
	defer pool.Close()

	spawn := voxel.Position{0.5, float32(ground) + 2, 0.5}
	gl := &GameLoop{
		cfg:     cfg,
		log:     log,
		world:   w,
		player:  w.ConnectAt(spawn),
		pos:     spawn,
		zones:   renderzone.New(),
		limiter: rate.NewLimiter(rate.Limit(cfg.TickRate), 1),
	}
	err := gl.Run(ctx)

	if derr := w.Disconnect(gl.player); derr != nil {
		err = errors.Join(err, derr)
	}
	load, unload := w.PendingJobs()
	log.Info("finished",
		zap.Int("ticks", gl.ticks),
		zap.Int("zone_uploads", gl.uploads),
		zap.Int("vertices", gl.vertices),
		zap.Int("edits", gl.edits),
		zap.Int("chunks_loaded", w.LoadedChunkCount()),
		zap.Int("load_jobs", load),
		zap.Int("unload_jobs", unload),
	)
	return err
}

// Run ticks until the configured tick count is reached or ctx is done.
func (gl *GameLoop) Run(ctx context.Context) error {
	for gl.cfg.Ticks == 0 || gl.ticks < gl.cfg.Ticks {
		if err := gl.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := gl.tick(); err != nil {
			return err
		}
	}
	return nil
}

func (gl *GameLoop) tick() error {
	profiling.ResetFrame()
	start := time.Now()
	gl.ticks++

	if err := gl.move(); err != nil {
		return err
	}
	if gl.ticks%editEvery == 0 {
		gl.edit()
	}

	gl.world.PollCompletedTasks(gl.zones)
	gl.upload()

	if d := time.Since(start); d > gl.cfg.TickInterval() {
		gl.log.Debug("slow tick", zap.Duration("took", d), zap.String("top", profiling.TopN(5)))
	}
	return nil
}

func (gl *GameLoop) move() error {
	walk := gl.cfg.Walk
	next := gl.pos.Add(mgl32.Vec3{walk.X, walk.Y, walk.Z})
	moved, err := gl.world.SetPlayerPosition(gl.player, next)
	if err != nil {
		return fmt.Errorf("tick %d: %w", gl.ticks, err)
	}
	gl.pos = next
	if moved {
		gl.log.Debug("player changed chunk", zap.Stringer("chunk", voxel.ChunkPosOf(next)))
	}
	return nil
}

// edit alternates between digging the block under the player and putting it
// back.
func (gl *GameLoop) edit() {
	defer profiling.Track("game.Edit")()

	down := mgl32.Vec3{0, -1, 0}
	res := gl.world.Raycast(gl.pos, down, physics.MaxReachDistance)
	if !res.Hit {
		return
	}

	target, block := res.HitPosition, voxel.Air
	if (gl.ticks/editEvery)%2 == 0 {
		target, block = res.AdjacentPosition, voxel.TestBlock
	}
	if gl.world.SetBlock(target, block) {
		gl.world.MeshUpdateAdjacent(target, gl.zones)
		gl.edits++
	}
}

// upload pulls every dirty zone's buffers and clears the set.
func (gl *GameLoop) upload() {
	defer profiling.Track("game.Upload")()

	for _, zone := range gl.zones.Zones() {
		verts, _ := gl.world.RenderZoneBuffers(zone)
		gl.uploads++
		gl.vertices += len(verts)
	}
	gl.zones.Clear()
}
