package world

import (
	"errors"
	"sync"

	"voxelstream/internal/meshing"
	"voxelstream/internal/physics"
	"voxelstream/internal/profiling"
	"voxelstream/internal/renderzone"
	"voxelstream/internal/scheduler"
	"voxelstream/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedTransition is returned when a player moves more than one
	// chunk along an axis, or across chunk borders on several axes, in one
	// update.
	ErrUnsupportedTransition = errors.New("world: unsupported player transition")
	ErrUnknownPlayer         = errors.New("world: unknown player")
)

// WorldMaxSize is the extent of the world in chunks.
var WorldMaxSize = voxel.ChunkPos{X: 512, Y: 64, Z: 512}

// DefaultRenderDistance is the per-axis chunk radius loaded around a player.
var DefaultRenderDistance = voxel.ChunkPos{X: 10, Y: 5, Z: 10}

// Options configures a World.
type Options struct {
	Logger *zap.Logger
	// RenderDistance defaults to DefaultRenderDistance.
	RenderDistance voxel.ChunkPos
	// Registerer may be nil to skip metrics registration.
	Registerer prometheus.Registerer
}

// World owns the chunk store and turns player movement and block edits into
// scheduler tasks. Workers execute those tasks through Execute; the
// simulation goroutine drains their completions with PollCompletedTasks.
type World struct {
	log            *zap.Logger
	queue          *scheduler.Queue[Task]
	gen            Generator
	store          *ChunkStore
	jobs           jobList
	renderDistance voxel.ChunkPos
	metrics        *worldMetrics

	playersMu sync.RWMutex
	players   map[PlayerID]*Player
}

// New creates an empty world submitting its work to queue.
func New(queue *scheduler.Queue[Task], gen Generator, opts Options) *World {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RenderDistance == (voxel.ChunkPos{}) {
		opts.RenderDistance = DefaultRenderDistance
	}
	return &World{
		log:            opts.Logger,
		queue:          queue,
		gen:            gen,
		store:          NewChunkStore(),
		renderDistance: opts.RenderDistance,
		metrics:        newWorldMetrics(opts.Registerer),
		players:        make(map[PlayerID]*Player),
	}
}

// Chunk returns the resident chunk at pos. It satisfies ChunkLookup.
func (w *World) Chunk(pos voxel.ChunkPos) (*Chunk, bool) {
	if w == nil {
		return nil, false
	}
	lc, ok := w.store.Get(pos)
	if !ok {
		return nil, false
	}
	return lc.Chunk, true
}

// Execute performs a task's side effects. It runs on worker goroutines. Units
// of work whose chunk is no longer resident are skipped.
func (w *World) Execute(t Task) {
	switch t := t.(type) {
	case GenerateChunk:
		w.store.Acquire(t.Pos, func() *LoadedChunk {
			return w.gen.GenerateChunk(w, t.Pos)
		})
	case MeshChunk:
		if lc, ok := w.store.Get(t.Pos); ok {
			lc.MeshAll()
		}
	case MeshChunkFace:
		index := t.Face.Boundary()
		t.Box.Each(func(pos voxel.ChunkPos) {
			if lc, ok := w.store.Get(pos); ok {
				lc.MeshSlice(t.Face, index)
			}
		})
	case UnloadChunks:
		t.Box.Each(func(pos voxel.ChunkPos) {
			w.store.Release(pos)
		})
	default:
		panic("world: unknown task type")
	}
}

// LoadChunks registers a load job over box and submits one generate task per
// chunk. Chunks already resident only gain a load reference. followUp, if
// not nil, is submitted once every chunk in box has been generated.
func (w *World) LoadChunks(box voxel.ChunkBox, followUp *MeshChunkFace) {
	n := box.Volume()
	if n == 0 {
		if followUp != nil {
			w.queue.Submit(*followUp)
		}
		return
	}

	id := w.jobs.addLoad(&chunkLoadJob{box: box, remaining: n, followUp: followUp})
	w.log.Debug("load job registered", zap.Uint64("job", id), zap.Stringer("box", box), zap.Int("chunks", n))

	box.Each(func(pos voxel.ChunkPos) {
		w.queue.Submit(GenerateChunk{Pos: pos, Job: id})
	})
}

// UnloadChunks registers an unload job over box and submits a single unload
// task for it. followUp, if not nil, is submitted once that task completes.
func (w *World) UnloadChunks(box voxel.ChunkBox, followUp *MeshChunkFace) {
	w.jobs.addUnload(&chunkLoadJob{box: box, remaining: 1, followUp: followUp})
	w.log.Debug("unload job registered", zap.Stringer("box", box))
	w.queue.Submit(UnloadChunks{Box: box})
}

// ChunkMeshUpdate submits a full mesh rebuild for every chunk in box.
func (w *World) ChunkMeshUpdate(box voxel.ChunkBox) {
	box.Each(func(pos voxel.ChunkPos) {
		w.queue.Submit(MeshChunk{Pos: pos})
	})
}

// PollCompletedTasks drains every completed task without blocking, advancing
// job accounting and marking changed render zones in zones. It returns the
// number of completions handled and must only be called from the simulation
// goroutine.
func (w *World) PollCompletedTasks(zones *renderzone.Set) int {
	defer profiling.Track("world.PollCompletedTasks")()

	n := 0
	for {
		t, ok := w.queue.PollCompleted()
		if !ok {
			break
		}
		n++

		switch t := t.(type) {
		case MeshChunk:
			zones.MarkChunk(t.Pos)
		case MeshChunkFace:
			zones.MarkBox(t.Box)
		case GenerateChunk:
			job, done := w.jobs.chunkGenerated(t.Job)
			if !done {
				continue
			}
			w.log.Debug("load job finished", zap.Uint64("job", job.id), zap.Stringer("box", job.box))
			w.ChunkMeshUpdate(job.box)
			if job.followUp != nil {
				w.queue.Submit(*job.followUp)
			}
		case UnloadChunks:
			// removed chunks have no mesh to build, but their zones changed
			zones.MarkBox(t.Box)
			job, ok := w.jobs.unloaded(t.Box)
			if !ok {
				continue
			}
			w.log.Debug("unload job finished", zap.Stringer("box", job.box))
			if job.followUp != nil {
				w.queue.Submit(*job.followUp)
			}
		}
	}

	w.updateGauges()
	return n
}

func (w *World) updateGauges() {
	load, unload := w.jobs.pending()
	w.metrics.chunksLoaded.Set(float64(w.store.Len()))
	w.metrics.jobsPending.WithLabelValues("load").Set(float64(load))
	w.metrics.jobsPending.WithLabelValues("unload").Set(float64(unload))
}

// Block returns the block at a global position. ok is false when its chunk
// is not loaded.
func (w *World) Block(pos voxel.BlockPos) (voxel.Block, bool) {
	cp, local := pos.Split()
	lc, ok := w.store.Get(cp)
	if !ok {
		return voxel.Air, false
	}
	return lc.Block(local), true
}

// SetBlock stores a block at a global position, reporting whether its chunk
// was loaded. Meshes are not rebuilt; follow with MeshUpdateAdjacent.
func (w *World) SetBlock(pos voxel.BlockPos, b voxel.Block) bool {
	cp, local := pos.Split()
	lc, ok := w.store.Get(cp)
	if !ok {
		return false
	}
	lc.SetBlock(local, b)
	return true
}

// Raycast casts a ray through loaded blocks. The cast misses on reaching an
// unloaded chunk rather than treating it as air.
func (w *World) Raycast(origin voxel.Position, direction mgl32.Vec3, maxLength float32) physics.RaycastResult {
	return physics.Raycast(origin, direction, maxLength, func(pos voxel.BlockPos) (bool, bool) {
		b, ok := w.Block(pos)
		return !b.IsAir(), ok
	})
}

// BlockRaycast returns the first non-air block hit within maxLength.
func (w *World) BlockRaycast(origin voxel.Position, direction mgl32.Vec3, maxLength float32) (voxel.BlockPos, bool) {
	res := w.Raycast(origin, direction, maxLength)
	return res.HitPosition, res.Hit
}

type sliceSet map[voxel.Face]map[int]struct{}

// MeshUpdateAdjacent rebuilds, on the calling goroutine, every face-slice
// whose quads can depend on the block at pos: the block's own slice on each
// face, and each face's slice through the block behind it along the normal.
// When the block sits on a chunk edge the lateral neighbours' slices are
// rebuilt too, since their occlusion reads across the edge. Touched chunks
// have their render zones marked in zones.
func (w *World) MeshUpdateAdjacent(pos voxel.BlockPos, zones *renderzone.Set) {
	defer profiling.Track("world.MeshUpdateAdjacent")()

	touched := make(map[voxel.ChunkPos]sliceSet)
	add := func(b voxel.BlockPos, f voxel.Face) {
		cp, local := b.Split()
		s, ok := touched[cp]
		if !ok {
			s = make(sliceSet)
			touched[cp] = s
		}
		if s[f] == nil {
			s[f] = make(map[int]struct{})
		}
		s[f][local.FaceComponent(f)] = struct{}{}
	}

	for _, f := range voxel.Faces {
		add(pos, f)

		behind := pos.Sub(f.Offset())
		u, v := inPlaneAxes(f.Axis())
		for du := -1; du <= 1; du++ {
			for dv := -1; dv <= 1; dv++ {
				n := behind.With(u, behind.Get(u)+du).With(v, behind.Get(v)+dv)
				if (du != 0 || dv != 0) && n.Chunk() == behind.Chunk() {
					continue
				}
				add(n, f)
			}
		}
	}

	for cp, faces := range touched {
		lc, ok := w.store.Get(cp)
		if !ok {
			continue
		}
		for f, set := range faces {
			indices := make([]int, 0, len(set))
			for i := range set {
				indices = append(indices, i)
			}
			lc.meshSlices(f, indices...)
		}
		zones.MarkChunk(cp)
	}
}

func inPlaneAxes(a voxel.Axis) (voxel.Axis, voxel.Axis) {
	switch a {
	case voxel.AxisX:
		return voxel.AxisY, voxel.AxisZ
	case voxel.AxisY:
		return voxel.AxisX, voxel.AxisZ
	default:
		return voxel.AxisX, voxel.AxisY
	}
}

// RenderZoneMesh concatenates the cached quads of every resident chunk in the
// zone. Chunks mid-rebuild are skipped; the caller retries next frame.
func (w *World) RenderZoneMesh(zone voxel.ChunkPos) []meshing.Quad {
	defer profiling.Track("world.RenderZoneMesh")()

	var out []meshing.Quad
	renderzone.Chunks(zone).Each(func(pos voxel.ChunkPos) {
		lc, ok := w.store.Get(pos)
		if !ok {
			return
		}
		if mesh, ok := lc.Mesh(); ok {
			out = append(out, mesh...)
		}
	})
	return out
}

// RenderZoneBuffers returns upload-ready vertex and index buffers for a zone.
func (w *World) RenderZoneBuffers(zone voxel.ChunkPos) ([]meshing.Vertex, []uint32) {
	return meshing.Flatten(w.RenderZoneMesh(zone))
}

// LoadedChunkCount returns the number of resident chunks.
func (w *World) LoadedChunkCount() int {
	return w.store.Len()
}

// LoadCount returns the load reference count of the chunk at pos.
func (w *World) LoadCount(pos voxel.ChunkPos) (int64, bool) {
	lc, ok := w.store.Get(pos)
	if !ok {
		return 0, false
	}
	return lc.LoadCount(), true
}

// PendingJobs returns the number of unfinished load and unload jobs.
func (w *World) PendingJobs() (load, unload int) {
	return w.jobs.pending()
}
