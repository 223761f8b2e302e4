package world

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"voxelstream/internal/renderzone"
	"voxelstream/internal/scheduler"
	"voxelstream/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var airGenerator = GeneratorFunc(func(voxel.BlockPos) voxel.Block { return voxel.Air })

// countingGenerator records how often chunk data is generated.
type countingGenerator struct {
	Generator
	calls atomic.Int64
}

func (g *countingGenerator) GenerateChunk(w *World, pos voxel.ChunkPos) *LoadedChunk {
	g.calls.Add(1)
	return g.Generator.GenerateChunk(w, pos)
}

func newTestWorld(gen Generator, rd voxel.ChunkPos) *World {
	return New(scheduler.NewQueue[Task](nil), gen, Options{RenderDistance: rd})
}

// settle executes queued tasks on the test goroutine and drains completions
// until both queues stay empty.
func settle(t *testing.T, w *World, zones *renderzone.Set) {
	t.Helper()
	for i := 0; i < 100; i++ {
		ran := scheduler.RunPending(w.queue, w)
		polled := w.PollCompletedTasks(zones)
		if ran == 0 && polled == 0 {
			return
		}
	}
	t.Fatal("world did not settle")
}

func TestLoadThenUnloadEmptiesStore(t *testing.T) {
	w := newTestWorld(airGenerator, voxel.Splat(1))
	zones := renderzone.New()
	box := voxel.Box(voxel.ChunkPos{X: -1, Y: 0, Z: -1}, voxel.ChunkPos{X: 1, Y: 2, Z: 1})

	w.LoadChunks(box, nil)
	load, unload := w.PendingJobs()
	assert.Equal(t, 1, load)
	assert.Zero(t, unload)

	settle(t, w, zones)
	assert.Equal(t, 8, w.LoadedChunkCount())
	box.Each(func(pos voxel.ChunkPos) {
		n, ok := w.LoadCount(pos)
		require.True(t, ok, "chunk %v", pos)
		assert.EqualValues(t, 1, n)
	})
	load, _ = w.PendingJobs()
	assert.Zero(t, load)
	assert.True(t, zones.Contains(voxel.ChunkPos{X: -8, Z: -8}))
	assert.True(t, zones.Contains(voxel.ChunkPos{}))

	zones.Clear()
	w.UnloadChunks(box, nil)
	settle(t, w, zones)
	assert.Zero(t, w.LoadedChunkCount())
	box.Each(func(pos voxel.ChunkPos) {
		_, ok := w.Chunk(pos)
		assert.False(t, ok, "chunk %v", pos)
	})
	_, unload = w.PendingJobs()
	assert.Zero(t, unload)
	assert.Equal(t, 4, zones.Len())
}

func TestOverlappingLoadsShareChunks(t *testing.T) {
	gen := &countingGenerator{Generator: airGenerator}
	w := newTestWorld(gen, voxel.Splat(1))
	zones := renderzone.New()

	a := voxel.Box(voxel.ChunkPos{}, voxel.ChunkPos{X: 2, Y: 1, Z: 1})
	b := voxel.Box(voxel.ChunkPos{X: 1}, voxel.ChunkPos{X: 3, Y: 1, Z: 1})
	w.LoadChunks(a, nil)
	w.LoadChunks(b, nil)
	settle(t, w, zones)

	assert.EqualValues(t, 3, gen.calls.Load())
	assert.Equal(t, 3, w.LoadedChunkCount())
	n, _ := w.LoadCount(voxel.ChunkPos{X: 1})
	assert.EqualValues(t, 2, n)

	w.UnloadChunks(a, nil)
	settle(t, w, zones)
	assert.Equal(t, 2, w.LoadedChunkCount())
	n, ok := w.LoadCount(voxel.ChunkPos{X: 1})
	require.True(t, ok)
	assert.EqualValues(t, 1, n)
	_, ok = w.Chunk(voxel.ChunkPos{})
	assert.False(t, ok)
}

func TestOverlappingLoadsCompleteOutOfOrder(t *testing.T) {
	w := newTestWorld(airGenerator, voxel.Splat(1))
	zones := renderzone.New()

	a := voxel.Box(voxel.ChunkPos{}, voxel.ChunkPos{X: 2, Y: 1, Z: 1})
	b := voxel.Box(voxel.ChunkPos{X: 1}, voxel.ChunkPos{X: 3, Y: 1, Z: 1})
	w.LoadChunks(a, &MeshChunkFace{Box: a, Face: voxel.FaceXNeg})
	w.LoadChunks(b, &MeshChunkFace{Box: b, Face: voxel.FaceXPos})

	byJob := map[uint64][]GenerateChunk{}
	var jobs []uint64
	for {
		task, res := w.queue.Steal()
		if res != scheduler.StealSuccess {
			break
		}
		gen := task.(GenerateChunk)
		if _, ok := byJob[gen.Job]; !ok {
			jobs = append(jobs, gen.Job)
		}
		byJob[gen.Job] = append(byJob[gen.Job], gen)
	}
	require.Len(t, jobs, 2)
	genA, genB := byJob[jobs[0]], byJob[jobs[1]]
	require.Len(t, genA, 2)
	require.Len(t, genB, 2)

	// b's shared chunk lands before a's own chunks
	for _, task := range []GenerateChunk{genB[0], genA[1], genB[1], genA[0]} {
		w.Execute(task)
		w.queue.Complete(task)
		w.PollCompletedTasks(zones)
	}

	load, _ := w.PendingJobs()
	assert.Zero(t, load)

	var faces []voxel.Face
	for {
		task, res := w.queue.Steal()
		if res != scheduler.StealSuccess {
			break
		}
		if f, ok := task.(MeshChunkFace); ok {
			faces = append(faces, f.Face)
		}
	}
	assert.ElementsMatch(t, []voxel.Face{voxel.FaceXNeg, voxel.FaceXPos}, faces)

	settle(t, w, zones)
	assert.Equal(t, 3, w.LoadedChunkCount())
	n, _ := w.LoadCount(voxel.ChunkPos{X: 1})
	assert.EqualValues(t, 2, n)
}

func TestMeshRebuildReadsBlocksAfterLock(t *testing.T) {
	w := newTestWorld(airGenerator, voxel.Splat(1))
	zones := renderzone.New()
	w.LoadChunks(voxel.Box(voxel.ChunkPos{}, voxel.Splat(1)), nil)
	settle(t, w, zones)

	lc, ok := w.store.Get(voxel.ChunkPos{})
	require.True(t, ok)

	lc.meshMu.Lock()
	done := make(chan struct{})
	go func() {
		defer close(done)
		lc.MeshAll()
	}()
	// give the rebuild time to queue up on the cache lock
	time.Sleep(20 * time.Millisecond)
	require.True(t, w.SetBlock(voxel.BlockPos{X: 4, Y: 4, Z: 4}, voxel.Stone))
	lc.meshMu.Unlock()
	<-done

	mesh, ok := lc.Mesh()
	require.True(t, ok)
	assert.Len(t, mesh, 6)
}

func TestLoadJobSubmitsFollowUpWhenDone(t *testing.T) {
	w := newTestWorld(airGenerator, voxel.Splat(1))
	zones := renderzone.New()
	box := voxel.Box(voxel.ChunkPos{}, voxel.ChunkPos{X: 2, Y: 1, Z: 1})
	follow := &MeshChunkFace{Box: box, Face: voxel.FaceYPos}

	w.LoadChunks(box, follow)
	require.Equal(t, 2, w.queue.Pending())

	// execute only the first generate task
	task, res := w.queue.Steal()
	require.Equal(t, scheduler.StealSuccess, res)
	w.Execute(task)
	w.queue.Complete(task)
	assert.Equal(t, 1, w.PollCompletedTasks(zones))
	assert.Equal(t, 1, w.queue.Pending(), "job must wait for every chunk")

	assert.Equal(t, 1, scheduler.RunPending(w.queue, w))
	assert.Equal(t, 1, w.PollCompletedTasks(zones))
	// two full mesh tasks plus the follow-up
	assert.Equal(t, 3, w.queue.Pending())

	var kinds []string
	for {
		task, res := w.queue.Steal()
		if res != scheduler.StealSuccess {
			break
		}
		kinds = append(kinds, task.Kind())
	}
	assert.ElementsMatch(t, []string{"mesh", "mesh", "mesh_face"}, kinds)
}

func TestEmptyLoadRunsFollowUpDirectly(t *testing.T) {
	w := newTestWorld(airGenerator, voxel.Splat(1))
	follow := &MeshChunkFace{Box: voxel.Box(voxel.ChunkPos{}, voxel.Splat(1)), Face: voxel.FaceXNeg}

	w.LoadChunks(voxel.Box(voxel.ChunkPos{}, voxel.ChunkPos{X: 4}), follow)
	load, _ := w.PendingJobs()
	assert.Zero(t, load)

	task, res := w.queue.Steal()
	require.Equal(t, scheduler.StealSuccess, res)
	assert.Equal(t, *follow, task)
}

func TestStaleTasksAreNoOps(t *testing.T) {
	w := newTestWorld(airGenerator, voxel.Splat(1))
	box := voxel.Box(voxel.ChunkPos{}, voxel.Splat(2))

	assert.NotPanics(t, func() {
		w.Execute(MeshChunk{Pos: voxel.ChunkPos{X: 5}})
		w.Execute(MeshChunkFace{Box: box, Face: voxel.FaceZPos})
		w.Execute(UnloadChunks{Box: box})
	})
	assert.Zero(t, w.LoadedChunkCount())
}

func TestBlockAccess(t *testing.T) {
	w := newTestWorld(FlatGenerator{Height: 4, Fill: voxel.Dirt, Top: voxel.Grass}, voxel.Splat(1))
	zones := renderzone.New()
	w.LoadChunks(voxel.Box(voxel.ChunkPos{X: -1}, voxel.ChunkPos{X: 1, Y: 1, Z: 1}), nil)
	settle(t, w, zones)

	b, ok := w.Block(voxel.BlockPos{X: -5, Y: 3, Z: 2})
	require.True(t, ok)
	assert.Equal(t, voxel.Grass, b)
	b, _ = w.Block(voxel.BlockPos{X: 5, Y: 0, Z: 2})
	assert.Equal(t, voxel.Dirt, b)
	b, _ = w.Block(voxel.BlockPos{X: 5, Y: 4, Z: 2})
	assert.Equal(t, voxel.Air, b)

	_, ok = w.Block(voxel.BlockPos{X: 5, Y: -1, Z: 2})
	assert.False(t, ok)

	assert.True(t, w.SetBlock(voxel.BlockPos{X: -1, Y: 10, Z: 31}, voxel.Stone))
	b, _ = w.Block(voxel.BlockPos{X: -1, Y: 10, Z: 31})
	assert.Equal(t, voxel.Stone, b)
	assert.False(t, w.SetBlock(voxel.BlockPos{X: 64}, voxel.Stone))
}

func TestBlockRaycast(t *testing.T) {
	w := newTestWorld(FlatGenerator{Height: 0, Fill: voxel.Stone}, voxel.Splat(1))
	zones := renderzone.New()
	w.LoadChunks(voxel.Box(voxel.Splat(-1), voxel.Splat(1)), nil)
	settle(t, w, zones)

	origin := voxel.Position{0.5, 0.5, 0.5}
	require.True(t, w.SetBlock(voxel.BlockPos{X: 3}, voxel.Stone))

	hit, ok := w.BlockRaycast(origin, mgl32.Vec3{1, 0, 0}, 10)
	require.True(t, ok)
	assert.Equal(t, voxel.BlockPos{X: 3}, hit)

	hit, ok = w.BlockRaycast(origin, mgl32.Vec3{0, -1, 0}, 10)
	require.True(t, ok)
	assert.Equal(t, voxel.BlockPos{Y: -1}, hit)

	_, ok = w.BlockRaycast(origin, mgl32.Vec3{1, 0, 0}, 2)
	assert.False(t, ok, "block is out of reach")

	// nothing solid before the unloaded chunk at x = 32
	_, ok = w.BlockRaycast(origin, mgl32.Vec3{0, 0, 1}, 100)
	assert.False(t, ok)
}

func TestMeshUpdateAdjacent(t *testing.T) {
	w := newTestWorld(airGenerator, voxel.Splat(1))
	zones := renderzone.New()
	w.LoadChunks(voxel.Box(voxel.Splat(-1), voxel.Splat(1)), nil)
	settle(t, w, zones)

	left := voxel.ChunkPos{X: -8}
	here := voxel.ChunkPos{}
	require.Empty(t, w.RenderZoneMesh(here))

	a := voxel.BlockPos{}
	b := voxel.BlockPos{X: -1}
	require.True(t, w.SetBlock(a, voxel.Dirt))
	zones.Clear()
	w.MeshUpdateAdjacent(a, zones)
	assert.Len(t, w.RenderZoneMesh(here), 6)
	assert.True(t, zones.Contains(here))
	assert.True(t, zones.Contains(left))

	require.True(t, w.SetBlock(b, voxel.Stone))
	w.MeshUpdateAdjacent(b, zones)
	// the shared face is hidden on both sides of the chunk border
	assert.Len(t, w.RenderZoneMesh(here), 5)
	assert.Len(t, w.RenderZoneMesh(left), 5)

	require.True(t, w.SetBlock(a, voxel.Air))
	w.MeshUpdateAdjacent(a, zones)
	assert.Empty(t, w.RenderZoneMesh(here))
	assert.Len(t, w.RenderZoneMesh(left), 6)

	verts, indices := w.RenderZoneBuffers(left)
	assert.Len(t, verts, 6*4)
	assert.Len(t, indices, 6*6)
}

func TestMeshUpdateAdjacentRefreshesEdgeOcclusion(t *testing.T) {
	w := newTestWorld(FlatGenerator{Height: 0, Fill: voxel.Stone}, voxel.Splat(1))
	zones := renderzone.New()
	w.LoadChunks(voxel.Box(voxel.Splat(-1), voxel.Splat(1)), nil)
	settle(t, w, zones)

	// the top slice of the chunk below the origin in x = -1
	before := w.chunkSlice(t, voxel.ChunkPos{X: -1, Y: -1}, voxel.FaceYPos, 31)

	// a block on the x = 0 chunk edge shades the ground across the border
	require.True(t, w.SetBlock(voxel.BlockPos{}, voxel.Stone))
	w.MeshUpdateAdjacent(voxel.BlockPos{}, zones)

	after := w.chunkSlice(t, voxel.ChunkPos{X: -1, Y: -1}, voxel.FaceYPos, 31)
	assert.NotEqual(t, before, after)
	assert.True(t, zones.Contains(voxel.ChunkPos{X: -8, Y: -8}))
}

func (w *World) chunkSlice(t *testing.T, pos voxel.ChunkPos, f voxel.Face, index int) int {
	t.Helper()
	c, ok := w.Chunk(pos)
	require.True(t, ok)
	return len(c.SliceMesh(f, index))
}

func TestPlayerStreaming(t *testing.T) {
	// only chunk column x = 1 has ground, so its +X border only shows once
	// x = 2 is loaded
	gen := GeneratorFunc(func(p voxel.BlockPos) voxel.Block {
		if p.Chunk().X == 1 && p.Y < 16 {
			return voxel.Stone
		}
		return voxel.Air
	})
	w := newTestWorld(gen, voxel.ChunkPos{X: 2, Y: 1, Z: 2})
	zones := renderzone.New()

	id := w.ConnectAt(voxel.Position{0.5, 0.5, 0.5})
	settle(t, w, zones)
	require.Equal(t, 32, w.LoadedChunkCount())

	border := voxel.ChunkPos{X: 1}
	require.Zero(t, w.chunkSlice(t, border, voxel.FaceXPos, 31))

	moved, err := w.SetPlayerPosition(id, voxel.Position{10, 0.5, 0.5})
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = w.SetPlayerPosition(id, voxel.Position{32.5, 0.5, 0.5})
	require.NoError(t, err)
	assert.True(t, moved)
	settle(t, w, zones)

	assert.Equal(t, 32, w.LoadedChunkCount())
	_, ok := w.Chunk(voxel.ChunkPos{X: -2})
	assert.False(t, ok)
	n, ok := w.LoadCount(voxel.ChunkPos{X: 2, Y: -1, Z: 1})
	require.True(t, ok)
	assert.EqualValues(t, 1, n)
	assert.NotZero(t, w.chunkSlice(t, border, voxel.FaceXPos, 31))

	// and back again
	moved, err = w.SetPlayerPosition(id, voxel.Position{31.5, 0.5, 0.5})
	require.NoError(t, err)
	assert.True(t, moved)
	settle(t, w, zones)
	_, ok = w.Chunk(voxel.ChunkPos{X: 2})
	assert.False(t, ok)
	_, ok = w.Chunk(voxel.ChunkPos{X: -2})
	assert.True(t, ok)

	p, ok := w.Player(id)
	require.True(t, ok)
	assert.Equal(t, voxel.ChunkPos{}, p.ChunkPos())

	require.NoError(t, w.Disconnect(id))
	settle(t, w, zones)
	assert.Zero(t, w.LoadedChunkCount())
	_, ok = w.Player(id)
	assert.False(t, ok)
}

func TestUnsupportedTransitions(t *testing.T) {
	w := newTestWorld(airGenerator, voxel.Splat(1))
	id := w.Connect()

	_, err := w.SetPlayerPosition(id, voxel.Position{70, 0, 0})
	require.ErrorIs(t, err, ErrUnsupportedTransition)

	_, err = w.SetPlayerPosition(id, voxel.Position{33, 0, 33})
	require.ErrorIs(t, err, ErrUnsupportedTransition)

	p, _ := w.Player(id)
	assert.Equal(t, voxel.Position{}, p.Position)

	_, err = w.SetPlayerPosition(PlayerID{}, voxel.Position{})
	require.ErrorIs(t, err, ErrUnknownPlayer)
	require.ErrorIs(t, w.Disconnect(PlayerID{}), ErrUnknownPlayer)
}

func TestSingleStep(t *testing.T) {
	tests := []struct {
		delta voxel.ChunkPos
		axis  voxel.Axis
		step  int
		ok    bool
	}{
		{voxel.ChunkPos{X: 1}, voxel.AxisX, 1, true},
		{voxel.ChunkPos{Y: -1}, voxel.AxisY, -1, true},
		{voxel.ChunkPos{Z: 1}, voxel.AxisZ, 1, true},
		{voxel.ChunkPos{X: 2}, 0, 0, false},
		{voxel.ChunkPos{X: 1, Y: 1}, 0, 0, false},
	}
	for _, tt := range tests {
		axis, step, err := singleStep(tt.delta)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrUnsupportedTransition, "delta %v", tt.delta)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.axis, axis)
		assert.Equal(t, tt.step, step)
	}
}

func TestWorldMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	w := New(scheduler.NewQueue[Task](reg), airGenerator, Options{Registerer: reg, RenderDistance: voxel.Splat(1)})
	zones := renderzone.New()

	w.Connect()
	settle(t, w, zones)
	assert.Equal(t, 8.0, testutil.ToFloat64(w.metrics.chunksLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(w.metrics.players))
	assert.Zero(t, testutil.ToFloat64(w.metrics.jobsPending.WithLabelValues("load")))
}

func TestWorldWithWorkerPool(t *testing.T) {
	w := newTestWorld(FlatGenerator{Height: 1, Fill: voxel.Stone}, voxel.Splat(1))
	pool := scheduler.NewPool(w.queue, w, scheduler.PoolOptions{Workers: 3, IdleSleep: time.Millisecond})
	pool.Start(context.Background())
	defer pool.Close()

	zones := renderzone.New()
	w.Connect()

	require.Eventually(t, func() bool {
		w.PollCompletedTasks(zones)
		load, _ := w.PendingJobs()
		return load == 0 && w.LoadedChunkCount() == 8 && zones.Contains(voxel.ChunkPos{})
	}, 5*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		w.PollCompletedTasks(zones)
		return len(w.RenderZoneMesh(voxel.ChunkPos{})) > 0
	}, 5*time.Second, 5*time.Millisecond)
}
