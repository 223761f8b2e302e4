package world

import (
	"voxelstream/internal/voxel"

	"github.com/puzpuzpuz/xsync/v3"
)

// ChunkStore maps chunk coordinates to resident chunks. Entries are locked
// independently, so inserting or removing one chunk never blocks lookups of
// another.
type ChunkStore struct {
	chunks *xsync.MapOf[voxel.ChunkPos, *LoadedChunk]
}

// NewChunkStore creates an empty chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{chunks: xsync.NewMapOf[voxel.ChunkPos, *LoadedChunk]()}
}

// Get returns the loaded chunk at pos.
func (cs *ChunkStore) Get(pos voxel.ChunkPos) (*LoadedChunk, bool) {
	return cs.chunks.Load(pos)
}

// Acquire takes a load reference on the chunk at pos, building it with
// generate when it is missing. Returns the chunk and its new load count.
func (cs *ChunkStore) Acquire(pos voxel.ChunkPos, generate func() *LoadedChunk) (*LoadedChunk, int64) {
	var fresh *LoadedChunk
	if _, ok := cs.chunks.Load(pos); !ok {
		// generate outside the entry lock; a racing Acquire may win and this
		// copy is simply dropped
		fresh = generate()
	}

	var count int64
	lc, _ := cs.chunks.Compute(pos, func(old *LoadedChunk, loaded bool) (*LoadedChunk, bool) {
		if !loaded {
			if fresh == nil {
				fresh = generate()
			}
			old = fresh
		}
		count = old.IncLoadCount()
		return old, false
	})
	return lc, count
}

// Release drops a load reference on the chunk at pos, removing it when the
// count reaches zero. Missing chunks are ignored. Reports whether the chunk
// was removed.
func (cs *ChunkStore) Release(pos voxel.ChunkPos) bool {
	removed := false
	cs.chunks.Compute(pos, func(old *LoadedChunk, loaded bool) (*LoadedChunk, bool) {
		if !loaded {
			return old, true
		}
		removed = old.DecLoadCount() == 0
		return old, removed
	})
	return removed
}

// Len returns the number of resident chunks.
func (cs *ChunkStore) Len() int {
	return cs.chunks.Size()
}

// Range calls fn for every resident chunk until fn returns false.
func (cs *ChunkStore) Range(fn func(pos voxel.ChunkPos, lc *LoadedChunk) bool) {
	cs.chunks.Range(fn)
}

// Positions returns every resident chunk coordinate.
func (cs *ChunkStore) Positions() []voxel.ChunkPos {
	out := make([]voxel.ChunkPos, 0, cs.chunks.Size())
	cs.chunks.Range(func(pos voxel.ChunkPos, _ *LoadedChunk) bool {
		out = append(out, pos)
		return true
	})
	return out
}
