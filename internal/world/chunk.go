package world

import (
	"sync"
	"sync/atomic"

	"voxelstream/internal/meshing"
	"voxelstream/internal/voxel"
)

// ChunkLookup resolves neighbouring chunks. A chunk holds one so it can read
// across its borders while meshing; it never owns or outlives what it finds.
type ChunkLookup interface {
	Chunk(pos voxel.ChunkPos) (*Chunk, bool)
}

type blockArray [voxel.ChunkVolume]voxel.Block

// Chunk is a ChunkSize³ block grid with a per-face, per-slice mesh cache.
// The grid and the cache have separate locks, so meshing one chunk never
// blocks block reads on another.
type Chunk struct {
	pos    voxel.ChunkPos
	origin voxel.BlockPos
	lookup ChunkLookup

	mu     sync.RWMutex
	blocks *blockArray

	meshMu sync.RWMutex
	mesh   [voxel.NumFaces][voxel.ChunkSize][]meshing.Quad
}

// NewChunk creates a chunk at pos, filling each block from fill, which
// receives global block positions.
func NewChunk(lookup ChunkLookup, pos voxel.ChunkPos, fill func(voxel.BlockPos) voxel.Block) *Chunk {
	c := &Chunk{
		pos:    pos,
		origin: pos.BlockPos(),
		lookup: lookup,
		blocks: new(blockArray),
	}
	if fill != nil {
		for x := 0; x < voxel.ChunkSize; x++ {
			for y := 0; y < voxel.ChunkSize; y++ {
				for z := 0; z < voxel.ChunkSize; z++ {
					local := voxel.BlockPos{X: x, Y: y, Z: z}
					c.blocks[local.Index()] = fill(c.origin.Add(local))
				}
			}
		}
	}
	return c
}

// Pos returns the chunk coordinate.
func (c *Chunk) Pos() voxel.ChunkPos { return c.pos }

// Origin returns the global position of the chunk's minimum block.
func (c *Chunk) Origin() voxel.BlockPos { return c.origin }

// BlockRef is a read handle on one block. It keeps the grid read-locked
// until Release, so the value cannot change underneath the holder.
type BlockRef struct {
	c   *Chunk
	idx int
}

// ReadBlock returns a read handle. The local position must be chunk local.
func (c *Chunk) ReadBlock(local voxel.BlockPos) BlockRef {
	idx := local.Index()
	c.mu.RLock()
	return BlockRef{c: c, idx: idx}
}

func (r BlockRef) Block() voxel.Block { return r.c.blocks[r.idx] }
func (r BlockRef) Release()           { r.c.mu.RUnlock() }

// BlockRefMut is a write handle on one block, holding the grid write lock
// until Release. Never acquire a second chunk's handle while holding one.
type BlockRefMut struct {
	c   *Chunk
	idx int
}

// WriteBlock returns a write handle. The local position must be chunk local.
func (c *Chunk) WriteBlock(local voxel.BlockPos) BlockRefMut {
	idx := local.Index()
	c.mu.Lock()
	return BlockRefMut{c: c, idx: idx}
}

func (r BlockRefMut) Block() voxel.Block { return r.c.blocks[r.idx] }
func (r BlockRefMut) Set(b voxel.Block)  { r.c.blocks[r.idx] = b }
func (r BlockRefMut) Release()           { r.c.mu.Unlock() }

// Block returns the block at a chunk-local position.
func (c *Chunk) Block(local voxel.BlockPos) voxel.Block {
	ref := c.ReadBlock(local)
	defer ref.Release()
	return ref.Block()
}

// SetBlock stores a block at a chunk-local position and returns the old one.
// The mesh cache is not touched; callers schedule the rebuild.
func (c *Chunk) SetBlock(local voxel.BlockPos, b voxel.Block) voxel.Block {
	ref := c.WriteBlock(local)
	defer ref.Release()
	old := ref.Block()
	ref.Set(b)
	return old
}

// snapshot copies the grid under a read lock.
func (c *Chunk) snapshot() *blockArray {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := new(blockArray)
	*snap = *c.blocks
	return snap
}

// meshSource serves the mesher from a grid snapshot, falling back to
// neighbour chunks for positions past the border. Neighbours are read one
// block at a time under their own read lock; no two grid locks are ever held
// together.
type meshSource struct {
	c         *Chunk
	blocks    *blockArray
	neighbors [27]*Chunk
	looked    [27]bool
}

func (c *Chunk) newMeshSource() *meshSource {
	return &meshSource{c: c, blocks: c.snapshot()}
}

func (s *meshSource) Block(local voxel.BlockPos) (voxel.Block, bool) {
	if local.IsChunkLocal() {
		return s.blocks[local.Index()], true
	}
	off, inner := local.Split()
	if off.X < -1 || off.X > 1 || off.Y < -1 || off.Y > 1 || off.Z < -1 || off.Z > 1 {
		return voxel.Air, false
	}
	i := (off.X+1)*9 + (off.Y+1)*3 + (off.Z + 1)
	if !s.looked[i] {
		s.looked[i] = true
		if s.c.lookup != nil {
			s.neighbors[i], _ = s.c.lookup.Chunk(s.c.pos.Add(off))
		}
	}
	n := s.neighbors[i]
	if n == nil {
		return voxel.Air, false
	}
	return n.Block(inner), true
}

// MeshSlice rebuilds one face-slice. The mesh write lock is held for the
// whole rebuild so readers see either the old or the new cache.
func (c *Chunk) MeshSlice(face voxel.Face, index int) {
	c.meshSlices(face, index)
}

// meshSlices rebuilds several slices of one face under a single snapshot.
// The snapshot is taken after the mesh lock, so the last rebuild to finish
// always reflects the newest blocks.
func (c *Chunk) meshSlices(face voxel.Face, indices ...int) {
	c.meshMu.Lock()
	defer c.meshMu.Unlock()
	src := c.newMeshSource()
	for _, i := range indices {
		c.mesh[face][i] = meshing.BuildSlice(src, c.origin, face, i)
	}
}

// MeshAll rebuilds every slice of every face.
func (c *Chunk) MeshAll() {
	c.meshMu.Lock()
	defer c.meshMu.Unlock()
	src := c.newMeshSource()
	for _, f := range voxel.Faces {
		for i := 0; i < voxel.ChunkSize; i++ {
			c.mesh[f][i] = meshing.BuildSlice(src, c.origin, f, i)
		}
	}
}

// Mesh returns every cached quad. ok is false when a rebuild holds the cache;
// the caller should try again next frame.
func (c *Chunk) Mesh() ([]meshing.Quad, bool) {
	if !c.meshMu.TryRLock() {
		return nil, false
	}
	defer c.meshMu.RUnlock()

	n := 0
	for f := range c.mesh {
		for i := range c.mesh[f] {
			n += len(c.mesh[f][i])
		}
	}
	out := make([]meshing.Quad, 0, n)
	for f := range c.mesh {
		for i := range c.mesh[f] {
			out = append(out, c.mesh[f][i]...)
		}
	}
	return out, true
}

// SliceMesh returns a copy of one cached slice, waiting for any rebuild.
func (c *Chunk) SliceMesh(face voxel.Face, index int) []meshing.Quad {
	c.meshMu.RLock()
	defer c.meshMu.RUnlock()
	return append([]meshing.Quad(nil), c.mesh[face][index]...)
}

// LoadedChunk is a chunk resident in the store together with its load
// reference count. The count starts at zero; the generate task that inserts
// the chunk takes the first reference.
type LoadedChunk struct {
	*Chunk
	loadCount atomic.Int64
}

func NewLoadedChunk(c *Chunk) *LoadedChunk {
	return &LoadedChunk{Chunk: c}
}

// IncLoadCount takes a load reference and returns the new count.
func (l *LoadedChunk) IncLoadCount() int64 {
	return l.loadCount.Add(1)
}

// DecLoadCount drops a load reference and returns the new count. Dropping a
// reference that was never taken is a bookkeeping bug and panics.
func (l *LoadedChunk) DecLoadCount() int64 {
	n := l.loadCount.Add(-1)
	if n < 0 {
		panic("world: load count of chunk " + l.pos.String() + " went negative")
	}
	return n
}

func (l *LoadedChunk) LoadCount() int64 {
	return l.loadCount.Load()
}
