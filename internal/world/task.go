package world

import (
	"fmt"

	"voxelstream/internal/voxel"
)

// Task is one unit of chunk work. Tasks are immutable; after a worker
// executes one it comes back unchanged through the completion queue, and the
// world re-derives what changed from its fields.
type Task interface {
	Kind() string
	isTask()
}

// GenerateChunk generates a chunk if it is missing and takes one load
// reference on it. Job identifies the load job the completion counts
// against.
type GenerateChunk struct {
	Pos voxel.ChunkPos
	Job uint64
}

// MeshChunk rebuilds every face-slice of one chunk.
type MeshChunk struct {
	Pos voxel.ChunkPos
}

// MeshChunkFace rebuilds only the boundary slice facing Face for every chunk
// in Box.
type MeshChunkFace struct {
	Box  voxel.ChunkBox
	Face voxel.Face
}

// UnloadChunks drops one load reference from every chunk in Box.
type UnloadChunks struct {
	Box voxel.ChunkBox
}

func (GenerateChunk) Kind() string { return "generate" }
func (MeshChunk) Kind() string     { return "mesh" }
func (MeshChunkFace) Kind() string { return "mesh_face" }
func (UnloadChunks) Kind() string  { return "unload" }

func (GenerateChunk) isTask() {}
func (MeshChunk) isTask()     {}
func (MeshChunkFace) isTask() {}
func (UnloadChunks) isTask()  {}

func (t GenerateChunk) String() string { return fmt.Sprintf("generate %v", t.Pos) }
func (t MeshChunk) String() string     { return fmt.Sprintf("mesh %v", t.Pos) }
func (t MeshChunkFace) String() string { return fmt.Sprintf("mesh %v face of %v", t.Face, t.Box) }
func (t UnloadChunks) String() string  { return fmt.Sprintf("unload %v", t.Box) }
