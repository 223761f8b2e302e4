package world

import (
	"fmt"

	"voxelstream/internal/profiling"
	"voxelstream/internal/voxel"

	"go.uber.org/zap"
)

func zapPlayer(id PlayerID) zap.Field {
	return zap.Stringer("player", id)
}

func zapChunk(pos voxel.ChunkPos) zap.Field {
	return zap.Stringer("chunk", pos)
}

// SetPlayerPosition moves a player. When the player enters a new chunk the
// slab of chunks that falls out of range is unloaded and the newly exposed
// slab is loaded, with a follow-up that meshes the old border face against
// it. Only moves of at most one chunk along a single axis are supported;
// anything larger returns ErrUnsupportedTransition and leaves the player
// where it was. Reports whether the player changed chunk.
func (w *World) SetPlayerPosition(id PlayerID, pos voxel.Position) (bool, error) {
	defer profiling.Track("world.SetPlayerPosition")()

	w.playersMu.Lock()
	defer w.playersMu.Unlock()

	p, ok := w.players[id]
	if !ok {
		return false, fmt.Errorf("move %v: %w", id, ErrUnknownPlayer)
	}

	from := p.ChunkPos()
	to := voxel.ChunkPosOf(pos)
	delta := to.Sub(from)
	if delta == (voxel.ChunkPos{}) {
		p.Position = pos
		return false, nil
	}

	axis, step, err := singleStep(delta)
	if err != nil {
		w.log.Warn("rejected player move", zapPlayer(id), zap.Stringer("from", from), zap.Stringer("to", to))
		return false, fmt.Errorf("move %v from %v to %v: %w", id, from, to, err)
	}

	w.streamSlab(p.LoadBox(), axis, step)
	p.Position = pos
	return true, nil
}

// singleStep returns the axis and direction of a one-chunk move.
func singleStep(delta voxel.ChunkPos) (voxel.Axis, int, error) {
	moved := 0
	var axis voxel.Axis
	for _, a := range voxel.Axes {
		if delta.Get(a) != 0 {
			moved++
			axis = a
		}
	}
	if moved != 1 {
		return 0, 0, ErrUnsupportedTransition
	}
	step := delta.Get(axis)
	if step != 1 && step != -1 {
		return 0, 0, ErrUnsupportedTransition
	}
	return axis, step, nil
}

// streamSlab shifts the load box one chunk along axis. The trailing slab is
// unloaded, the leading slab is loaded, and once it is generated the last
// slab of the old box has its face toward the new chunks rebuilt.
func (w *World) streamSlab(box voxel.ChunkBox, axis voxel.Axis, step int) {
	lo, hi := box.Min.Get(axis), box.Max.Get(axis)

	slab := func(at int) voxel.ChunkBox {
		return voxel.Box(box.Min.With(axis, at), box.Max.With(axis, at+1))
	}

	var leaving, entering, border voxel.ChunkBox
	if step > 0 {
		leaving, entering, border = slab(lo), slab(hi), slab(hi-1)
	} else {
		leaving, entering, border = slab(hi-1), slab(lo-1), slab(lo)
	}

	w.UnloadChunks(leaving, nil)
	w.LoadChunks(entering, &MeshChunkFace{
		Box:  border,
		Face: voxel.FaceFromAxis(axis, step > 0),
	})
}
