package world

import (
	"fmt"

	"voxelstream/internal/voxel"

	"github.com/google/uuid"
)

// PlayerID identifies a connected player.
type PlayerID = uuid.UUID

// Player is a connected viewer. The world keeps every chunk within
// RenderDistance of the player's chunk loaded.
type Player struct {
	ID             PlayerID
	Position       voxel.Position
	RenderDistance voxel.ChunkPos
}

// ChunkPos returns the chunk the player stands in.
func (p Player) ChunkPos() voxel.ChunkPos {
	return voxel.ChunkPosOf(p.Position)
}

// LoadBox returns the box of chunks kept loaded for the player.
func (p Player) LoadBox() voxel.ChunkBox {
	return voxel.BoxAround(p.ChunkPos(), p.RenderDistance)
}

// Connect registers a player at the origin and loads the chunks around it.
func (w *World) Connect() PlayerID {
	return w.ConnectAt(voxel.Position{})
}

// ConnectAt registers a player at pos and loads the chunks around it.
func (w *World) ConnectAt(pos voxel.Position) PlayerID {
	p := &Player{
		ID:             uuid.New(),
		Position:       pos,
		RenderDistance: w.renderDistance,
	}
	w.LoadChunks(p.LoadBox(), nil)

	w.playersMu.Lock()
	w.players[p.ID] = p
	n := len(w.players)
	w.playersMu.Unlock()

	w.metrics.players.Set(float64(n))
	w.log.Info("player connected", zapPlayer(p.ID), zapChunk(p.ChunkPos()))
	return p.ID
}

// Disconnect removes a player and unloads the chunks it held.
func (w *World) Disconnect(id PlayerID) error {
	w.playersMu.Lock()
	p, ok := w.players[id]
	if ok {
		delete(w.players, id)
	}
	n := len(w.players)
	w.playersMu.Unlock()

	if !ok {
		return fmt.Errorf("disconnect %v: %w", id, ErrUnknownPlayer)
	}
	w.UnloadChunks(p.LoadBox(), nil)
	w.metrics.players.Set(float64(n))
	w.log.Info("player disconnected", zapPlayer(id))
	return nil
}

// Player returns a copy of the player's current state.
func (w *World) Player(id PlayerID) (Player, bool) {
	w.playersMu.RLock()
	defer w.playersMu.RUnlock()
	p, ok := w.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}
