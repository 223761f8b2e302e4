package voxel

import "fmt"

// Block identifies a block kind. The set is closed: every switch over Block
// below is exhaustive, and adding a kind means touching each of them.
type Block uint8

const (
	Air Block = iota
	TestBlock
	Dirt
	Grass
	Stone
	RockyDirt

	numBlocks
)

// firstTextured is the first kind with a texture; kinds from here on map to
// consecutive texture indices.
const firstTextured = TestBlock

// Blocks lists every block kind.
func Blocks() []Block {
	out := make([]Block, 0, numBlocks)
	for b := Air; b < numBlocks; b++ {
		out = append(out, b)
	}
	return out
}

// Name returns the block's display name.
func (b Block) Name() string {
	switch b {
	case Air:
		return "air"
	case TestBlock:
		return "test block"
	case Dirt:
		return "dirt"
	case Grass:
		return "grass"
	case Stone:
		return "stone"
	case RockyDirt:
		return "rocky dirt"
	}
	panic(fmt.Sprintf("voxel: unknown block kind %d", uint8(b)))
}

func (b Block) String() string { return b.Name() }

func (b Block) IsAir() bool { return b == Air }

// IsTranslucent reports whether faces behind this block stay visible.
// The test block is see-through so it can be spotted anywhere.
func (b Block) IsTranslucent() bool {
	switch b {
	case Air, TestBlock:
		return true
	case Dirt, Grass, Stone, RockyDirt:
		return false
	}
	panic(fmt.Sprintf("voxel: unknown block kind %d", uint8(b)))
}

// TextureIndex returns the block's index into the texture array.
func (b Block) TextureIndex() (int32, bool) {
	switch b {
	case Air:
		return 0, false
	case TestBlock, Dirt, Grass, Stone, RockyDirt:
		return int32(b - firstTextured), true
	}
	panic(fmt.Sprintf("voxel: unknown block kind %d", uint8(b)))
}

// NumTextures is the size of the texture array the renderer must provide.
func NumTextures() int {
	return int(numBlocks - firstTextured)
}
