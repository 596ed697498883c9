package agents

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/talgya/mini-colony/internal/world"
)

// RelaxTarget picks the wander point for a Relax goal. It is a pure function
// of its inputs so replays choose the same tile.
func RelaxTarget(id int, pos world.TilePosition, tick uint64, box world.Rect) world.TilePosition {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(id))
	binary.LittleEndian.PutUint64(buf[8:], uint64(int64(pos.X)))
	binary.LittleEndian.PutUint64(buf[16:], uint64(int64(pos.Y)))
	binary.LittleEndian.PutUint64(buf[24:], tick)
	h := xxhash.Sum64(buf[:])

	w, hgt := uint64(max(box.Width(), 1)), uint64(max(box.Height(), 1))
	return world.TilePosition{
		X: box.Min.X + int(h%w),
		Y: box.Min.Y + int((h>>32)%hgt),
	}
}
