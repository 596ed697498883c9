package world

import (
	"fmt"

	"github.com/talgya/mini-colony/internal/arena"
)

const wordBits = 32

// BitGrid is a dense width x height bitset packed into 32-bit words, one row
// starting on a word boundary. The simulation rebuilds one every tick to mark
// blocked tiles; path searches use others as destination masks.
type BitGrid struct {
	words  []uint32
	width  int
	height int
	stride int // Words per row.
}

// NewBitGrid allocates a cleared grid from a.
func NewBitGrid(a *arena.Arena, width, height int) (*BitGrid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bit grid %dx%d: non-positive size", width, height)
	}
	stride := (width + wordBits - 1) / wordBits
	words, err := a.Alloc(stride * height)
	if err != nil {
		return nil, fmt.Errorf("bit grid %dx%d: %w", width, height, err)
	}
	return &BitGrid{words: words, width: width, height: height, stride: stride}, nil
}

// Width returns the column count.
func (g *BitGrid) Width() int { return g.width }

// Height returns the row count.
func (g *BitGrid) Height() int { return g.height }

// Size returns (width, height).
func (g *BitGrid) Size() (int, int) { return g.width, g.height }

// InBounds reports whether pos is inside the grid.
func (g *BitGrid) InBounds(pos TilePosition) bool {
	return pos.X >= 0 && pos.Y >= 0 && pos.X < g.width && pos.Y < g.height
}

// Get returns the bit at pos. Out-of-range positions panic.
func (g *BitGrid) Get(pos TilePosition) bool {
	word, bit := g.offset(pos)
	return g.words[word]&(1<<bit) != 0
}

// Set writes the bit at pos. Out-of-range positions panic.
func (g *BitGrid) Set(pos TilePosition, value bool) {
	word, bit := g.offset(pos)
	if value {
		g.words[word] |= 1 << bit
	} else {
		g.words[word] &^= 1 << bit
	}
}

// Clear sets every bit to false.
func (g *BitGrid) Clear() {
	clear(g.words)
}

// Count returns the number of set bits.
func (g *BitGrid) Count() int {
	n := 0
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.Get(TilePosition{X: x, Y: y}) {
				n++
			}
		}
	}
	return n
}

func (g *BitGrid) offset(pos TilePosition) (int, uint) {
	if !g.InBounds(pos) {
		panic(fmt.Sprintf("bit grid: %v outside %dx%d", pos, g.width, g.height))
	}
	return pos.Y*g.stride + pos.X/wordBits, uint(pos.X % wordBits)
}
