package world

import (
	"fmt"
	"strings"
)

// Terrain is the static type of a tile.
type Terrain uint8

const (
	TerrainFloor Terrain = iota
	TerrainRock
	TerrainMagma
)

// Walkable reports whether agents may stand on the terrain.
func (t Terrain) Walkable() bool {
	return t == TerrainFloor
}

// Tilemap holds the static terrain of the colony, row-major.
type Tilemap struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Tiles  []Terrain `json:"tiles"`
}

// NewTilemap creates an all-floor map.
func NewTilemap(width, height int) *Tilemap {
	return &Tilemap{
		Width:  width,
		Height: height,
		Tiles:  make([]Terrain, width*height),
	}
}

// InBounds returns true if pos is on the map.
func (m *Tilemap) InBounds(pos TilePosition) bool {
	return pos.X >= 0 && pos.Y >= 0 && pos.X < m.Width && pos.Y < m.Height
}

// Get returns the terrain at pos. Off-map positions read as rock.
func (m *Tilemap) Get(pos TilePosition) Terrain {
	if !m.InBounds(pos) {
		return TerrainRock
	}
	return m.Tiles[pos.Y*m.Width+pos.X]
}

// Set places terrain at pos. Off-map positions are ignored.
func (m *Tilemap) Set(pos TilePosition, t Terrain) {
	if m.InBounds(pos) {
		m.Tiles[pos.Y*m.Width+pos.X] = t
	}
}

// Walkable reports whether pos is on the map and floor.
func (m *Tilemap) Walkable(pos TilePosition) bool {
	return m.Get(pos).Walkable()
}

// StampWalls sets every non-walkable tile in g. The grid must match the map size.
func (m *Tilemap) StampWalls(g *BitGrid) {
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.Tiles[y*m.Width+x].Walkable() {
				g.Set(TilePosition{X: x, Y: y}, true)
			}
		}
	}
}

// Glyphs used by ParseTilemap and Render.
const (
	glyphFloor = '.'
	glyphRock  = '#'
	glyphMagma = '~'
)

// ParseTilemap builds a map from ASCII rows: '.' floor, '#' rock, '~' magma.
// All rows must have the same length.
func ParseTilemap(rows []string) (*Tilemap, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("tilemap: empty layout")
	}
	m := NewTilemap(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != m.Width {
			return nil, fmt.Errorf("tilemap: row %d has %d columns, want %d", y, len(row), m.Width)
		}
		for x := 0; x < len(row); x++ {
			var t Terrain
			switch row[x] {
			case glyphFloor:
				t = TerrainFloor
			case glyphRock:
				t = TerrainRock
			case glyphMagma:
				t = TerrainMagma
			default:
				return nil, fmt.Errorf("tilemap: unknown glyph %q at (%d,%d)", row[x], x, y)
			}
			m.Tiles[y*m.Width+x] = t
		}
	}
	return m, nil
}

// Rows renders the map in the ParseTilemap format.
func (m *Tilemap) Rows() []string {
	rows := make([]string, m.Height)
	var b strings.Builder
	for y := 0; y < m.Height; y++ {
		b.Reset()
		for x := 0; x < m.Width; x++ {
			switch m.Tiles[y*m.Width+x] {
			case TerrainRock:
				b.WriteByte(glyphRock)
			case TerrainMagma:
				b.WriteByte(glyphMagma)
			default:
				b.WriteByte(glyphFloor)
			}
		}
		rows[y] = b.String()
	}
	return rows
}

// String returns a summary of the map.
func (m *Tilemap) String() string {
	return fmt.Sprintf("Tilemap(%dx%d)", m.Width, m.Height)
}
