package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/arena"
)

func TestParseTilemapRoundTrip(t *testing.T) {
	rows := []string{
		"#####",
		"#..~#",
		"#####",
	}
	m, err := ParseTilemap(rows)
	require.NoError(t, err)
	assert.Equal(t, 5, m.Width)
	assert.Equal(t, 3, m.Height)
	assert.Equal(t, TerrainMagma, m.Get(Pos(3, 1)))
	assert.True(t, m.Walkable(Pos(1, 1)))
	assert.False(t, m.Walkable(Pos(3, 1)))
	assert.Equal(t, TerrainRock, m.Get(Pos(-1, 0)), "off-map reads as rock")
	assert.Equal(t, rows, m.Rows())
}

func TestParseTilemapErrors(t *testing.T) {
	_, err := ParseTilemap(nil)
	assert.Error(t, err)
	_, err = ParseTilemap([]string{"...", ".."})
	assert.Error(t, err)
	_, err = ParseTilemap([]string{".x."})
	assert.Error(t, err)
}

func TestStampWalls(t *testing.T) {
	m, err := ParseTilemap([]string{
		"#.~",
		"...",
	})
	require.NoError(t, err)
	g, err := NewBitGrid(arena.New("test", 8), m.Width, m.Height)
	require.NoError(t, err)

	m.StampWalls(g)
	assert.True(t, g.Get(Pos(0, 0)))
	assert.True(t, g.Get(Pos(2, 0)))
	assert.Equal(t, 2, g.Count())
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := SmallTestConfig()
	a := Generate(cfg)
	b := Generate(cfg)
	assert.Equal(t, a.Tiles, b.Tiles)

	for x := 0; x < cfg.Width; x++ {
		assert.Equal(t, TerrainRock, a.Get(Pos(x, 0)))
		assert.Equal(t, TerrainRock, a.Get(Pos(x, cfg.Height-1)))
	}
	for y := 0; y < cfg.Height; y++ {
		assert.Equal(t, TerrainRock, a.Get(Pos(0, y)))
		assert.Equal(t, TerrainRock, a.Get(Pos(cfg.Width-1, y)))
	}

	counts := TerrainCounts(a)
	assert.Equal(t, cfg.Width*cfg.Height, counts[TerrainFloor]+counts[TerrainRock]+counts[TerrainMagma])
}

func TestPlaceSites(t *testing.T) {
	m := NewTilemap(12, 12)
	for i := 0; i < 12; i++ {
		m.Set(Pos(i, 0), TerrainRock)
		m.Set(Pos(i, 11), TerrainRock)
		m.Set(Pos(0, i), TerrainRock)
		m.Set(Pos(11, i), TerrainRock)
	}
	taken := []TilePosition{Pos(5, 5)}

	sites := PlaceSites(m, 4, 3, taken, 7)
	require.Len(t, sites, 4)
	for i, s := range sites {
		assert.True(t, m.Walkable(s))
		assert.GreaterOrEqual(t, s.ManhattanDistance(taken[0]), 3)
		for _, o := range sites[i+1:] {
			assert.GreaterOrEqual(t, s.ManhattanDistance(o), 3)
		}
	}
	assert.Equal(t, sites, PlaceSites(m, 4, 3, taken, 7))
}

func TestNearestFloor(t *testing.T) {
	m, err := ParseTilemap([]string{
		"#####",
		"#.#.#",
		"#####",
	})
	require.NoError(t, err)

	p, ok := NearestFloor(m, Pos(2, 1), nil)
	require.True(t, ok)
	assert.Equal(t, 1, p.ManhattanDistance(Pos(2, 1)))

	p, ok = NearestFloor(m, Pos(2, 1), []TilePosition{Pos(1, 1)})
	require.True(t, ok)
	assert.Equal(t, Pos(3, 1), p)

	_, ok = NearestFloor(m, Pos(2, 1), []TilePosition{Pos(1, 1), Pos(3, 1)})
	assert.False(t, ok)
}
