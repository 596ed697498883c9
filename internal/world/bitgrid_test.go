package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/arena"
)

func TestBitGridSetGet(t *testing.T) {
	a := arena.New("test", 64)
	g, err := NewBitGrid(a, 40, 3)
	require.NoError(t, err)
	assert.Equal(t, 6, a.Used(), "two words per row for width 40")

	g.Set(Pos(0, 0), true)
	g.Set(Pos(31, 1), true)
	g.Set(Pos(32, 1), true)
	g.Set(Pos(39, 2), true)

	assert.True(t, g.Get(Pos(0, 0)))
	assert.True(t, g.Get(Pos(31, 1)))
	assert.True(t, g.Get(Pos(32, 1)))
	assert.True(t, g.Get(Pos(39, 2)))
	assert.False(t, g.Get(Pos(1, 0)))
	assert.False(t, g.Get(Pos(32, 0)))
	assert.Equal(t, 4, g.Count())

	g.Set(Pos(31, 1), false)
	assert.False(t, g.Get(Pos(31, 1)))
	assert.True(t, g.Get(Pos(32, 1)))

	g.Clear()
	assert.Zero(t, g.Count())
}

func TestBitGridStartsCleared(t *testing.T) {
	a := arena.New("test", 16)
	g, err := NewBitGrid(a, 8, 8)
	require.NoError(t, err)
	g.Set(Pos(3, 3), true)

	a.Reset()
	g, err = NewBitGrid(a, 8, 8)
	require.NoError(t, err)
	assert.False(t, g.Get(Pos(3, 3)))
}

func TestBitGridBounds(t *testing.T) {
	a := arena.New("test", 16)
	g, err := NewBitGrid(a, 5, 4)
	require.NoError(t, err)

	w, h := g.Size()
	assert.Equal(t, 5, w)
	assert.Equal(t, 4, h)
	assert.True(t, g.InBounds(Pos(4, 3)))
	assert.False(t, g.InBounds(Pos(5, 0)))
	assert.False(t, g.InBounds(Pos(0, -1)))
	assert.Panics(t, func() { g.Get(Pos(5, 0)) })
	assert.Panics(t, func() { g.Set(Pos(-1, 2), true) })
}

func TestBitGridExhausted(t *testing.T) {
	a := arena.New("tiny", 3)
	_, err := NewBitGrid(a, 10, 4)
	assert.ErrorIs(t, err, arena.ErrExhausted)
}
