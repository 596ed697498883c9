package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectionOffsets(t *testing.T) {
	origin := Pos(5, 5)
	assert.Equal(t, Pos(5, 4), origin.Add(Up))
	assert.Equal(t, Pos(5, 6), origin.Add(Down))
	assert.Equal(t, Pos(4, 5), origin.Add(Left))
	assert.Equal(t, Pos(6, 5), origin.Add(Right))
}

func TestDirectionReverseAndClockwise(t *testing.T) {
	for _, d := range Directions {
		assert.Equal(t, d, d.Reverse().Reverse())
		assert.Equal(t, Pos(0, 0), Pos(0, 0).Add(d).Add(d.Reverse()))
		assert.Equal(t, d, d.Clockwise().Clockwise().Clockwise().Clockwise())
	}
	assert.Equal(t, Right, Up.Clockwise())
	assert.Equal(t, Left, Down.Clockwise())
}

func TestParseDirection(t *testing.T) {
	for _, d := range Directions {
		got, ok := ParseDirection(d.String()[0])
		assert.True(t, ok)
		assert.Equal(t, d, got)
	}
	_, ok := ParseDirection('x')
	assert.False(t, ok)
}

func TestManhattanDistance(t *testing.T) {
	assert.Equal(t, 7, Pos(1, 2).ManhattanDistance(Pos(4, -2)))
	assert.Equal(t, 0, Pos(3, 3).ManhattanDistance(Pos(3, 3)))
}

func TestRectAroundClamps(t *testing.T) {
	r := RectAround(Pos(1, 8), 3, 10, 10)
	assert.Equal(t, Pos(0, 5), r.Min)
	assert.Equal(t, Pos(4, 9), r.Max)
	assert.Equal(t, 5, r.Width())
	assert.Equal(t, 5, r.Height())
	assert.True(t, r.Contains(Pos(0, 9)))
	assert.False(t, r.Contains(Pos(5, 9)))
}

func TestParsePos(t *testing.T) {
	for in, want := range map[string]TilePosition{
		"3,4":     Pos(3, 4),
		" 0, 12 ": Pos(0, 12),
		"(7,1)":   Pos(7, 1),
		"-1,2":    Pos(-1, 2),
	} {
		got, err := ParsePos(in)
		if assert.NoError(t, err, in) {
			assert.Equal(t, want, got, in)
		}
	}
	for _, bad := range []string{"", "3", "a,b", "1,2,3"} {
		_, err := ParsePos(bad)
		assert.Error(t, err, bad)
	}
}
