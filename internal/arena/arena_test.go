package arena

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocZeroesReusedMemory(t *testing.T) {
	a := New("test", 8)

	s, err := a.Alloc(4)
	require.NoError(t, err)
	for i := range s {
		s[i] = 0xFFFF
	}

	a.Reset()
	s, err = a.Alloc(4)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 0, 0, 0}, s)
}

func TestAllocExhausted(t *testing.T) {
	a := New("small", 4)

	_, err := a.Alloc(3)
	require.NoError(t, err)

	_, err = a.Alloc(2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExhausted))
	assert.Equal(t, 3, a.Used(), "failed allocation must not move the cursor")
}

func TestAllocSlicesCannotGrowIntoNeighbours(t *testing.T) {
	a := New("test", 8)
	first, err := a.Alloc(2)
	require.NoError(t, err)
	second, err := a.Alloc(2)
	require.NoError(t, err)

	grown := append(first, 7)
	assert.Len(t, grown, 3)
	assert.Equal(t, uint32(0), second[0])
	assert.Equal(t, 2, cap(second))
}

func TestMarkRelease(t *testing.T) {
	a := New("test", 16)
	_, err := a.Alloc(4)
	require.NoError(t, err)

	m := a.Mark()
	_, err = a.Alloc(10)
	require.NoError(t, err)
	assert.Equal(t, 14, a.Used())

	a.Release(m)
	assert.Equal(t, 4, a.Used())
	assert.Equal(t, 14, a.Peak())
}

func TestReleasePastCursorPanics(t *testing.T) {
	a := New("test", 4)
	assert.Panics(t, func() { a.Release(Mark(3)) })
}

func TestSubArena(t *testing.T) {
	frame := New("frame", 32)
	temp, err := frame.Sub("temp", 16)
	require.NoError(t, err)
	assert.Equal(t, 16, frame.Used())
	assert.Equal(t, 16, temp.Cap())

	_, err = temp.Alloc(16)
	require.NoError(t, err)
	_, err = temp.Alloc(1)
	assert.ErrorIs(t, err, ErrExhausted)

	temp.Reset()
	assert.Equal(t, 0, temp.Used())
	assert.Equal(t, 16, frame.Used(), "resetting a child leaves the parent alone")

	_, err = frame.Sub("too-big", 17)
	assert.ErrorIs(t, err, ErrExhausted)
}
