package broker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	What   string
	Amount int
}

func TestNotifyRemoveRoundTrip(t *testing.T) {
	b := New[request](4)
	want := request{What: "magma", Amount: 3}

	id, err := b.Notify(want)
	require.NoError(t, err)
	assert.True(t, b.Check(id))

	got, ok := b.Remove(id)
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.False(t, b.Check(id))

	_, ok = b.Remove(id)
	assert.False(t, ok, "second claim fails")
}

func TestIDsAreNeverReused(t *testing.T) {
	b := New[int](2)
	first, err := b.Notify(1)
	require.NoError(t, err)
	_, ok := b.Remove(first)
	require.True(t, ok)

	second, err := b.Notify(2)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.False(t, b.Check(first))
}

func TestNotifyFullReturnsPayload(t *testing.T) {
	b := New[request](1)
	_, err := b.Notify(request{What: "a"})
	require.NoError(t, err)

	_, err = b.Notify(request{What: "b", Amount: 9})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFull))

	var full *FullError[request]
	require.True(t, errors.As(err, &full))
	assert.Equal(t, request{What: "b", Amount: 9}, full.Rejected)
	assert.Equal(t, 1, b.Len())
}

func TestGetEditsInPlace(t *testing.T) {
	b := New[request](2)
	id, err := b.Notify(request{What: "magma", Amount: 5})
	require.NoError(t, err)

	r, ok := b.Get(id)
	require.True(t, ok)
	r.Amount -= 2

	got, ok := b.Remove(id)
	require.True(t, ok)
	assert.Equal(t, 3, got.Amount)

	_, ok = b.Get(id)
	assert.False(t, ok)
}

func TestRemoveSwapsWithLast(t *testing.T) {
	b := New[int](4)
	ids := make([]ID, 0, 3)
	for i := 0; i < 3; i++ {
		id, err := b.Notify(i)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	_, ok := b.Remove(ids[0])
	require.True(t, ok)

	var order []int
	for _, v := range b.All() {
		order = append(order, v)
	}
	assert.Equal(t, []int{2, 1}, order)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 4, b.Cap())
}

func TestRestore(t *testing.T) {
	b := New[string](2)
	require.NoError(t, b.Restore(7, "x"))
	assert.Equal(t, ID(8), b.NextID())
	assert.ErrorIs(t, b.Restore(7, "y"), ErrDuplicateID)

	id, err := b.Notify("z")
	require.NoError(t, err)
	assert.Equal(t, ID(8), id)

	assert.ErrorIs(t, b.Restore(3, "w"), ErrFull)

	b.SetNextID(2)
	assert.Equal(t, ID(9), b.NextID(), "counter never moves backwards")
}
