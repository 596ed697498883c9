package colony

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/arena"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/world"
)

func magma(n uint8) economy.Stockpile {
	return economy.Stockpile{}.WithResource(economy.ResourceMagma, n, false)
}

func TestCharacterLookup(t *testing.T) {
	c := New(DefaultLimits())
	require.NoError(t, c.AddCharacter(world.Pos(1, 2), agents.NewCharacterStatus(1, "b"), economy.Stockpile{}))
	require.NoError(t, c.AddCharacter(world.Pos(3, 4), agents.NewCharacterStatus(0, "a"), magma(2)))

	status, held, ok := c.Character(0)
	require.True(t, ok)
	assert.Equal(t, "a", status.Name)
	assert.Equal(t, uint8(2), held.Amount(economy.ResourceMagma))

	status.Oxygen = 4
	again, _, _ := c.Character(0)
	assert.Equal(t, uint8(4), again.Oxygen, "pointers reach the stored component")

	require.True(t, c.MoveCharacter(1, world.Pos(2, 2)))
	pos, ok := c.CharacterPosition(1)
	require.True(t, ok)
	assert.Equal(t, world.Pos(2, 2), pos)

	_, _, ok = c.Character(5)
	assert.False(t, ok)
	assert.Equal(t, 2, c.Brains())
}

func TestDuplicateBrain(t *testing.T) {
	c := New(DefaultLimits())
	require.NoError(t, c.AddCharacter(world.Pos(0, 0), agents.NewCharacterStatus(0, "a"), economy.Stockpile{}))
	err := c.AddCharacter(world.Pos(1, 0), agents.NewCharacterStatus(0, "b"), economy.Stockpile{})
	assert.ErrorIs(t, err, ErrDuplicateBrain)
}

func TestTablesFill(t *testing.T) {
	c := New(Limits{Characters: 1, Stations: 1, Piles: 2})

	require.NoError(t, c.AddCharacter(world.Pos(0, 0), agents.NewCharacterStatus(0, "a"), economy.Stockpile{}))
	assert.ErrorIs(t, c.AddCharacter(world.Pos(0, 0), agents.NewCharacterStatus(1, "b"), economy.Stockpile{}), ErrTableFull)

	st := economy.JobStation{Kind: economy.JobEnergyGenerator}
	require.NoError(t, c.AddStation(world.Pos(2, 2), st, economy.NewStationStockpile(st.Kind)))
	assert.ErrorIs(t, c.AddStation(world.Pos(3, 2), st, economy.Stockpile{}), ErrTableFull)

	require.NoError(t, c.SpawnPile(world.Pos(1, 1), magma(1)))
	require.NoError(t, c.SpawnPile(world.Pos(1, 1), magma(1)))
	assert.ErrorIs(t, c.SpawnPile(world.Pos(1, 1), magma(1)), ErrTableFull)
}

func TestStockpilesSkipCharacters(t *testing.T) {
	c := New(DefaultLimits())
	require.NoError(t, c.AddCharacter(world.Pos(0, 0), agents.NewCharacterStatus(0, "a"), magma(3)))
	st := economy.JobStation{Kind: economy.JobEnergyGenerator}
	require.NoError(t, c.AddStation(world.Pos(2, 2), st, economy.NewStationStockpile(st.Kind)))
	require.NoError(t, c.SpawnPile(world.Pos(1, 1), magma(5)))

	var seen []world.TilePosition
	c.Stockpiles(func(pos world.TilePosition, _ *economy.Stockpile) bool {
		seen = append(seen, pos)
		return true
	})
	assert.Equal(t, []world.TilePosition{world.Pos(1, 1), world.Pos(2, 2)}, seen, "loose piles first")

	var first []world.TilePosition
	c.Stockpiles(func(pos world.TilePosition, _ *economy.Stockpile) bool {
		first = append(first, pos)
		return false
	})
	assert.Len(t, first, 1)

	stations := 0
	c.JobStations(func(pos world.TilePosition, s *economy.JobStation, pile *economy.Stockpile) bool {
		stations++
		assert.Equal(t, economy.JobEnergyGenerator, s.Kind)
		pile.Add(economy.ResourceMagma, 1)
		return true
	})
	assert.Equal(t, 1, stations)
	c.JobStations(func(_ world.TilePosition, s *economy.JobStation, pile *economy.Stockpile) bool {
		assert.True(t, s.Resourced(pile))
		return true
	})
}

func TestStampColliders(t *testing.T) {
	c := New(DefaultLimits())
	require.NoError(t, c.AddCharacter(world.Pos(0, 0), agents.NewCharacterStatus(0, "a"), economy.Stockpile{}))
	require.NoError(t, c.AddCharacter(world.Pos(9, 9), agents.NewCharacterStatus(1, "off-grid"), economy.Stockpile{}))
	require.NoError(t, c.AddStation(world.Pos(2, 1), economy.JobStation{Kind: economy.JobOxygenGenerator}, economy.Stockpile{}))
	require.NoError(t, c.SpawnPile(world.Pos(1, 1), magma(1)))

	g, err := world.NewBitGrid(arena.New("walls", 16), 4, 3)
	require.NoError(t, err)
	c.StampColliders(g)

	assert.True(t, g.Get(world.Pos(0, 0)))
	assert.True(t, g.Get(world.Pos(2, 1)))
	assert.False(t, g.Get(world.Pos(1, 1)), "piles do not block")
	assert.Equal(t, 2, g.Count())
}

func TestOccupied(t *testing.T) {
	c := New(DefaultLimits())
	require.NoError(t, c.AddCharacter(world.Pos(0, 0), agents.NewCharacterStatus(0, "a"), economy.Stockpile{}))
	require.NoError(t, c.AddStation(world.Pos(2, 1), economy.JobStation{Kind: economy.JobOxygenGenerator}, economy.Stockpile{}))
	require.NoError(t, c.SpawnPile(world.Pos(1, 1), magma(1)))

	assert.True(t, c.Occupied(world.Pos(0, 0)))
	assert.True(t, c.Occupied(world.Pos(2, 1)))
	assert.False(t, c.Occupied(world.Pos(1, 1)), "piles do not block")
	assert.False(t, c.Occupied(world.Pos(3, 2)))

	c.MoveCharacter(0, world.Pos(3, 2))
	assert.False(t, c.Occupied(world.Pos(0, 0)))
	assert.True(t, c.Occupied(world.Pos(3, 2)))
}

func TestCollectEmptyPiles(t *testing.T) {
	c := New(DefaultLimits())
	require.NoError(t, c.SpawnPile(world.Pos(0, 0), magma(1)))
	require.NoError(t, c.SpawnPile(world.Pos(1, 0), magma(0)))
	require.NoError(t, c.SpawnPile(world.Pos(2, 0), magma(2)))

	c.LoosePiles(func(pos world.TilePosition, pile *economy.Stockpile) bool {
		if pos == world.Pos(2, 0) {
			pile.Take(economy.ResourceMagma, 2)
		}
		return true
	})

	assert.Equal(t, 2, c.CollectEmptyPiles())
	_, _, piles := c.Counts()
	assert.Equal(t, 1, piles)
	c.LoosePiles(func(pos world.TilePosition, _ *economy.Stockpile) bool {
		assert.Equal(t, world.Pos(0, 0), pos)
		return true
	})
	assert.Zero(t, c.CollectEmptyPiles())
}
