package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/economy"
)

func TestParseOccupation(t *testing.T) {
	for _, o := range []Occupation{Idle(), Hauler(), Operator(economy.JobEnergyGenerator), Operator(economy.JobOxygenGenerator)} {
		got, err := ParseOccupation(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}

	got, err := ParseOccupation(" Operator:Oxygen-Generator ")
	require.NoError(t, err)
	assert.Equal(t, Operator(economy.JobOxygenGenerator), got)

	for _, bad := range []string{"operator:none", "operator:mining", "miner"} {
		_, err := ParseOccupation(bad)
		assert.Error(t, err, bad)
	}
}

func TestUpdateNeedsSaturates(t *testing.T) {
	c := NewCharacterStatus(0, "a")
	c.Oxygen = 1
	c.OxygenDepletion = 3
	c.Morale = 9

	c.UpdateNeeds(true)
	assert.Equal(t, uint8(0), c.Oxygen)
	assert.Equal(t, uint8(MaxMorale), c.Morale)

	c.Morale = 1
	c.MoraleDepletion = 5
	c.UpdateNeeds(false)
	assert.Equal(t, uint8(0), c.Morale)
	assert.Equal(t, uint8(0), c.Oxygen)

	c.RelaxIncrement = 250
	c.Morale = 200
	c.UpdateNeeds(true)
	assert.Equal(t, uint8(MaxMorale), c.Morale)
}

func TestThresholds(t *testing.T) {
	tuning := DefaultTuning()
	c := NewCharacterStatus(0, "a")
	assert.False(t, c.Suffocating(tuning))
	assert.False(t, c.Demoralized(tuning))

	c.Oxygen = tuning.LowOxygen
	c.Morale = tuning.DemoralizedMorale
	assert.True(t, c.Suffocating(tuning))
	assert.True(t, c.Demoralized(tuning))
}

func TestGoalStack(t *testing.T) {
	var s GoalStack
	_, ok := s.Pop()
	assert.False(t, ok)
	assert.Nil(t, s.Top())

	require.True(t, s.Push(WorkGoal(economy.JobEnergyGenerator)))
	require.True(t, s.Push(RefillOxygenGoal()))
	assert.True(t, s.Contains(GoalRefillOxygen))
	assert.False(t, s.Contains(GoalHaul))

	s.Top().Walked = true
	g, ok := s.Pop()
	require.True(t, ok)
	assert.True(t, g.Walked, "Top edits in place")
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Goals())
}

func TestSpawnerDeterministic(t *testing.T) {
	a, b := NewSpawner(7), NewSpawner(7)
	for i := 0; i < 20; i++ {
		ca, cb := a.Spawn(""), b.Spawn("")
		assert.Equal(t, ca, cb)
		assert.Equal(t, i, ca.Brain)
		assert.NotEmpty(t, ca.Name)
		assert.GreaterOrEqual(t, ca.Oxygen, uint8(MaxOxygen-2))
		assert.LessOrEqual(t, ca.Morale, uint8(MaxMorale))
	}
	assert.Equal(t, 20, a.NextBrain())

	a.SetNextBrain(100)
	assert.Equal(t, "Ada", a.Spawn("Ada").Name)
	assert.Equal(t, 101, a.NextBrain())
}

func TestBrainRestore(t *testing.T) {
	b := NewBrain(Hauler(), DefaultTuning())
	goals := []Goal{HaulGoal(HaulDescription{Resource: economy.ResourceMagma, Amount: 1}), RefillOxygenGoal()}

	require.NoError(t, b.Restore(goals, 7, true))
	assert.Equal(t, goals, b.Goals())
	assert.Equal(t, uint32(7), b.IdleTicks())
	assert.True(t, b.HasRelaxed())

	assert.Error(t, b.Restore(make([]Goal, MaxGoalDepth+1), 0, false))
}
