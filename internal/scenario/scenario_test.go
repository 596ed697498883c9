package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/world"
)

func TestDefaultScenario(t *testing.T) {
	sc, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "starter-cave", sc.Name)
	require.Len(t, sc.Characters, 3)
	assert.Equal(t, agents.Operator(economy.JobEnergyGenerator), sc.Characters[0].Occupation)
	assert.Equal(t, agents.Hauler(), sc.Characters[2].Occupation)
	assert.Equal(t, economy.ResourceMagma, sc.Piles[0].Resource)
	require.NotNil(t, sc.Stations[0].At)
	assert.Equal(t, world.Pos(8, 3), *sc.Stations[0].At)

	sim, err := sc.Build(engine.DefaultConfig(), agents.DefaultTuning(), colony.DefaultLimits())
	require.NoError(t, err)
	st := sim.Status()
	assert.Equal(t, 4, st.Characters)
	assert.Equal(t, 2, st.Stations)
	assert.Equal(t, 2, st.Piles)
	assert.Equal(t, 24, st.Width)

	seen := map[world.TilePosition]bool{}
	for _, a := range sim.Agents() {
		assert.False(t, seen[a.Position], "two characters on %v", a.Position)
		seen[a.Position] = true
		assert.True(t, sim.Map.Walkable(a.Position))
	}
	ona, ok := sim.Agent(0)
	require.True(t, ok)
	assert.Equal(t, "Ona Deepwell", ona.Name)
	assert.Equal(t, world.Pos(7, 3), ona.Position)
}

func TestDefaultScenarioRuns(t *testing.T) {
	sc, err := Default()
	require.NoError(t, err)
	sim, err := sc.Build(engine.DefaultConfig(), agents.DefaultTuning(), colony.DefaultLimits())
	require.NoError(t, err)

	for tick := uint64(1); tick <= 300; tick++ {
		require.NoError(t, sim.Tick(tick))
	}
	assert.Equal(t, uint64(300), sim.Status().Tick)
}

func TestGeneratedScenario(t *testing.T) {
	doc := []byte(`
name: generated
seed: 3
width: 32
height: 20
stations:
  - job: energy-generator
  - job: oxygen-generator
piles:
  - resource: magma
    amount: 10
characters:
  - count: 3
    occupation: hauler
`)
	sc, err := Parse(doc)
	require.NoError(t, err)

	a, err := sc.Build(engine.DefaultConfig(), agents.DefaultTuning(), colony.DefaultLimits())
	require.NoError(t, err)
	b, err := sc.Build(engine.DefaultConfig(), agents.DefaultTuning(), colony.DefaultLimits())
	require.NoError(t, err)

	assert.Equal(t, a.RenderMap(), b.RenderMap(), "same seed, same colony")
	assert.Equal(t, 3, a.Status().Characters)
	stations := a.Stations()
	require.Len(t, stations, 2)
	assert.GreaterOrEqual(t, stations[0].Position.ManhattanDistance(stations[1].Position), stationSpacing)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"no name":      "width: 10\nheight: 10\n",
		"no map":       "name: x\n",
		"bad job":      "name: x\nwidth: 10\nheight: 10\nstations:\n  - job: smelter\n",
		"job none":     "name: x\nwidth: 10\nheight: 10\nstations:\n  - job: none\n",
		"empty pile":   "name: x\nwidth: 10\nheight: 10\npiles:\n  - resource: magma\n    amount: 0\n",
		"bad job name": "name: x\nwidth: 10\nheight: 10\ncharacters:\n  - occupation: operator:mining\n",
		"not yaml":     "name: [",
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "room.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: room
layout:
  - "#####"
  - "#...#"
  - "#####"
characters:
  - name: solo
    at: {x: 2, y: 1}
`), 0o644))

	sc, err := Load(path)
	require.NoError(t, err)
	sim, err := sc.Build(engine.DefaultConfig(), agents.DefaultTuning(), colony.DefaultLimits())
	require.NoError(t, err)
	a, ok := sim.Agent(0)
	require.True(t, ok)
	assert.Equal(t, agents.Idle(), a.Occupation)
	assert.Equal(t, world.Pos(2, 1), a.Position)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
