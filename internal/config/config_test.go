package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/engine"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "colony.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, engine.DefaultConfig(), cfg.Sim)
	assert.Equal(t, agents.DefaultTuning(), cfg.Tuning)
	assert.Equal(t, colony.DefaultLimits(), cfg.Limits)
	assert.Equal(t, "localhost:8080", cfg.Server.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.StreamInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, ValidateConfig(cfg))
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
scenario: caves/deep.yaml
sim:
  move_every: 2
tuning:
  carry_capacity: 3
limits:
  characters: 10
server:
  stream_interval: 1s
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "caves/deep.yaml", cfg.Scenario)
	assert.Equal(t, uint64(2), cfg.Sim.MoveEvery)
	assert.Equal(t, uint64(100), cfg.Sim.NeedsEvery, "unset keys keep defaults")
	assert.Equal(t, uint8(3), cfg.Tuning.CarryCapacity)
	assert.Equal(t, 10, cfg.Limits.Characters)
	assert.Equal(t, time.Second, cfg.Server.StreamInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "sim:\n  move_every: 2\n")
	t.Setenv("COLONY_SIM_MOVE_EVERY", "5")
	t.Setenv("COLONY_SERVER_ADMIN_TOKEN", "sesame")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), cfg.Sim.MoveEvery)
	assert.Equal(t, "sesame", cfg.Server.AdminToken)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"log format":   "logging:\n  format: xml\n",
		"zero move":    "sim:\n  move_every: 0\n",
		"temp > frame": "sim:\n  frame_words: 2048\n  temp_words: 4096\n",
		"low oxygen":   "tuning:\n  low_oxygen: 12\n",
		"no limit":     "limits:\n  piles: 0\n",
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidationMessage(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "loud"
	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.Logging.Level")
	assert.Contains(t, err.Error(), "oneof")
}
