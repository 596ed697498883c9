package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestStepCommand(t *testing.T) {
	out, err := execute(t, "step", "--ticks", "120", "--map")
	require.NoError(t, err)
	assert.Contains(t, out, "starter-cave after 120 ticks")
	assert.Contains(t, out, "energy produced")
	assert.Contains(t, out, "hauler")
	assert.Contains(t, out, "########################")
}

func TestPathCommand(t *testing.T) {
	out, err := execute(t, "path", "--from", "1,1", "--to", "5,1")
	require.NoError(t, err)
	assert.Contains(t, out, "(1,1) -> (5,1): 4 steps RRRR")
	assert.Contains(t, out, "#.++++")
}

func TestPathCommandErrors(t *testing.T) {
	_, err := execute(t, "path", "--from", "1,1")
	assert.Error(t, err)

	_, err = execute(t, "path", "--from", "one", "--to", "5,1")
	assert.Error(t, err)

	// Off the map.
	_, err = execute(t, "path", "--from", "1,1", "--to", "30,30")
	assert.Error(t, err)
}

func TestScenarioFlag(t *testing.T) {
	_, err := execute(t, "step", "--ticks", "1", "--scenario", "does-not-exist.yaml")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "does-not-exist.yaml"))
}
