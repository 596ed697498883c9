package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/engine"
)

func TestObserveTick(t *testing.T) {
	c := NewCollector()
	reg := prometheus.NewRegistry()
	require.NoError(t, c.Register(reg))

	var r engine.TickReport
	r.Tick = 12
	r.Duration = 200 * time.Microsecond
	r.Outcomes[agents.OutcomeNone] = 5
	r.Outcomes[agents.OutcomeSubgoal] = 2
	r.Produced[economy.ResourceEnergy] = 3
	r.Moves, r.Blocked = 4, 1
	r.OpenHauls, r.Characters, r.Stations, r.Piles = 2, 3, 1, 6
	r.FrameUsed, r.FramePeak, r.TempPeak = 100, 150, 40

	c.ObserveTick(r)
	c.ObserveTick(r)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ticks))
	assert.Equal(t, 12.0, testutil.ToFloat64(c.lastTick))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.outcomes.WithLabelValues("subgoal")))
	assert.Equal(t, 6.0, testutil.ToFloat64(c.produced.WithLabelValues("energy")))
	assert.Equal(t, 8.0, testutil.ToFloat64(c.moves))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.blocked))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.characters))
	assert.Equal(t, 150.0, testutil.ToFloat64(c.arenaPeak.WithLabelValues("frame")))
	assert.Equal(t, 40.0, testutil.ToFloat64(c.arenaPeak.WithLabelValues("temp")))

	// "none" outcomes are not exported.
	assert.Equal(t, 1, testutil.CollectAndCount(c.outcomes))
	assert.Equal(t, 1, testutil.CollectAndCount(c.tickDuration))
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, NewCollector().Register(reg))
	assert.Error(t, NewCollector().Register(reg))
}
