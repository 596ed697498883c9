package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepRunsCallbacks(t *testing.T) {
	e := NewEngine(0)
	e.AutosaveEvery = 2
	var ticks, saves []uint64
	e.OnTick = func(tick uint64) { ticks = append(ticks, tick) }
	e.OnAutosave = func(tick uint64) { saves = append(saves, tick) }

	for i := 0; i < 4; i++ {
		e.Step()
	}

	assert.Equal(t, []uint64{1, 2, 3, 4}, ticks)
	assert.Equal(t, []uint64{2, 4}, saves)
	assert.Equal(t, uint64(4), e.Tick())
}

func TestEngineResumesAfterTick(t *testing.T) {
	e := NewEngine(41)
	var got uint64
	e.OnTick = func(tick uint64) { got = tick }
	e.Step()
	assert.Equal(t, uint64(42), got)
}

func TestSetSpeed(t *testing.T) {
	e := NewEngine(0)
	require.NoError(t, e.SetSpeed(0))
	assert.Zero(t, e.Speed())
	assert.Error(t, e.SetSpeed(-1))
	assert.Zero(t, e.Speed())
}

func TestRunStopsOnCancel(t *testing.T) {
	e := NewEngine(0)
	e.Interval = time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err := e.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, e.Tick(), uint64(0))
}

func TestRunPaused(t *testing.T) {
	e := NewEngine(0)
	e.Interval = time.Millisecond
	require.NoError(t, e.SetSpeed(0))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_ = e.Run(ctx)

	assert.Zero(t, e.Tick())
}

func TestSimTime(t *testing.T) {
	assert.Equal(t, "Sol 1, 00:00:00", SimTime(0))
	assert.Equal(t, "Sol 1, 00:01:05", SimTime(TicksPerMinute+5*TicksPerSecond))
	assert.Equal(t, "Sol 2, 03:00:00", SimTime(TicksPerSol+3*TicksPerHour))
}

func TestEventLogRing(t *testing.T) {
	l := newEventLog(3)
	for i := 0; i < 5; i++ {
		l.add(Event{Tick: uint64(i)})
	}

	seqs := func(events []Event) []uint64 {
		var out []uint64
		for _, e := range events {
			out = append(out, e.Seq)
		}
		return out
	}
	assert.Equal(t, []uint64{3, 4, 5}, seqs(l.since(0, 10)))
	assert.Equal(t, []uint64{3, 4}, seqs(l.since(0, 2)))
	assert.Equal(t, []uint64{5}, seqs(l.since(4, 10)))
	assert.Empty(t, l.since(5, 10))
	assert.Equal(t, []uint64{4, 5}, seqs(l.recent(2)))
	assert.Equal(t, []uint64{3, 4, 5}, seqs(l.recent(10)))

	resumed := newEventLog(3)
	resumed.resume(6)
	assert.Empty(t, resumed.since(0, 10))
	resumed.add(Event{})
	assert.Equal(t, []uint64{6}, seqs(resumed.since(0, 10)))
	l.resume(100)
	assert.Equal(t, []uint64{5}, seqs(l.recent(1)), "a non-empty log keeps its numbering")
}
