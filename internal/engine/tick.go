// Package engine provides the fixed-step tick loop and the Simulation it drives.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Tick schedule. One tick is a tenth of a colony second at speed 1.
const (
	TicksPerSecond = 10
	TicksPerMinute = 60 * TicksPerSecond
	TicksPerHour   = 60 * TicksPerMinute
	TicksPerSol    = 24 * TicksPerHour
)

// Longest backlog worked off in one wake-up; anything older is dropped so a
// stalled host does not spiral.
const maxCatchUp = 8

// frameInterval is how often Run wakes to check the accumulator.
const frameInterval = 10 * time.Millisecond

// Engine drives the simulation forward in whole ticks.
type Engine struct {
	mu       sync.Mutex
	tick     uint64        // Last tick run (monotonic, never resets)
	speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Base tick interval (default 100ms)

	// Callbacks, populated during setup.
	OnTick        func(tick uint64) // Every tick
	OnAutosave    func(tick uint64) // Every AutosaveEvery ticks
	AutosaveEvery uint64
}

// NewEngine creates an engine with default settings, resuming after tick.
func NewEngine(tick uint64) *Engine {
	return &Engine{
		tick:     tick,
		speed:    1.0,
		Interval: time.Second / TicksPerSecond,
	}
}

// Tick returns the last tick run.
func (e *Engine) Tick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Speed returns the current multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the multiplier. Zero pauses; negative values are rejected.
func (e *Engine) SetSpeed(speed float64) error {
	if speed < 0 {
		return fmt.Errorf("speed %v must not be negative", speed)
	}
	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()
	slog.Info("speed changed", "speed", speed)
	return nil
}

// Run accumulates wall time and runs whole ticks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("simulation engine started", "tick", e.Tick(), "speed", e.Speed(), "interval", e.Interval)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	last := time.Now()
	var acc time.Duration
	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "tick", e.Tick())
			return ctx.Err()
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now

			speed := e.Speed()
			if speed <= 0 {
				acc = 0
				continue
			}
			acc += time.Duration(float64(elapsed) * speed)

			n := 0
			for acc >= e.Interval && n < maxCatchUp {
				acc -= e.Interval
				e.Step()
				n++
			}
			if n == maxCatchUp && acc >= e.Interval {
				slog.Warn("falling behind, dropping backlog", "tick", e.Tick(), "backlog", acc)
				acc = 0
			}
		}
	}
}

// Step advances the simulation by exactly one tick.
func (e *Engine) Step() {
	e.mu.Lock()
	e.tick++
	tick := e.tick
	e.mu.Unlock()

	if e.OnTick != nil {
		e.OnTick(tick)
	}
	if e.AutosaveEvery > 0 && tick%e.AutosaveEvery == 0 && e.OnAutosave != nil {
		e.OnAutosave(tick)
	}
}

// SimTime returns a human-readable colony clock for a tick number.
func SimTime(tick uint64) string {
	sol := tick/TicksPerSol + 1
	rest := tick % TicksPerSol
	hours := rest / TicksPerHour
	minutes := rest % TicksPerHour / TicksPerMinute
	seconds := rest % TicksPerMinute / TicksPerSecond
	return fmt.Sprintf("Sol %d, %02d:%02d:%02d", sol, hours, minutes, seconds)
}
