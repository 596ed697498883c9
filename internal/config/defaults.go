package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/engine"
)

// SetDefaults registers a default for every key, which also makes every key
// reachable through its environment variable.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("scenario", "")

	sim := engine.DefaultConfig()
	v.SetDefault("sim.move_every", sim.MoveEvery)
	v.SetDefault("sim.needs_every", sim.NeedsEvery)
	v.SetDefault("sim.report_every", sim.ReportEvery)
	v.SetDefault("sim.frame_words", sim.FrameWords)
	v.SetDefault("sim.temp_words", sim.TempWords)
	v.SetDefault("sim.haul_capacity", sim.HaulCapacity)
	v.SetDefault("sim.event_log", sim.EventLog)

	t := agents.DefaultTuning()
	v.SetDefault("tuning.max_haul_amount", t.MaxHaulAmount)
	v.SetDefault("tuning.wait_ticks", t.WaitTicks)
	v.SetDefault("tuning.carry_capacity", t.CarryCapacity)
	v.SetDefault("tuning.low_oxygen", t.LowOxygen)
	v.SetDefault("tuning.demoralized_morale", t.DemoralizedMorale)
	v.SetDefault("tuning.idle_relax_ticks", t.IdleRelaxTicks)
	v.SetDefault("tuning.relax_radius", t.RelaxRadius)

	l := colony.DefaultLimits()
	v.SetDefault("limits.characters", l.Characters)
	v.SetDefault("limits.stations", l.Stations)
	v.SetDefault("limits.piles", l.Piles)

	v.SetDefault("server.addr", "localhost:8080")
	v.SetDefault("server.admin_token", "")
	v.SetDefault("server.rate_limit", 2.0)
	v.SetDefault("server.burst", 5)
	v.SetDefault("server.stream_interval", 250*time.Millisecond)

	v.SetDefault("database.path", "colony.db")
	v.SetDefault("database.autosave_every", uint64(engine.TicksPerMinute))
	v.SetDefault("database.keep_snapshots", 5)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
