package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/talgya/mini-colony/internal/api"
	"github.com/talgya/mini-colony/internal/config"
	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/metrics"
	"github.com/talgya/mini-colony/internal/persistence"
)

func newRunCommand() *cobra.Command {
	var (
		fresh    bool
		snapshot string
		speed    float64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the colony in real time with the HTTP API and autosave",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, cfg, fresh, snapshot, speed)
		},
	}
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Ignore the saved colony and start the scenario over")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", `Resume from a snapshot id, or "latest"`)
	cmd.Flags().Float64Var(&speed, "speed", 1, "Initial speed multiplier (0 starts paused)")
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, c *config.Config, fresh bool, snapshot string, speed float64) error {
	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(c.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("database dir: %w", err)
		}
	}
	db, err := persistence.Open(c.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", c.Database.Path)

	// ── Colony ────────────────────────────────────────────────────────
	sim, err := loadColony(db, c, fresh, snapshot)
	if err != nil {
		return err
	}
	start := sim.Status().Tick

	// ── Metrics ───────────────────────────────────────────────────────
	reg := metrics.NewRegistry()
	collector := metrics.NewCollector()
	if err := collector.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	sim.Observer = collector

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(start)
	if err := eng.SetSpeed(speed); err != nil {
		return err
	}
	eng.OnTick = func(tick uint64) {
		if err := sim.Tick(tick); err != nil {
			slog.Error("tick failed", "tick", tick, "error", err)
		}
	}
	eng.AutosaveEvery = c.Database.AutosaveEvery
	eng.OnAutosave = func(tick uint64) {
		if err := save(db, sim, c); err != nil {
			slog.Error("autosave failed", "tick", tick, "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if c.Server.AdminToken == "" {
		slog.Warn("COLONY_SERVER_ADMIN_TOKEN not set, admin POST endpoints are disabled")
	}
	srv := api.NewServer(sim, eng, c.Server)
	srv.DB = db
	srv.Registry = reg
	srv.KeepSnapshots = c.Database.KeepSnapshots

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	srvErr := make(chan error, 1)
	go func() {
		err := srv.Run(ctx, c.Server.Addr)
		if err != nil {
			slog.Error("HTTP server error", "error", err)
		}
		srvErr <- err
		cancel()
	}()

	// ── Start ─────────────────────────────────────────────────────────
	out := cmd.OutOrStdout()
	st := sim.Status()
	fmt.Fprintf(out, "\nColony is alive: %d characters, %d stations on a %dx%d map.\n",
		st.Characters, st.Stations, st.Width, st.Height)
	fmt.Fprintf(out, "API: http://%s/api/v1/status\n", c.Server.Addr)
	if start > 0 {
		fmt.Fprintf(out, "Resuming from tick %d (%s)\n", start, engine.SimTime(start))
	}
	fmt.Fprintln(out, "Starting simulation... (Ctrl+C to stop)")

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	// Final save on shutdown.
	slog.Info("final save...")
	if err := save(db, sim, c); err != nil {
		slog.Error("final save failed", "error", err)
	}
	fmt.Fprintln(out, "Simulation stopped. Colony saved.")
	return <-srvErr
}

// loadColony resumes the saved colony (or a snapshot) unless fresh is set,
// and builds the scenario otherwise.
func loadColony(db *persistence.DB, c *config.Config, fresh bool, snapshot string) (*engine.Simulation, error) {
	sc, err := loadScenario(c.Scenario)
	if err != nil {
		return nil, err
	}
	restore := func(st engine.State, from string) (*engine.Simulation, error) {
		sim, err := engine.Restore(c.Sim, st, c.Tuning, c.Limits, sc.Seed)
		if err != nil {
			return nil, fmt.Errorf("restore from %s: %w", from, err)
		}
		slog.Info("colony restored", "from", from, "tick", st.Tick, "characters", len(st.Characters))
		return sim, nil
	}

	switch {
	case snapshot == "latest":
		st, info, err := db.LatestSnapshot()
		if err != nil {
			return nil, err
		}
		return restore(st, "snapshot "+info.ID.String())
	case snapshot != "":
		id, err := uuid.Parse(snapshot)
		if err != nil {
			return nil, fmt.Errorf("snapshot id: %w", err)
		}
		st, err := db.LoadSnapshot(id)
		if err != nil {
			return nil, err
		}
		return restore(st, "snapshot "+id.String())
	case !fresh:
		st, err := db.LoadState()
		if err == nil {
			return restore(st, "database")
		}
		if !errors.Is(err, persistence.ErrNoState) {
			return nil, err
		}
	}

	sim, err := sc.Build(c.Sim, c.Tuning, c.Limits)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	// Save straight away so a crash before the first autosave can resume.
	if err := save(db, sim, c); err != nil {
		slog.Error("initial save failed", "error", err)
	}
	return sim, nil
}

// save writes the colony tables, the new events and a snapshot.
func save(db *persistence.DB, sim *engine.Simulation, c *config.Config) error {
	st := sim.Export()
	if err := db.SaveState(st); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	last, err := db.LastEventSeq()
	if err != nil {
		return fmt.Errorf("last event: %w", err)
	}
	if err := db.SaveEvents(sim.EventsSince(last, c.Sim.EventLog)); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if _, err := db.SaveSnapshot(st, c.Database.KeepSnapshots); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
