// Command colonysim runs the colony simulation.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/config"
	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/scenario"
)

var (
	// Global flags
	configPath   string
	scenarioPath string

	// Loaded before any subcommand runs.
	cfg *config.Config
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand creates the root command for the CLI.
func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "colonysim",
		Short: "Tick-based colony simulation",
		Long: `colonysim simulates a small underground colony: operators man job
stations, haulers carry resources where they are requested, and everyone
keeps an eye on their oxygen.

Examples:
  colonysim run --config colony.yaml
  colonysim step --ticks 3000 --map
  colonysim path --from 7,3 --to 18,8`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if scenarioPath != "" {
				loaded.Scenario = scenarioPath
			}
			cfg = loaded
			setupLogging(cfg.Logging, os.Stderr)
			return nil
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default: colony.yaml in . or ./configs)")
	rootCmd.PersistentFlags().StringVar(&scenarioPath, "scenario", "",
		"Scenario file (overrides the config; default: built-in starter cave)")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newStepCommand())
	rootCmd.AddCommand(newPathCommand())
	return rootCmd
}

// setupLogging installs the default slog logger.
func setupLogging(lc config.LoggingConfig, w io.Writer) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadScenario returns the configured scenario or the built-in one.
func loadScenario(path string) (*scenario.Scenario, error) {
	if path == "" {
		return scenario.Default()
	}
	return scenario.Load(path)
}

// buildColony creates a fresh simulation from the configured scenario.
func buildColony(c *config.Config) (*engine.Simulation, *scenario.Scenario, error) {
	sc, err := loadScenario(c.Scenario)
	if err != nil {
		return nil, nil, err
	}
	sim, err := sc.Build(c.Sim, c.Tuning, c.Limits)
	if err != nil {
		return nil, nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	return sim, sc, nil
}

// occupationCounts tallies characters per occupation, for summaries.
func occupationCounts(list []engine.AgentView) map[agents.Occupation]int {
	out := make(map[agents.Occupation]int)
	for _, a := range list {
		out[a.Occupation]++
	}
	return out
}
