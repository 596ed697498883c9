// Package scenario loads colony setups from YAML: the map, the stations,
// starting piles and the colonists with their occupations.
package scenario

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/world"
)

//go:embed default.yaml
var defaultScenario []byte

// Minimum Manhattan spacing between auto-placed stations.
const stationSpacing = 4

// Scenario is one colony setup. Positions left out are chosen on open floor.
type Scenario struct {
	Name   string   `yaml:"name" validate:"required"`
	Seed   int64    `yaml:"seed"`
	Width  int      `yaml:"width" validate:"omitempty,min=3,max=1024"`
	Height int      `yaml:"height" validate:"omitempty,min=3,max=1024"`
	Layout []string `yaml:"layout"`

	// Generation thresholds, used when Layout is empty.
	RockLevel  float64 `yaml:"rock_level" validate:"gte=0,lte=1"`
	MagmaLevel float64 `yaml:"magma_level" validate:"gte=0,lte=1"`

	Stations   []Station   `yaml:"stations" validate:"dive"`
	Piles      []Pile      `yaml:"piles" validate:"dive"`
	Characters []Character `yaml:"characters" validate:"dive"`
}

// Station places one job station.
type Station struct {
	Job economy.JobKind     `yaml:"job" validate:"required"`
	At  *world.TilePosition `yaml:"at"`
}

// Pile places one loose pile.
type Pile struct {
	Resource economy.ResourceKind `yaml:"resource" validate:"required"`
	Amount   uint8                `yaml:"amount" validate:"min=1"`
	At       *world.TilePosition  `yaml:"at"`
}

// Character places Count colonists (default one) with the same occupation.
// Names are generated when Name is empty or Count is above one.
type Character struct {
	Name       string              `yaml:"name"`
	Count      int                 `yaml:"count" validate:"gte=0,lte=256"`
	Occupation agents.Occupation   `yaml:"occupation"`
	At         *world.TilePosition `yaml:"at"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	sc, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Default returns the built-in scenario.
func Default() (*Scenario, error) {
	return Parse(defaultScenario)
}

// Parse decodes and validates a scenario document.
func Parse(raw []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("scenario yaml: %w", err)
	}
	if err := validator.New().Struct(&sc); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	if len(sc.Layout) == 0 && (sc.Width == 0 || sc.Height == 0) {
		return nil, fmt.Errorf("scenario %q: needs a layout or width and height", sc.Name)
	}
	return &sc, nil
}

// Tilemap builds the map: the layout if there is one, generated caves otherwise.
func (sc *Scenario) Tilemap() (*world.Tilemap, error) {
	if len(sc.Layout) > 0 {
		return world.ParseTilemap(sc.Layout)
	}
	cfg := world.DefaultGenConfig()
	cfg.Width, cfg.Height, cfg.Seed = sc.Width, sc.Height, sc.Seed
	if sc.RockLevel > 0 {
		cfg.RockLevel = sc.RockLevel
	}
	if sc.MagmaLevel > 0 {
		cfg.MagmaLvl = sc.MagmaLevel
	}
	m := world.Generate(cfg)
	counts := world.TerrainCounts(m)
	slog.Info("cave generated",
		"size", fmt.Sprintf("%dx%d", m.Width, m.Height),
		"floor", counts[world.TerrainFloor],
		"rock", counts[world.TerrainRock],
		"magma", counts[world.TerrainMagma],
	)
	return m, nil
}

// Build creates a simulation populated from the scenario.
func (sc *Scenario) Build(cfg engine.Config, tuning agents.Tuning, limits colony.Limits) (*engine.Simulation, error) {
	m, err := sc.Tilemap()
	if err != nil {
		return nil, err
	}
	sim, err := engine.NewSimulation(cfg, m, tuning, limits, sc.Seed)
	if err != nil {
		return nil, err
	}
	if err := sc.Populate(sim); err != nil {
		return nil, err
	}
	slog.Info("scenario loaded", "name", sc.Name, "stations", len(sc.Stations), "piles", len(sc.Piles))
	return sim, nil
}

// Populate adds the scenario's stations, piles and characters to sim.
func (sc *Scenario) Populate(sim *engine.Simulation) error {
	m := sim.Map
	var taken []world.TilePosition

	// Pinned stations first so auto-placed ones keep clear of them.
	for _, st := range sc.Stations {
		if st.At != nil {
			taken = append(taken, *st.At)
		}
	}
	for i, st := range sc.Stations {
		pos := st.At
		if pos == nil {
			sites := world.PlaceSites(m, 1, stationSpacing, taken, sc.Seed+int64(i))
			if len(sites) == 0 {
				return fmt.Errorf("station %d (%s): no room on the map", i, st.Job)
			}
			pos = &sites[0]
			taken = append(taken, *pos)
		}
		if err := sim.AddStation(*pos, st.Job); err != nil {
			return fmt.Errorf("station %d: %w", i, err)
		}
	}

	for i, p := range sc.Piles {
		pos, err := place(m, p.At, taken, sc.Seed+100+int64(i))
		if err != nil {
			return fmt.Errorf("pile %d (%s): %w", i, p.Resource, err)
		}
		if err := sim.AddPile(pos, p.Resource, p.Amount); err != nil {
			return fmt.Errorf("pile %d: %w", i, err)
		}
	}

	for i, c := range sc.Characters {
		n := max(c.Count, 1)
		for k := 0; k < n; k++ {
			pos, err := place(m, c.At, taken, sc.Seed+1000+int64(i*256+k))
			if err != nil {
				return fmt.Errorf("character %d: %w", i, err)
			}
			name := c.Name
			if n > 1 {
				name = ""
			}
			if _, err := sim.AddCharacter(pos, name, c.Occupation); err != nil {
				return fmt.Errorf("character %d: %w", i, err)
			}
			// Characters collide, so the next one needs another tile.
			taken = append(taken, pos)
		}
	}
	return nil
}

// place returns the nearest free floor to at, or a roomy random spot when at
// is nil.
func place(m *world.Tilemap, at *world.TilePosition, taken []world.TilePosition, seed int64) (world.TilePosition, error) {
	if at == nil {
		sites := world.PlaceSites(m, 1, 1, taken, seed)
		if len(sites) == 0 {
			return world.TilePosition{}, fmt.Errorf("no free floor")
		}
		return sites[0], nil
	}
	pos, ok := world.NearestFloor(m, *at, taken)
	if !ok {
		return world.TilePosition{}, fmt.Errorf("no free floor near %v", *at)
	}
	return pos, nil
}
