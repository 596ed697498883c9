// Simulation ties the colony systems together and runs them each tick.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/arena"
	"github.com/talgya/mini-colony/internal/broker"
	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/world"
)

// ErrUnknownAgent is returned for a brain index with no character.
var ErrUnknownAgent = errors.New("unknown agent")

// ErrOccupied is returned when something solid already stands on a tile.
var ErrOccupied = errors.New("tile occupied")

// Config holds the tick schedule and memory budget.
type Config struct {
	MoveEvery    uint64 `mapstructure:"move_every" yaml:"move_every" json:"move_every" validate:"min=1"`
	NeedsEvery   uint64 `mapstructure:"needs_every" yaml:"needs_every" json:"needs_every" validate:"min=1"`
	ReportEvery  uint64 `mapstructure:"report_every" yaml:"report_every" json:"report_every"`
	FrameWords   int    `mapstructure:"frame_words" yaml:"frame_words" json:"frame_words" validate:"min=1024"`
	TempWords    int    `mapstructure:"temp_words" yaml:"temp_words" json:"temp_words" validate:"min=256"`
	HaulCapacity int    `mapstructure:"haul_capacity" yaml:"haul_capacity" json:"haul_capacity" validate:"min=1"`
	EventLog     int    `mapstructure:"event_log" yaml:"event_log" json:"event_log" validate:"min=1"`
}

// DefaultConfig returns the stock schedule.
func DefaultConfig() Config {
	return Config{
		MoveEvery:    3,
		NeedsEvery:   100,
		ReportEvery:  TicksPerMinute,
		FrameWords:   1 << 16,
		TempWords:    1 << 15,
		HaulCapacity: 64,
		EventLog:     1000,
	}
}

// Observer receives a report after every tick. The metrics collector
// implements it.
type Observer interface {
	ObserveTick(r TickReport)
}

// TickReport summarises one tick.
type TickReport struct {
	Tick       uint64
	Duration   time.Duration
	Outcomes   [agents.OutcomeReset + 1]int
	Produced   [economy.NumResources]int
	Moves      int
	Blocked    int
	Collected  int
	OpenHauls  int
	Characters int
	Stations   int
	Piles      int
	FrameUsed  int
	FramePeak  int
	TempPeak   int
}

// SimStats tracks aggregate colony statistics since start.
type SimStats struct {
	Delivered  uint64                       `json:"delivered"`
	Produced   [economy.NumResources]uint64 `json:"produced"`
	Abandoned  uint64                       `json:"abandoned"`
	Resets     uint64                       `json:"resets"`
	Suffocated uint64                       `json:"suffocated"`
	AvgOxygen  float32                      `json:"avg_oxygen"`
	AvgMorale  float32                      `json:"avg_morale"`
}

// Simulation holds the complete colony state. Tick and the read methods
// lock it, so observers may call in from other goroutines. The lock is
// exclusive even for reads: ark queries write to the world's lock state.
type Simulation struct {
	mu sync.Mutex

	Config   Config
	Map      *world.Tilemap
	Colony   *colony.Colony
	Brains   []*agents.Brain // Indexed by CharacterStatus.Brain
	Hauls    *broker.Broker[agents.HaulDescription]
	Tuning   agents.Tuning
	Spawner  *agents.Spawner
	Observer Observer
	LastTick uint64
	Stats    SimStats

	frame   *arena.Arena
	workers []worker
	events  *eventLog
}

// worker is a character standing at a station this tick.
type worker struct {
	job economy.JobKind
	pos world.TilePosition
}

// NewSimulation creates an empty colony on m.
func NewSimulation(cfg Config, m *world.Tilemap, tuning agents.Tuning, limits colony.Limits, seed int64) (*Simulation, error) {
	wallWords := m.Height * ((m.Width + 31) / 32)
	if cfg.FrameWords < cfg.TempWords+wallWords {
		return nil, fmt.Errorf("frame arena of %d words cannot hold %d temp words plus a %dx%d grid", cfg.FrameWords, cfg.TempWords, m.Width, m.Height)
	}
	if cfg.MoveEvery == 0 || cfg.NeedsEvery == 0 {
		return nil, errors.New("move_every and needs_every must be positive")
	}
	slog.Info("colony created",
		"map", fmt.Sprintf("%dx%d", m.Width, m.Height),
		"frame", humanize.IBytes(uint64(cfg.FrameWords)*4),
		"temp", humanize.IBytes(uint64(cfg.TempWords)*4),
		"hauls", cfg.HaulCapacity,
	)
	return &Simulation{
		Config:  cfg,
		Map:     m,
		Colony:  colony.New(limits),
		Hauls:   broker.New[agents.HaulDescription](cfg.HaulCapacity),
		Tuning:  tuning,
		Spawner: agents.NewSpawner(seed),
		frame:   arena.New("frame", cfg.FrameWords),
		events:  newEventLog(cfg.EventLog),
	}, nil
}

// AddCharacter spawns a character at pos with a fresh brain. An empty name
// is generated.
func (s *Simulation) AddCharacter(pos world.TilePosition, name string, occ agents.Occupation) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Map.Walkable(pos) {
		return 0, fmt.Errorf("character at %v: tile is not floor", pos)
	}
	if s.Colony.Occupied(pos) {
		return 0, fmt.Errorf("character at %v: %w", pos, ErrOccupied)
	}
	status := s.Spawner.Spawn(name)
	held := economy.Stockpile{}
	for _, r := range [...]economy.ResourceKind{economy.ResourceMagma, economy.ResourceEnergy, economy.ResourceOxygen} {
		held = held.WithCapacity(r, s.Tuning.CarryCapacity)
	}
	if err := s.addCharacter(pos, status, held, agents.NewBrain(occ, s.Tuning)); err != nil {
		return 0, err
	}
	slog.Info("character arrived", "agent", status.Brain, "name", status.Name, "at", pos, "occupation", occ)
	return status.Brain, nil
}

func (s *Simulation) addCharacter(pos world.TilePosition, status agents.CharacterStatus, held economy.Stockpile, b *agents.Brain) error {
	if err := s.Colony.AddCharacter(pos, status, held); err != nil {
		return err
	}
	for len(s.Brains) <= status.Brain {
		s.Brains = append(s.Brains, nil)
	}
	s.Brains[status.Brain] = b
	return nil
}

// AddStation builds a job station at pos with its starting stockpile.
func (s *Simulation) AddStation(pos world.TilePosition, job economy.JobKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := job.Details(); !ok {
		return fmt.Errorf("station at %v: no recipe for %s", pos, job)
	}
	if !s.Map.InBounds(pos) {
		return fmt.Errorf("station at %v: off the map", pos)
	}
	if s.Colony.Occupied(pos) {
		return fmt.Errorf("station at %v: %w", pos, ErrOccupied)
	}
	return s.Colony.AddStation(pos, economy.JobStation{Kind: job}, economy.NewStationStockpile(job))
}

// AddPile drops a loose pile of amount res at pos.
func (s *Simulation) AddPile(pos world.TilePosition, res economy.ResourceKind, amount uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Map.InBounds(pos) {
		return fmt.Errorf("pile at %v: off the map", pos)
	}
	return s.Colony.SpawnPile(pos, economy.Stockpile{}.WithResource(res, amount, false))
}

// SetOccupation changes what a character does once its current goals run out.
func (s *Simulation) SetOccupation(id int, occ agents.Occupation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.brain(id)
	if b == nil {
		return fmt.Errorf("%w: %d", ErrUnknownAgent, id)
	}
	if occ.Kind == agents.OccupationOperator {
		if _, ok := occ.Job.Details(); !ok {
			return fmt.Errorf("occupation %s: no such job", occ)
		}
	}
	old := b.Occupation
	b.Occupation = occ
	s.addEvent(id, CategoryAdmin, fmt.Sprintf("occupation changed from %s to %s", old, occ))
	return nil
}

func (s *Simulation) brain(id int) *agents.Brain {
	if id < 0 || id >= len(s.Brains) {
		return nil
	}
	return s.Brains[id]
}

func (s *Simulation) addEvent(agent int, category, desc string) {
	s.events.add(Event{Tick: s.LastTick, Agent: agent, Category: category, Description: desc})
}

// Tick runs one whole tick: rebuild walls, think, move, needs, work,
// garbage collection, report.
func (s *Simulation) Tick(tick uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	s.LastTick = tick
	var r TickReport
	r.Tick = tick

	s.frame.Reset()
	temp, err := s.frame.Sub("temp", s.Config.TempWords)
	if err != nil {
		return fmt.Errorf("tick %d: %w", tick, err)
	}
	walls, err := world.NewBitGrid(s.frame, s.Map.Width, s.Map.Height)
	if err != nil {
		return fmt.Errorf("tick %d: walls: %w", tick, err)
	}
	s.Map.StampWalls(walls)
	s.Colony.StampColliders(walls)

	s.think(tick, walls, temp, &r)
	s.recordWorkers()

	if tick%s.Config.MoveEvery == 0 {
		s.move(walls, &r)
	}
	if tick%s.Config.NeedsEvery == 0 {
		s.updateNeeds()
	}
	if tick%s.Config.MoveEvery != 0 {
		s.work(&r)
	}
	r.Collected = s.Colony.CollectEmptyPiles()

	r.Duration = time.Since(start)
	r.OpenHauls = s.Hauls.Len()
	r.Characters, r.Stations, r.Piles = s.Colony.Counts()
	r.FrameUsed, r.FramePeak, r.TempPeak = s.frame.Used(), s.frame.Peak(), temp.Peak()
	if s.Observer != nil {
		s.Observer.ObserveTick(r)
	}
	if s.Config.ReportEvery > 0 && tick%s.Config.ReportEvery == 0 {
		s.report(tick, r)
	}
	return nil
}

func (s *Simulation) think(tick uint64, walls *world.BitGrid, temp *arena.Arena, r *TickReport) {
	for id, b := range s.Brains {
		if b == nil {
			continue
		}
		pos, ok := s.Colony.CharacterPosition(id)
		if !ok {
			continue
		}
		res := b.UpdateGoals(id, pos, tick, s.Colony, s.Hauls, walls, temp)
		temp.Reset()
		r.Outcomes[res.Outcome]++

		switch {
		case res.Outcome == agents.OutcomeReset:
			s.Stats.Resets++
			s.addEvent(id, CategoryPlanner, fmt.Sprintf("lost track while doing %s, starting over", res.Goal))
		case res.Outcome == agents.OutcomeAbandoned:
			s.Stats.Abandoned++
			s.addEvent(id, CategoryPlanner, fmt.Sprintf("gave up on %s", res.Goal))
		case res.Outcome == agents.OutcomeFinished && res.Goal == agents.GoalHaul:
			s.Stats.Delivered++
			s.addEvent(id, CategoryHaul, "delivered a haul")
		}
	}
}

func (s *Simulation) recordWorkers() {
	s.workers = s.workers[:0]
	for id, b := range s.Brains {
		if b == nil {
			continue
		}
		job, ok := b.CurrentJob()
		if !ok {
			continue
		}
		if pos, ok := s.Colony.CharacterPosition(id); ok {
			s.workers = append(s.workers, worker{job: job, pos: pos})
		}
	}
}

func (s *Simulation) report(tick uint64, r TickReport) {
	slog.Info("colony report",
		"tick", humanize.Comma(int64(tick)),
		"time", SimTime(tick),
		"characters", r.Characters,
		"stations", r.Stations,
		"piles", r.Piles,
		"open_hauls", r.OpenHauls,
		"delivered", s.Stats.Delivered,
		"energy", s.Stats.Produced[economy.ResourceEnergy],
		"oxygen", s.Stats.Produced[economy.ResourceOxygen],
		"avg_oxygen", fmt.Sprintf("%.2f", s.Stats.AvgOxygen),
		"avg_morale", fmt.Sprintf("%.2f", s.Stats.AvgMorale),
		"frame_peak", humanize.IBytes(uint64(r.FramePeak)*4),
	)
}
