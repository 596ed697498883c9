package engine

import (
	"fmt"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/arena"
	"github.com/talgya/mini-colony/internal/broker"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/pathfinding"
	"github.com/talgya/mini-colony/internal/world"
)

// Status is the colony overview served by the API.
type Status struct {
	Tick       uint64   `json:"tick"`
	Time       string   `json:"time"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Characters int      `json:"characters"`
	Stations   int      `json:"stations"`
	Piles      int      `json:"piles"`
	OpenHauls  int      `json:"open_hauls"`
	Stats      SimStats `json:"stats"`
}

// AgentView is one character with its planner state.
type AgentView struct {
	ID         int                `json:"id"`
	Name       string             `json:"name"`
	Position   world.TilePosition `json:"position"`
	Occupation agents.Occupation  `json:"occupation"`
	Oxygen     uint8              `json:"oxygen"`
	Morale     uint8              `json:"morale"`
	Held       economy.Stockpile  `json:"held"`
	Activity   string             `json:"activity"`
	Goals      []agents.Goal      `json:"goals"`
	IdleTicks  uint32             `json:"idle_ticks"`
}

// HaulView is one advertised haul request.
type HaulView struct {
	ID   broker.ID              `json:"id"`
	Haul agents.HaulDescription `json:"haul"`
}

// StationView is one job station.
type StationView struct {
	Position     world.TilePosition `json:"position"`
	Kind         economy.JobKind    `json:"kind"`
	WorkInvested uint8              `json:"work_invested"`
	Stockpile    economy.Stockpile  `json:"stockpile"`
}

// PileView is one loose pile.
type PileView struct {
	Position  world.TilePosition `json:"position"`
	Stockpile economy.Stockpile  `json:"stockpile"`
}

// Status returns the colony overview.
func (s *Simulation) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Tick:      s.LastTick,
		Time:      SimTime(s.LastTick),
		Width:     s.Map.Width,
		Height:    s.Map.Height,
		OpenHauls: s.Hauls.Len(),
		Stats:     s.Stats,
	}
	st.Characters, st.Stations, st.Piles = s.Colony.Counts()
	return st
}

// Agents lists every character by brain index.
func (s *Simulation) Agents() []AgentView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AgentView, 0, len(s.Brains))
	for id := range s.Brains {
		if v, ok := s.agentView(id); ok {
			out = append(out, v)
		}
	}
	return out
}

// Agent returns one character.
func (s *Simulation) Agent(id int) (AgentView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agentView(id)
}

func (s *Simulation) agentView(id int) (AgentView, bool) {
	b := s.brain(id)
	if b == nil {
		return AgentView{}, false
	}
	status, held, ok := s.Colony.Character(id)
	if !ok {
		return AgentView{}, false
	}
	pos, _ := s.Colony.CharacterPosition(id)
	v := AgentView{
		ID:         id,
		Name:       status.Name,
		Position:   pos,
		Occupation: b.Occupation,
		Oxygen:     status.Oxygen,
		Morale:     status.Morale,
		Held:       *held,
		Activity:   "idle",
		Goals:      b.Goals(),
		IdleTicks:  b.IdleTicks(),
	}
	if top, ok := b.Top(); ok {
		v.Activity = top.String()
	}
	return v, true
}

// HaulRequests lists the open haul requests.
func (s *Simulation) HaulRequests() []HaulView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HaulView, 0, s.Hauls.Len())
	for id, h := range s.Hauls.All() {
		out = append(out, HaulView{ID: id, Haul: h})
	}
	return out
}

// Stations lists the job stations.
func (s *Simulation) Stations() []StationView {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []StationView
	s.Colony.JobStations(func(pos world.TilePosition, st *economy.JobStation, pile *economy.Stockpile) bool {
		out = append(out, StationView{Position: pos, Kind: st.Kind, WorkInvested: st.WorkInvested, Stockpile: *pile})
		return true
	})
	return out
}

// Piles lists the loose piles.
func (s *Simulation) Piles() []PileView {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []PileView
	s.Colony.LoosePiles(func(pos world.TilePosition, pile *economy.Stockpile) bool {
		out = append(out, PileView{Position: pos, Stockpile: *pile})
		return true
	})
	return out
}

// Map glyphs drawn over the terrain.
const (
	glyphCharacter = '@'
	glyphEnergy    = 'E'
	glyphOxygen    = 'O'
	glyphPile      = '*'
)

// RenderMap draws the terrain with piles, stations and characters on top.
func (s *Simulation) RenderMap() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.Map.Rows()
	grid := make([][]byte, len(rows))
	for y, r := range rows {
		grid[y] = []byte(r)
	}
	put := func(p world.TilePosition, c byte) {
		if s.Map.InBounds(p) {
			grid[p.Y][p.X] = c
		}
	}
	s.Colony.LoosePiles(func(pos world.TilePosition, _ *economy.Stockpile) bool {
		put(pos, glyphPile)
		return true
	})
	s.Colony.JobStations(func(pos world.TilePosition, st *economy.JobStation, _ *economy.Stockpile) bool {
		if st.Kind == economy.JobOxygenGenerator {
			put(pos, glyphOxygen)
		} else {
			put(pos, glyphEnergy)
		}
		return true
	})
	s.Colony.Characters(func(pos world.TilePosition, _ *agents.CharacterStatus, _ *economy.Stockpile) bool {
		put(pos, glyphCharacter)
		return true
	})
	out := make([]string, len(grid))
	for y, r := range grid {
		out[y] = string(r)
	}
	return out
}

// EventsSince returns up to limit events newer than seq, oldest first.
func (s *Simulation) EventsSince(seq uint64, limit int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.since(seq, limit)
}

// RecentEvents returns the last n events, oldest first.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.recent(n)
}

// FindPath plans a path over the current terrain and colliders, as a
// planner would. A blocked destination is accepted and the path stops
// beside it.
func (s *Simulation) FindPath(from, to world.TilePosition) (pathfinding.Path, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := arena.New("query", s.Config.TempWords+s.Map.Height*((s.Map.Width+31)/32))
	walls, err := world.NewBitGrid(a, s.Map.Width, s.Map.Height)
	if err != nil {
		return pathfinding.Path{}, fmt.Errorf("walls: %w", err)
	}
	s.Map.StampWalls(walls)
	s.Colony.StampColliders(walls)
	if walls.InBounds(from) {
		walls.Set(from, false)
	}
	return pathfinding.FindPathTo(from, to, true, walls, a)
}
