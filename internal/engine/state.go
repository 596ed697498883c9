package engine

import (
	"fmt"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/broker"
	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/world"
)

// State is everything needed to resume a colony. Per-tick scratch (walls,
// arenas, workers) is rebuilt and never saved.
type State struct {
	Tick       uint64           `json:"tick"`
	Map        *world.Tilemap   `json:"map"`
	NextBrain  int              `json:"next_brain"`
	Characters []CharacterState `json:"characters"`
	Stations   []StationView    `json:"stations"`
	Piles      []PileView       `json:"piles"`
	Hauls      []HaulView       `json:"hauls"`
	NextHaulID broker.ID        `json:"next_haul_id"`
	NextEvent  uint64           `json:"next_event"`
	Stats      SimStats         `json:"stats"`
}

// CharacterState is one character plus the brain driving it.
type CharacterState struct {
	Position   world.TilePosition     `json:"position"`
	Status     agents.CharacterStatus `json:"status"`
	Held       economy.Stockpile      `json:"held"`
	Occupation agents.Occupation      `json:"occupation"`
	Goals      []agents.Goal          `json:"goals"`
	IdleTicks  uint32                 `json:"idle_ticks"`
	HasRelaxed bool                   `json:"has_relaxed"`
}

// Export captures the colony state.
func (s *Simulation) Export() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Tick:       s.LastTick,
		Map:        s.Map,
		NextBrain:  s.Spawner.NextBrain(),
		NextHaulID: s.Hauls.NextID(),
		NextEvent:  s.events.next,
		Stats:      s.Stats,
	}
	for id, b := range s.Brains {
		if b == nil {
			continue
		}
		status, held, ok := s.Colony.Character(id)
		if !ok {
			continue
		}
		pos, _ := s.Colony.CharacterPosition(id)
		st.Characters = append(st.Characters, CharacterState{
			Position:   pos,
			Status:     *status,
			Held:       *held,
			Occupation: b.Occupation,
			Goals:      b.Goals(),
			IdleTicks:  b.IdleTicks(),
			HasRelaxed: b.HasRelaxed(),
		})
	}
	s.Colony.JobStations(func(pos world.TilePosition, js *economy.JobStation, pile *economy.Stockpile) bool {
		st.Stations = append(st.Stations, StationView{Position: pos, Kind: js.Kind, WorkInvested: js.WorkInvested, Stockpile: *pile})
		return true
	})
	s.Colony.LoosePiles(func(pos world.TilePosition, pile *economy.Stockpile) bool {
		st.Piles = append(st.Piles, PileView{Position: pos, Stockpile: *pile})
		return true
	})
	for id, h := range s.Hauls.All() {
		st.Hauls = append(st.Hauls, HaulView{ID: id, Haul: h})
	}
	return st
}

// Restore rebuilds a simulation from a saved state.
func Restore(cfg Config, st State, tuning agents.Tuning, limits colony.Limits, seed int64) (*Simulation, error) {
	if st.Map == nil {
		return nil, fmt.Errorf("restore: state has no map")
	}
	s, err := NewSimulation(cfg, st.Map, tuning, limits, seed)
	if err != nil {
		return nil, err
	}
	s.LastTick = st.Tick
	s.Stats = st.Stats

	for _, c := range st.Characters {
		b := agents.NewBrain(c.Occupation, tuning)
		if err := b.Restore(c.Goals, c.IdleTicks, c.HasRelaxed); err != nil {
			return nil, fmt.Errorf("restore character %d: %w", c.Status.Brain, err)
		}
		if err := s.addCharacter(c.Position, c.Status, c.Held, b); err != nil {
			return nil, fmt.Errorf("restore character %d: %w", c.Status.Brain, err)
		}
	}
	s.Spawner.SetNextBrain(max(st.NextBrain, len(s.Brains)))

	for _, v := range st.Stations {
		if err := s.Colony.AddStation(v.Position, economy.JobStation{Kind: v.Kind, WorkInvested: v.WorkInvested}, v.Stockpile); err != nil {
			return nil, fmt.Errorf("restore station at %v: %w", v.Position, err)
		}
	}
	for _, v := range st.Piles {
		if err := s.Colony.SpawnPile(v.Position, v.Stockpile); err != nil {
			return nil, fmt.Errorf("restore pile at %v: %w", v.Position, err)
		}
	}
	for _, h := range st.Hauls {
		if err := s.Hauls.Restore(h.ID, h.Haul); err != nil {
			return nil, fmt.Errorf("restore haul %d: %w", h.ID, err)
		}
	}
	s.Hauls.SetNextID(st.NextHaulID)
	s.events.resume(st.NextEvent)
	return s, nil
}
