package engine

import (
	"github.com/talgya/mini-colony/internal/agents"
)

// updateNeeds runs one needs period: oxygen drops, morale rises for those
// who relaxed since the last period and drops for everyone else.
func (s *Simulation) updateNeeds() {
	var oxygen, morale, n int
	for id, b := range s.Brains {
		if b == nil {
			continue
		}
		status, _, ok := s.Colony.Character(id)
		if !ok {
			continue
		}
		before, low := status.Oxygen, status.Demoralized(s.Tuning)
		status.UpdateNeeds(b.ConsumeRelaxed())
		if status.Oxygen == 0 && before > 0 {
			s.Stats.Suffocated++
			s.addEvent(id, CategoryNeeds, status.Name+" ran out of oxygen")
		}
		if !low && status.Demoralized(s.Tuning) {
			s.addEvent(id, CategoryNeeds, status.Name+" is demoralized")
		}
		oxygen += int(status.Oxygen)
		morale += int(status.Morale)
		n++
	}
	if n > 0 {
		s.Stats.AvgOxygen = float32(oxygen) / float32(n)
		s.Stats.AvgMorale = float32(morale) / float32(n)
	}
}

// Needs returns a copy of a character's status.
func (s *Simulation) Needs(id int) (agents.CharacterStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, _, ok := s.Colony.Character(id)
	if !ok {
		return agents.CharacterStatus{}, false
	}
	return *status, true
}
