// Job-station production: stations with an operator beside them and enough
// input accumulate work and turn input into output.
package engine

import (
	"fmt"

	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/world"
)

// work runs one production step at every manned station.
func (s *Simulation) work(r *TickReport) {
	type output struct {
		pos  world.TilePosition
		job  economy.JobKind
		res  economy.ResourceKind
		made uint8
	}
	var made []output

	s.Colony.JobStations(func(pos world.TilePosition, st *economy.JobStation, pile *economy.Stockpile) bool {
		if !s.manned(st.Kind, pos) {
			return true
		}
		if n := st.Work(pile); n > 0 {
			d, _ := st.Kind.Details()
			made = append(made, output{pos: pos, job: st.Kind, res: d.Output, made: n})
		}
		return true
	})

	for _, o := range made {
		r.Produced[o.res] += int(o.made)
		s.Stats.Produced[o.res] += uint64(o.made)
		s.addEvent(-1, CategoryProduction, fmt.Sprintf("%s at %v produced %d %s", o.job, o.pos, o.made, o.res))
	}
}

// manned reports whether a worker of job stands next to (or on) pos.
func (s *Simulation) manned(job economy.JobKind, pos world.TilePosition) bool {
	for _, w := range s.workers {
		if w.job == job && w.pos.ManhattanDistance(pos) < 2 {
			return true
		}
	}
	return false
}
