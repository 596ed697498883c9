package engine

import (
	"log/slog"

	"github.com/talgya/mini-colony/internal/world"
)

// move advances every path follower one step. A blocked step side-steps
// clockwise when that tile is free; otherwise the character waits. walls is
// kept current so later movers see earlier ones.
func (s *Simulation) move(walls *world.BitGrid, r *TickReport) {
	for id, b := range s.Brains {
		if b == nil {
			continue
		}
		d, ok := b.NextMoveDirection()
		if !ok {
			continue
		}
		pos, ok := s.Colony.CharacterPosition(id)
		if !ok {
			continue
		}

		next := pos.Add(d)
		if !free(walls, next) {
			side := pos.Add(d.Clockwise())
			if !free(walls, side) {
				r.Blocked++
				continue
			}
			slog.Debug("side-stepping", "agent", id, "blocked", next, "to", side)
			next = side
		}

		walls.Set(pos, false)
		walls.Set(next, true)
		s.Colony.MoveCharacter(id, next)
		r.Moves++
	}
}

func free(walls *world.BitGrid, pos world.TilePosition) bool {
	return walls.InBounds(pos) && !walls.Get(pos)
}
