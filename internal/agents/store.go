package agents

import (
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/world"
)

// Store is the slice of the component store the planner works through.
// Pointers handed out stay valid only for the duration of the call or
// callback that produced them.
type Store interface {
	// Character returns the status and held stockpile of the character
	// driven by the given brain.
	Character(brain int) (*CharacterStatus, *economy.Stockpile, bool)

	// Stockpiles visits loose piles and station stockpiles, never
	// characters. Returning false stops the walk.
	Stockpiles(fn func(pos world.TilePosition, pile *economy.Stockpile) bool)

	// JobStations visits every station with its stockpile.
	JobStations(fn func(pos world.TilePosition, st *economy.JobStation, pile *economy.Stockpile) bool)

	// SpawnPile drops a new loose pile. It fails when the pile table is full.
	SpawnPile(pos world.TilePosition, pile economy.Stockpile) error
}
