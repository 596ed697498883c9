// Package colony is the component store: characters, job stations and loose
// piles as ark entities, with the lookups the planner and the tick pass need.
package colony

import (
	"errors"
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/world"
)

// ErrTableFull is returned when an entity table has reached its limit.
var ErrTableFull = errors.New("entity table full")

// ErrDuplicateBrain is returned when two characters claim the same brain index.
var ErrDuplicateBrain = errors.New("brain index already in use")

// Position places an entity on the tile grid.
type Position struct {
	At world.TilePosition
}

// Collider marks entities that take part in the occupancy grid.
type Collider struct {
	Walkable bool
}

// Loose tags a stockpile lying on the floor, as opposed to one owned by a
// station or carried by a character.
type Loose struct{}

// Limits caps each entity table.
type Limits struct {
	Characters int `mapstructure:"characters" yaml:"characters" json:"characters" validate:"min=1"`
	Stations   int `mapstructure:"stations" yaml:"stations" json:"stations" validate:"min=1"`
	Piles      int `mapstructure:"piles" yaml:"piles" json:"piles" validate:"min=1"`
}

// DefaultLimits returns the stock table sizes.
func DefaultLimits() Limits {
	return Limits{Characters: 64, Stations: 32, Piles: 256}
}

// Colony owns the ark world and its mappers. It is not safe for concurrent
// use, and no entity may be created or removed from inside a visitor callback.
type Colony struct {
	world  *ecs.World
	limits Limits

	characters *ecs.Map4[Position, agents.CharacterStatus, economy.Stockpile, Collider]
	stations   *ecs.Map4[Position, economy.JobStation, economy.Stockpile, Collider]
	piles      *ecs.Map3[Position, economy.Stockpile, Loose]

	characterFilter *ecs.Filter4[Position, agents.CharacterStatus, economy.Stockpile, Collider]
	stationFilter   *ecs.Filter4[Position, economy.JobStation, economy.Stockpile, Collider]
	pileFilter      *ecs.Filter3[Position, economy.Stockpile, Loose]
	colliderFilter  *ecs.Filter2[Position, Collider]

	brains    []ecs.Entity // Indexed by CharacterStatus.Brain
	hasBrain  []bool
	nChars    int
	nStations int
	nPiles    int
}

var _ agents.Store = (*Colony)(nil)

// New creates an empty colony.
func New(limits Limits) *Colony {
	ecsWorld := ecs.NewWorld()
	w := &ecsWorld
	return &Colony{
		world:  w,
		limits: limits,

		characters: ecs.NewMap4[Position, agents.CharacterStatus, economy.Stockpile, Collider](w),
		stations:   ecs.NewMap4[Position, economy.JobStation, economy.Stockpile, Collider](w),
		piles:      ecs.NewMap3[Position, economy.Stockpile, Loose](w),

		characterFilter: ecs.NewFilter4[Position, agents.CharacterStatus, economy.Stockpile, Collider](w),
		stationFilter:   ecs.NewFilter4[Position, economy.JobStation, economy.Stockpile, Collider](w),
		pileFilter:      ecs.NewFilter3[Position, economy.Stockpile, Loose](w),
		colliderFilter:  ecs.NewFilter2[Position, Collider](w),
	}
}

// Limits returns the table sizes the colony was created with.
func (c *Colony) Limits() Limits { return c.limits }

// AddCharacter creates a character at pos. The status's Brain field selects
// the brain that will drive it.
func (c *Colony) AddCharacter(pos world.TilePosition, status agents.CharacterStatus, held economy.Stockpile) error {
	if c.nChars >= c.limits.Characters {
		return fmt.Errorf("%w: characters (%d)", ErrTableFull, c.limits.Characters)
	}
	i := status.Brain
	if i < 0 {
		return fmt.Errorf("character %q: negative brain index %d", status.Name, i)
	}
	if i < len(c.hasBrain) && c.hasBrain[i] {
		return fmt.Errorf("%w: %d", ErrDuplicateBrain, i)
	}
	for len(c.brains) <= i {
		c.brains = append(c.brains, ecs.Entity{})
		c.hasBrain = append(c.hasBrain, false)
	}
	e := c.characters.NewEntity(&Position{At: pos}, &status, &held, &Collider{Walkable: false})
	c.brains[i] = e
	c.hasBrain[i] = true
	c.nChars++
	return nil
}

// AddStation creates a job station at pos.
func (c *Colony) AddStation(pos world.TilePosition, st economy.JobStation, pile economy.Stockpile) error {
	if c.nStations >= c.limits.Stations {
		return fmt.Errorf("%w: stations (%d)", ErrTableFull, c.limits.Stations)
	}
	c.stations.NewEntity(&Position{At: pos}, &st, &pile, &Collider{Walkable: false})
	c.nStations++
	return nil
}

// SpawnPile drops a loose pile at pos.
func (c *Colony) SpawnPile(pos world.TilePosition, pile economy.Stockpile) error {
	if c.nPiles >= c.limits.Piles {
		return fmt.Errorf("%w: piles (%d)", ErrTableFull, c.limits.Piles)
	}
	c.piles.NewEntity(&Position{At: pos}, &pile, &Loose{})
	c.nPiles++
	return nil
}

func (c *Colony) entity(brain int) (ecs.Entity, bool) {
	if brain < 0 || brain >= len(c.brains) || !c.hasBrain[brain] {
		return ecs.Entity{}, false
	}
	e := c.brains[brain]
	if !c.world.Alive(e) {
		return ecs.Entity{}, false
	}
	return e, true
}

// Character returns the status and held stockpile of the character driven by brain.
func (c *Colony) Character(brain int) (*agents.CharacterStatus, *economy.Stockpile, bool) {
	e, ok := c.entity(brain)
	if !ok {
		return nil, nil, false
	}
	_, status, held, _ := c.characters.Get(e)
	return status, held, true
}

// CharacterPosition returns where the character driven by brain stands.
func (c *Colony) CharacterPosition(brain int) (world.TilePosition, bool) {
	e, ok := c.entity(brain)
	if !ok {
		return world.TilePosition{}, false
	}
	pos, _, _, _ := c.characters.Get(e)
	return pos.At, true
}

// MoveCharacter places the character driven by brain at pos.
func (c *Colony) MoveCharacter(brain int, pos world.TilePosition) bool {
	e, ok := c.entity(brain)
	if !ok {
		return false
	}
	p, _, _, _ := c.characters.Get(e)
	p.At = pos
	return true
}

// Characters visits every character in creation order of its archetype.
func (c *Colony) Characters(fn func(pos world.TilePosition, status *agents.CharacterStatus, held *economy.Stockpile) bool) {
	q := c.characterFilter.Query()
	for q.Next() {
		pos, status, held, _ := q.Get()
		if !fn(pos.At, status, held) {
			q.Close()
			return
		}
	}
}

// Stockpiles visits loose piles first, then station stockpiles.
func (c *Colony) Stockpiles(fn func(pos world.TilePosition, pile *economy.Stockpile) bool) {
	if !c.LoosePiles(fn) {
		return
	}
	q := c.stationFilter.Query()
	for q.Next() {
		pos, _, pile, _ := q.Get()
		if !fn(pos.At, pile) {
			q.Close()
			return
		}
	}
}

// LoosePiles visits piles on the floor. It returns false if fn stopped the walk.
func (c *Colony) LoosePiles(fn func(pos world.TilePosition, pile *economy.Stockpile) bool) bool {
	q := c.pileFilter.Query()
	for q.Next() {
		pos, pile, _ := q.Get()
		if !fn(pos.At, pile) {
			q.Close()
			return false
		}
	}
	return true
}

// JobStations visits every station with its stockpile.
func (c *Colony) JobStations(fn func(pos world.TilePosition, st *economy.JobStation, pile *economy.Stockpile) bool) {
	q := c.stationFilter.Query()
	for q.Next() {
		pos, st, pile, _ := q.Get()
		if !fn(pos.At, st, pile) {
			q.Close()
			return
		}
	}
}

// StampColliders sets every tile holding a non-walkable collider. Entities
// off the grid are skipped.
func (c *Colony) StampColliders(g *world.BitGrid) {
	q := c.colliderFilter.Query()
	for q.Next() {
		pos, col := q.Get()
		if !col.Walkable && g.InBounds(pos.At) {
			g.Set(pos.At, true)
		}
	}
}

// Occupied reports whether a non-walkable collider stands on pos.
func (c *Colony) Occupied(pos world.TilePosition) bool {
	q := c.colliderFilter.Query()
	for q.Next() {
		p, col := q.Get()
		if !col.Walkable && p.At == pos {
			q.Close()
			return true
		}
	}
	return false
}

// CollectEmptyPiles removes loose piles holding nothing and returns how many
// went away.
func (c *Colony) CollectEmptyPiles() int {
	var empty []ecs.Entity
	q := c.pileFilter.Query()
	for q.Next() {
		_, pile, _ := q.Get()
		if pile.IsEmpty() {
			empty = append(empty, q.Entity())
		}
	}
	for _, e := range empty {
		c.world.RemoveEntity(e)
	}
	c.nPiles -= len(empty)
	return len(empty)
}

// Counts returns the number of characters, stations and loose piles.
func (c *Colony) Counts() (characters, stations, piles int) {
	return c.nChars, c.nStations, c.nPiles
}

// Brains returns one past the highest brain index in use.
func (c *Colony) Brains() int { return len(c.brains) }
