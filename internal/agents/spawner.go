// Character spawning: names, starting needs and per-character temperament
// for colonists a scenario asks to be generated rather than listing by hand.
package agents

import (
	"math/rand"
)

// Spawner creates character statuses with seeded variation.
type Spawner struct {
	rng       *rand.Rand
	nextBrain int
	used      map[string]bool
}

// NewSpawner creates a spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:  rand.New(rand.NewSource(seed + 300)),
		used: make(map[string]bool),
	}
}

// SetNextBrain sets the next brain index to be issued (used when restoring).
func (s *Spawner) SetNextBrain(i int) {
	s.nextBrain = i
}

// NextBrain returns the brain index the next Spawn will use.
func (s *Spawner) NextBrain() int { return s.nextBrain }

// Spawn creates one character. An empty name is replaced by a generated one.
func (s *Spawner) Spawn(name string) CharacterStatus {
	brain := s.nextBrain
	s.nextBrain++
	if name == "" {
		name = s.generateName()
	}
	s.used[name] = true

	c := NewCharacterStatus(brain, name)
	// Start slightly short of full so needs periods differ between colonists.
	c.Oxygen = MaxOxygen - uint8(s.rng.Intn(3))
	c.Morale = MaxMorale - uint8(s.rng.Intn(2))

	// Temperament: some colonists tire faster but recover faster too.
	if s.rng.Float32() < 0.3 {
		c.MoraleDepletion += 2
		c.RelaxIncrement += 2
	}
	return c
}

func (s *Spawner) generateName() string {
	for i := 0; i < 16; i++ {
		name := firstNames[s.rng.Intn(len(firstNames))] + " " + lastNames[s.rng.Intn(len(lastNames))]
		if !s.used[name] {
			return name
		}
	}
	return firstNames[s.rng.Intn(len(firstNames))] + " " + lastNames[s.rng.Intn(len(lastNames))] + " II"
}

// Name pools for procedural generation.
var firstNames = []string{
	"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
	"Halvard", "Ivan", "Jasper", "Kael", "Leif", "Magnus", "Nils",
	"Astrid", "Brenna", "Calla", "Daria", "Elara", "Freya", "Greta",
	"Helene", "Iris", "Juno", "Kira", "Lena", "Mira", "Nessa",
}

var lastNames = []string{
	"Voss", "Ashford", "Dunmore", "Stormcrow", "Hearthstone", "Millward",
	"Copperfield", "Deepwell", "Brightwater", "Redforge", "Windholm",
	"Embercroft", "Holloway", "Farrow", "Thatcher", "Caldwell", "Mercer",
}
