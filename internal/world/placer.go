// Site placement: finds open floor for stations, piles and characters when a
// scenario does not pin their positions.
package world

import (
	"math/rand"
	"sort"
)

// PlaceSites picks up to count floor tiles, preferring roomy spots and keeping
// every pick at least minDist (Manhattan) from the others and from taken.
// The result is sorted by desirability, best first, and is deterministic for a
// given seed.
func PlaceSites(m *Tilemap, count, minDist int, taken []TilePosition, seed int64) []TilePosition {
	rng := rand.New(rand.NewSource(seed + 200))

	type scored struct {
		pos   TilePosition
		score float64
	}
	var candidates []scored

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			pos := TilePosition{X: x, Y: y}
			if !m.Walkable(pos) {
				continue
			}
			// Jitter breaks ties between equally open tiles.
			s := siteScore(m, pos) + rng.Float64()*0.1
			if s > 0 {
				candidates = append(candidates, scored{pos, s})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var sites []TilePosition
	for _, c := range candidates {
		if len(sites) >= count {
			break
		}
		if tooClose(c.pos, sites, minDist) || tooClose(c.pos, taken, minDist) {
			continue
		}
		sites = append(sites, c.pos)
	}
	return sites
}

// siteScore counts walkable tiles within two steps. A tile with no walkable
// neighbour scores zero so nothing is placed in a sealed pocket.
func siteScore(m *Tilemap, pos TilePosition) float64 {
	neighbours := 0
	for _, d := range Directions {
		if m.Walkable(pos.Add(d)) {
			neighbours++
		}
	}
	if neighbours == 0 {
		return 0
	}
	open := 0
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			if m.Walkable(TilePosition{X: pos.X + dx, Y: pos.Y + dy}) {
				open++
			}
		}
	}
	return float64(open)
}

// NearestFloor returns the walkable tile closest to pos that is not in taken,
// scanning outward ring by ring. ok is false if the map has no free floor.
func NearestFloor(m *Tilemap, pos TilePosition, taken []TilePosition) (TilePosition, bool) {
	maxR := m.Width + m.Height
	for r := 0; r <= maxR; r++ {
		for dy := -r; dy <= r; dy++ {
			dx := r - abs(dy)
			for _, x := range [2]int{pos.X - dx, pos.X + dx} {
				p := TilePosition{X: x, Y: pos.Y + dy}
				if m.Walkable(p) && !contains(taken, p) {
					return p, true
				}
				if dx == 0 {
					break
				}
			}
		}
	}
	return TilePosition{}, false
}

func tooClose(pos TilePosition, existing []TilePosition, minDist int) bool {
	for _, e := range existing {
		if pos.ManhattanDistance(e) < minDist {
			return true
		}
	}
	return false
}

func contains(list []TilePosition, p TilePosition) bool {
	for _, e := range list {
		if e == p {
			return true
		}
	}
	return false
}
