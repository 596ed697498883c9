// Cave generation using layered simplex noise.
// Rock is wherever the density field is high; magma pools sit in a second,
// sparser field. A smoothing pass removes single-tile specks.
package world

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds terrain generation parameters.
type GenConfig struct {
	Width     int
	Height    int
	Seed      int64   // 0 = random
	RockLevel float64 // Density threshold for rock (0.0-1.0)
	MagmaLvl  float64 // Threshold in the magma field (0.0-1.0)
}

// DefaultGenConfig returns a medium cave.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:     64,
		Height:    48,
		RockLevel: 0.62,
		MagmaLvl:  0.80,
	}
}

// SmallTestConfig returns a tiny cave for tests.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:     16,
		Height:    12,
		Seed:      42,
		RockLevel: 0.65,
		MagmaLvl:  0.85,
	}
}

// Generate creates a tilemap. The outer ring is always rock.
func Generate(cfg GenConfig) *Tilemap {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	densityNoise := opensimplex.NewNormalized(seed)
	magmaNoise := opensimplex.NewNormalized(seed + 1)

	m := NewTilemap(cfg.Width, cfg.Height)
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			pos := TilePosition{X: x, Y: y}
			if x == 0 || y == 0 || x == cfg.Width-1 || y == cfg.Height-1 {
				m.Set(pos, TerrainRock)
				continue
			}
			density := octaveNoise(densityNoise, float64(x), float64(y), 4, 0.09, 0.5)
			magma := octaveNoise(magmaNoise, float64(x), float64(y), 2, 0.15, 0.5)
			switch {
			case density > cfg.RockLevel:
				m.Set(pos, TerrainRock)
			case magma > cfg.MagmaLvl:
				m.Set(pos, TerrainMagma)
			}
		}
	}

	smoothCaves(m)
	return m
}

// smoothCaves turns floor tiles enclosed on all four sides into rock and
// opens isolated rock specks. Both passes read the original map.
func smoothCaves(m *Tilemap) {
	var fill, open []TilePosition
	for y := 1; y < m.Height-1; y++ {
		for x := 1; x < m.Width-1; x++ {
			pos := TilePosition{X: x, Y: y}
			blocked := 0
			for _, d := range Directions {
				if !m.Walkable(pos.Add(d)) {
					blocked++
				}
			}
			switch t := m.Get(pos); {
			case t == TerrainFloor && blocked == 4:
				fill = append(fill, pos)
			case t == TerrainRock && blocked == 0:
				open = append(open, pos)
			}
		}
	}
	for _, p := range fill {
		m.Set(p, TerrainRock)
	}
	for _, p := range open {
		m.Set(p, TerrainFloor)
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(m *Tilemap) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, t := range m.Tiles {
		counts[t]++
	}
	return counts
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainFloor:
		return "Floor"
	case TerrainRock:
		return "Rock"
	case TerrainMagma:
		return "Magma"
	default:
		return "Unknown"
	}
}
