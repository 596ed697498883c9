package pathfinding

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/arena"
	"github.com/talgya/mini-colony/internal/world"
)

func gridFrom(t *testing.T, a *arena.Arena, w, h int, walls ...world.TilePosition) *world.BitGrid {
	t.Helper()
	g, err := world.NewBitGrid(a, w, h)
	require.NoError(t, err)
	for _, p := range walls {
		g.Set(p, true)
	}
	return g
}

func TestFindPathToFixture(t *testing.T) {
	a := arena.New("test", 1024)
	walls := gridFrom(t, a, 5, 4,
		world.Pos(1, 1), world.Pos(1, 2), world.Pos(3, 1), world.Pos(3, 2), world.Pos(4, 1))

	path, err := FindPathTo(world.Pos(0, 1), world.Pos(4, 2), false, walls, a)
	require.NoError(t, err)
	assert.Equal(t, 7, path.Len())
	assert.Equal(t, "DDRRRRU", path.String())
	assert.Equal(t, world.Pos(4, 2), path.End(world.Pos(0, 1)))
}

func TestFindPathToSelfIsEmpty(t *testing.T) {
	a := arena.New("test", 256)
	walls := gridFrom(t, a, 4, 4)
	path, err := FindPathTo(world.Pos(2, 2), world.Pos(2, 2), false, walls, a)
	require.NoError(t, err)
	assert.True(t, path.IsEmpty())
}

func TestFindPathToWallDestination(t *testing.T) {
	a := arena.New("test", 256)
	station := world.Pos(3, 0)
	walls := gridFrom(t, a, 4, 1, station)

	_, err := FindPathTo(world.Pos(0, 0), station, false, walls, a)
	assert.ErrorIs(t, err, ErrUnreachable)

	path, err := FindPathTo(world.Pos(0, 0), station, true, walls, a)
	require.NoError(t, err)
	assert.Equal(t, "RR", path.String(), "path stops next to the wall")

	path, err = FindPathTo(world.Pos(2, 0), station, true, walls, a)
	require.NoError(t, err)
	assert.True(t, path.IsEmpty(), "already adjacent")
}

func TestFindPathErrors(t *testing.T) {
	a := arena.New("test", 256)
	walls := gridFrom(t, a, 3, 3, world.Pos(1, 0), world.Pos(1, 1), world.Pos(1, 2))

	_, err := FindPathTo(world.Pos(0, 0), world.Pos(2, 2), false, walls, a)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.ErrorIs(t, err, ErrNoPath)

	_, err = FindPathTo(world.Pos(-1, 0), world.Pos(0, 2), false, walls, a)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	assert.ErrorIs(t, err, ErrNoPath)

	_, err = FindPathTo(world.Pos(0, 0), world.Pos(3, 0), false, walls, a)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	small := arena.New("small", 4)
	_, err = FindPathTo(world.Pos(0, 0), world.Pos(0, 2), false, walls, small)
	assert.ErrorIs(t, err, arena.ErrExhausted)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestFindPathTooLong(t *testing.T) {
	const w = MaxPathLength + 2
	a := arena.New("test", 8*w)
	walls := gridFrom(t, a, w, 1)

	_, err := FindPathTo(world.Pos(0, 0), world.Pos(w-1, 0), false, walls, a)
	assert.ErrorIs(t, err, ErrPathTooLong)

	path, err := FindPathTo(world.Pos(0, 0), world.Pos(MaxPathLength, 0), false, walls, a)
	require.NoError(t, err)
	assert.Equal(t, MaxPathLength, path.Len())
}

func TestFindPathToAnyTieBreak(t *testing.T) {
	a := arena.New("test", 512)
	walls := gridFrom(t, a, 5, 5)
	dest := gridFrom(t, a, 5, 5, world.Pos(2, 0), world.Pos(2, 4), world.Pos(4, 2), world.Pos(0, 2))

	// All four are two steps away; Up is expanded first.
	path, err := FindPathToAny(world.Pos(2, 2), dest, false, walls, a)
	require.NoError(t, err)
	assert.Equal(t, "UU", path.String())

	dest.Set(world.Pos(2, 0), false)
	path, err = FindPathToAny(world.Pos(2, 2), dest, false, walls, a)
	require.NoError(t, err)
	assert.Equal(t, "DD", path.String())

	dest.Set(world.Pos(2, 4), false)
	path, err = FindPathToAny(world.Pos(2, 2), dest, false, walls, a)
	require.NoError(t, err)
	assert.Equal(t, "RR", path.String())
}

// oracleDistance is a plain BFS over walkable cells.
func oracleDistance(walls [][]bool, from, to world.TilePosition) (int, bool) {
	h, w := len(walls), len(walls[0])
	dist := map[world.TilePosition]int{from: 0}
	queue := []world.TilePosition{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			return dist[cur], true
		}
		for _, d := range world.Directions {
			n := cur.Add(d)
			if n.X < 0 || n.Y < 0 || n.X >= w || n.Y >= h || walls[n.Y][n.X] {
				continue
			}
			if _, seen := dist[n]; seen {
				continue
			}
			dist[n] = dist[cur] + 1
			queue = append(queue, n)
		}
	}
	return 0, false
}

func randomWalls(rng *rand.Rand, w, h int) [][]bool {
	rows := make([][]bool, h)
	for y := range rows {
		rows[y] = make([]bool, w)
		for x := range rows[y] {
			rows[y][x] = rng.Float64() < 0.3
		}
	}
	return rows
}

func TestFindPathMatchesOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	a := arena.New("test", 4096)

	for trial := 0; trial < 200; trial++ {
		w, h := 3+rng.Intn(10), 3+rng.Intn(10)
		rows := randomWalls(rng, w, h)
		from := world.Pos(rng.Intn(w), rng.Intn(h))
		to := world.Pos(rng.Intn(w), rng.Intn(h))
		rows[from.Y][from.X] = false
		rows[to.Y][to.X] = false

		a.Reset()
		walls, err := world.NewBitGrid(a, w, h)
		require.NoError(t, err)
		for y := range rows {
			for x := range rows[y] {
				walls.Set(world.Pos(x, y), rows[y][x])
			}
		}

		want, reachable := oracleDistance(rows, from, to)
		path, err := FindPathTo(from, to, false, walls, a)
		if !reachable {
			assert.True(t, errors.Is(err, ErrUnreachable), "trial %d", trial)
			continue
		}
		require.NoError(t, err, "trial %d", trial)
		assert.Equal(t, want, path.Len(), "trial %d", trial)
		assert.Equal(t, to, path.End(from), "trial %d", trial)

		pos := from
		for d := range path.All() {
			pos = pos.Add(d)
			assert.False(t, walls.Get(pos), "trial %d walks through a wall at %v", trial, pos)
		}
	}
}

func TestFindPathToAnyNeverLongerThanNearest(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := arena.New("test", 8192)

	for trial := 0; trial < 100; trial++ {
		w, h := 4+rng.Intn(8), 4+rng.Intn(8)
		rows := randomWalls(rng, w, h)
		from := world.Pos(rng.Intn(w), rng.Intn(h))
		rows[from.Y][from.X] = false

		a.Reset()
		walls, err := world.NewBitGrid(a, w, h)
		require.NoError(t, err)
		dest, err := world.NewBitGrid(a, w, h)
		require.NoError(t, err)
		for y := range rows {
			for x := range rows[y] {
				walls.Set(world.Pos(x, y), rows[y][x])
			}
		}

		var members []world.TilePosition
		for i := 0; i < 3; i++ {
			p := world.Pos(rng.Intn(w), rng.Intn(h))
			if p == from || rows[p.Y][p.X] {
				continue
			}
			dest.Set(p, true)
			members = append(members, p)
		}

		nearest := -1
		for _, m := range members {
			m0 := a.Mark()
			path, err := FindPathTo(from, m, false, walls, a)
			a.Release(m0)
			if err == nil && (nearest < 0 || path.Len() < nearest) {
				nearest = path.Len()
			}
		}

		path, err := FindPathToAny(from, dest, false, walls, a)
		if nearest < 0 {
			assert.ErrorIs(t, err, ErrUnreachable, "trial %d", trial)
			continue
		}
		require.NoError(t, err, "trial %d", trial)
		assert.LessOrEqual(t, path.Len(), nearest, "trial %d", trial)
		assert.True(t, dest.Get(path.End(from)), "trial %d", trial)
	}
}
