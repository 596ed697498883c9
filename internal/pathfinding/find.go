// Package pathfinding provides breadth-first shortest paths over a world.BitGrid.
// Searches take all of their working memory from a caller-supplied arena, so a
// caller that resets the arena afterwards leaves nothing behind.
package pathfinding

import (
	"errors"
	"fmt"

	"github.com/talgya/mini-colony/internal/arena"
	"github.com/talgya/mini-colony/internal/world"
)

// ErrNoPath matches every failure below via errors.Is.
var ErrNoPath = errors.New("no path")

var (
	ErrUnreachable = fmt.Errorf("%w: destination unreachable", ErrNoPath)
	ErrOutOfBounds = fmt.Errorf("%w: position out of bounds", ErrNoPath)
	ErrPathTooLong = fmt.Errorf("%w: longer than %d steps", ErrNoPath, MaxPathLength)
)

// Expansion order. Ties between equally distant destinations go to whichever
// this order reaches first.
var neighbourOrder = [4]world.Direction{world.Up, world.Down, world.Right, world.Left}

// FindPathTo finds a shortest path from from to to. A wall at to is accepted
// only when allowWallDestination is set, and then the path stops next to it.
func FindPathTo(from, to world.TilePosition, allowWallDestination bool, walls *world.BitGrid, scratch *arena.Arena) (Path, error) {
	if !walls.InBounds(to) {
		return Path{}, ErrOutOfBounds
	}
	dest, err := world.NewBitGrid(scratch, walls.Width(), walls.Height())
	if err != nil {
		return Path{}, fmt.Errorf("%w: %w", ErrNoPath, err)
	}
	dest.Set(to, true)
	return FindPathToAny(from, dest, allowWallDestination, walls, scratch)
}

// FindPathToAny finds a shortest path from from to the nearest set cell of
// destinations. A destination that is a wall counts only when
// allowWallDestination is set; the returned path then ends on the tile
// before it. walls and destinations must be the same size.
func FindPathToAny(from world.TilePosition, destinations *world.BitGrid, allowWallDestination bool, walls *world.BitGrid, scratch *arena.Arena) (Path, error) {
	w, h := walls.Size()
	if dw, dh := destinations.Size(); dw != w || dh != h {
		return Path{}, fmt.Errorf("%w: destination mask %dx%d, walls %dx%d", ErrOutOfBounds, dw, dh, w, h)
	}
	if !walls.InBounds(from) {
		return Path{}, ErrOutOfBounds
	}
	if destinations.Get(from) {
		return Path{}, nil
	}

	cells := w * h
	queue, err := scratch.Alloc(cells)
	if err != nil {
		return Path{}, fmt.Errorf("%w: %w", ErrNoPath, err)
	}
	// Steps from origin plus one; zero means undiscovered.
	dist, err := scratch.Alloc(cells)
	if err != nil {
		return Path{}, fmt.Errorf("%w: %w", ErrNoPath, err)
	}
	// Direction each cell was entered from, two bits per cell.
	back, err := scratch.Alloc((cells + 15) / 16)
	if err != nil {
		return Path{}, fmt.Errorf("%w: %w", ErrNoPath, err)
	}

	index := func(p world.TilePosition) int { return p.Y*w + p.X }

	start := index(from)
	dist[start] = 1
	queue[0] = uint32(start)
	head, tail := 0, 1

	for head < tail {
		cur := int(queue[head])
		head++
		pos := world.TilePosition{X: cur % w, Y: cur / w}

		for _, d := range neighbourOrder {
			next := pos.Add(d)
			if !walls.InBounds(next) {
				continue
			}
			ni := index(next)
			if dist[ni] != 0 {
				continue
			}
			walkable := !walls.Get(next)
			hit := destinations.Get(next) && (allowWallDestination || walkable)
			if !hit && !walkable {
				continue
			}
			dist[ni] = dist[cur] + 1
			back[ni/16] |= uint32(d) << (uint(ni%16) * 2)
			if hit {
				return reconstruct(from, next, walkable, dist[ni]-1, w, back)
			}
			queue[tail] = uint32(ni)
			tail++
		}
	}
	return Path{}, ErrUnreachable
}

func reconstruct(from, to world.TilePosition, walkable bool, length uint32, w int, back []uint32) (Path, error) {
	entered := func(p world.TilePosition) world.Direction {
		i := p.Y*w + p.X
		return world.Direction(back[i/16]>>(uint(i%16)*2)) & 0b11
	}

	pos := to
	if !walkable {
		// Stand next to the wall, not on it.
		pos = pos.Add(entered(pos).Reverse())
		length--
	}
	if length > MaxPathLength {
		return Path{}, ErrPathTooLong
	}

	var path Path
	for pos != from {
		d := entered(pos)
		path.Push(d)
		pos = pos.Add(d.Reverse())
	}
	path.Reverse()
	return path, nil
}
