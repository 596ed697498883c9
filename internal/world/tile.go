// Package world provides the tile grid: positions, directions, the terrain
// tilemap and the per-tick occupancy bitset.
// Coordinates are (x, y) with y growing downward.
package world

import (
	"fmt"
	"strconv"
	"strings"
)

// TilePosition identifies one grid cell.
type TilePosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pos is shorthand for TilePosition{X: x, Y: y}.
func Pos(x, y int) TilePosition {
	return TilePosition{X: x, Y: y}
}

// Add returns the neighbouring position one step in direction d.
func (p TilePosition) Add(d Direction) TilePosition {
	off := d.Offset()
	return TilePosition{X: p.X + off.X, Y: p.Y + off.Y}
}

// ManhattanDistance returns |dx| + |dy|.
func (p TilePosition) ManhattanDistance(o TilePosition) int {
	return abs(p.X-o.X) + abs(p.Y-o.Y)
}

func (p TilePosition) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// ParsePos reads "x,y", with or without the parentheses String adds.
func ParsePos(s string) (TilePosition, error) {
	xs, ys, ok := strings.Cut(strings.Trim(strings.TrimSpace(s), "()"), ",")
	if !ok {
		return TilePosition{}, fmt.Errorf("position %q: want x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return TilePosition{}, fmt.Errorf("position %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return TilePosition{}, fmt.Errorf("position %q: %w", s, err)
	}
	return Pos(x, y), nil
}

// Direction is one of the four orthogonal steps. The values fit in two bits.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every direction in encoding order.
var Directions = [4]Direction{Up, Down, Left, Right}

var directionOffsets = [4]TilePosition{
	Up:    {X: 0, Y: -1},
	Down:  {X: 0, Y: 1},
	Left:  {X: -1, Y: 0},
	Right: {X: 1, Y: 0},
}

// Offset returns the unit vector for d.
func (d Direction) Offset() TilePosition {
	return directionOffsets[d&0b11]
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// Clockwise returns the next direction turning clockwise (Up -> Right -> Down -> Left).
// Movement uses it to side-step around a blocked tile.
func (d Direction) Clockwise() Direction {
	switch d {
	case Up:
		return Right
	case Right:
		return Down
	case Down:
		return Left
	default:
		return Up
	}
}

// String returns the single-letter form used in paths and logs.
func (d Direction) String() string {
	switch d {
	case Up:
		return "U"
	case Down:
		return "D"
	case Left:
		return "L"
	case Right:
		return "R"
	default:
		return "?"
	}
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(c byte) (Direction, bool) {
	switch c {
	case 'U', 'u':
		return Up, true
	case 'D', 'd':
		return Down, true
	case 'L', 'l':
		return Left, true
	case 'R', 'r':
		return Right, true
	}
	return 0, false
}

// Rect is an inclusive tile rectangle.
type Rect struct {
	Min TilePosition `json:"min"`
	Max TilePosition `json:"max"`
}

// RectAround returns the square of the given radius centred on p, clamped to
// a width x height grid.
func RectAround(p TilePosition, radius, width, height int) Rect {
	return Rect{
		Min: TilePosition{X: clamp(p.X-radius, 0, width-1), Y: clamp(p.Y-radius, 0, height-1)},
		Max: TilePosition{X: clamp(p.X+radius, 0, width-1), Y: clamp(p.Y+radius, 0, height-1)},
	}
}

// Width is the number of columns covered.
func (r Rect) Width() int { return r.Max.X - r.Min.X + 1 }

// Height is the number of rows covered.
func (r Rect) Height() int { return r.Max.Y - r.Min.Y + 1 }

// Contains reports whether p lies inside r.
func (r Rect) Contains(p TilePosition) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
