package pathfinding

import (
	"fmt"
	"iter"
	"strings"

	"github.com/talgya/mini-colony/internal/world"
)

// MaxPathLength is the longest path a Path can hold.
const MaxPathLength = 224

// Path is a sequence of directions packed four steps to a byte.
// The zero value is an empty path, meaning "already there".
type Path struct {
	steps [MaxPathLength / 4]byte
	n     uint8
}

// Len returns the number of steps.
func (p *Path) Len() int { return int(p.n) }

// IsEmpty reports whether the path has no steps left.
func (p *Path) IsEmpty() bool { return p.n == 0 }

// Step returns the i-th step. It panics if i is out of range.
func (p *Path) Step(i int) world.Direction {
	if i < 0 || i >= int(p.n) {
		panic(fmt.Sprintf("path: step %d of %d", i, p.n))
	}
	return world.Direction(p.steps[i/4]>>(uint(i%4)*2)) & 0b11
}

func (p *Path) put(i int, d world.Direction) {
	shift := uint(i%4) * 2
	p.steps[i/4] = p.steps[i/4]&^(0b11<<shift) | byte(d&0b11)<<shift
}

// Push appends a step. It returns false when the path is full.
func (p *Path) Push(d world.Direction) bool {
	if int(p.n) >= MaxPathLength {
		return false
	}
	p.put(int(p.n), d)
	p.n++
	return true
}

// Pop removes and returns the last step.
func (p *Path) Pop() (world.Direction, bool) {
	if p.n == 0 {
		return 0, false
	}
	d := p.Step(int(p.n) - 1)
	p.n--
	return d, true
}

// First returns the next step to take.
func (p *Path) First() (world.Direction, bool) {
	if p.n == 0 {
		return 0, false
	}
	return p.Step(0), true
}

// Skip drops the first n steps, for after they have been walked.
func (p *Path) Skip(n int) {
	if n <= 0 {
		return
	}
	if n >= int(p.n) {
		*p = Path{}
		return
	}
	var out Path
	for i := n; i < int(p.n); i++ {
		out.Push(p.Step(i))
	}
	*p = out
}

// Reverse reverses the order of the steps in place. The directions themselves
// are not flipped.
func (p *Path) Reverse() {
	for i, j := 0, int(p.n)-1; i < j; i, j = i+1, j-1 {
		a, b := p.Step(i), p.Step(j)
		p.put(i, b)
		p.put(j, a)
	}
}

// All iterates the steps in order.
func (p *Path) All() iter.Seq[world.Direction] {
	return func(yield func(world.Direction) bool) {
		for i := 0; i < int(p.n); i++ {
			if !yield(p.Step(i)) {
				return
			}
		}
	}
}

// End returns where the path leads when walked from anchor.
func (p *Path) End(anchor world.TilePosition) world.TilePosition {
	for d := range p.All() {
		anchor = anchor.Add(d)
	}
	return anchor
}

// Progress reports how many leading steps take anchor to pos. When the path
// crosses pos more than once the furthest crossing wins.
func (p *Path) Progress(anchor, pos world.TilePosition) (int, bool) {
	steps, found := 0, false
	i := 0
	for d := range p.All() {
		i++
		anchor = anchor.Add(d)
		if anchor == pos {
			steps, found = i, true
		}
	}
	return steps, found
}

// String renders the path as direction letters, e.g. "DDRRRRU".
func (p Path) String() string {
	var b strings.Builder
	b.Grow(int(p.n))
	for d := range p.All() {
		b.WriteString(d.String())
	}
	return b.String()
}

// MarshalText encodes the path in its String form.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a path written by MarshalText.
func (p *Path) UnmarshalText(text []byte) error {
	var out Path
	for i, c := range text {
		d, ok := world.ParseDirection(c)
		if !ok {
			return fmt.Errorf("path: invalid step %q at %d", c, i)
		}
		if !out.Push(d) {
			return fmt.Errorf("path: longer than %d steps", MaxPathLength)
		}
	}
	*p = out
	return nil
}
