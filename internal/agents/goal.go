package agents

import (
	"fmt"

	"github.com/talgya/mini-colony/internal/broker"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/pathfinding"
	"github.com/talgya/mini-colony/internal/world"
)

// HaulDescription is one request to bring Amount of Resource to a station.
// It lives in the haul broker while advertised and in a Haul goal once
// claimed, never both.
type HaulDescription struct {
	Resource    economy.ResourceKind `json:"resource"`
	Amount      uint8                `json:"amount"`
	Destination Destination          `json:"destination"`
}

// Destination names the station a haul is for.
type Destination struct {
	Job      economy.JobKind    `json:"job"`
	Position world.TilePosition `json:"position"`
}

func (h HaulDescription) String() string {
	return fmt.Sprintf("%dx %s to %s at %v", h.Amount, h.Resource, h.Destination.Job, h.Destination.Position)
}

// GoalKind tags the active case of a Goal.
type GoalKind uint8

const (
	GoalNone GoalKind = iota
	GoalWork
	GoalHaul
	GoalFollowPath
	GoalRelax
	GoalRefillOxygen
)

var goalNames = [...]string{"none", "work", "haul", "follow-path", "relax", "refill-oxygen"}

func (k GoalKind) String() string {
	if int(k) < len(goalNames) {
		return goalNames[k]
	}
	return fmt.Sprintf("goal(%d)", k)
}

// MarshalText encodes the kind by name.
func (k GoalKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a name written by MarshalText.
func (k *GoalKind) UnmarshalText(text []byte) error {
	for i, n := range goalNames {
		if n == string(text) {
			*k = GoalKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown goal %q", text)
}

// PendingHaul is a request a Work goal has advertised and is waiting on.
type PendingHaul struct {
	ID        broker.ID `json:"id"`
	TicksLeft uint64    `json:"ticks_left"`
}

// Goal is a closed tagged union; Kind says which group of fields is live.
type Goal struct {
	Kind GoalKind `json:"kind"`

	// Work
	Job        economy.JobKind `json:"job,omitempty"`
	HasPending bool            `json:"has_pending,omitempty"`
	Pending    PendingHaul     `json:"pending"`

	// Haul
	Haul HaulDescription `json:"haul"`

	// FollowPath
	Anchor world.TilePosition `json:"anchor"`
	Path   pathfinding.Path   `json:"path"`

	// Relax
	StartTick uint64             `json:"start_tick,omitempty"`
	Box       world.Rect         `json:"box"`
	Walked    bool               `json:"walked,omitempty"`
	Target    world.TilePosition `json:"target"`
}

// WorkGoal operates a station of kind job.
func WorkGoal(job economy.JobKind) Goal {
	return Goal{Kind: GoalWork, Job: job}
}

// HaulGoal carries out a claimed haul.
func HaulGoal(h HaulDescription) Goal {
	return Goal{Kind: GoalHaul, Haul: h}
}

// FollowPathGoal walks path starting from anchor.
func FollowPathGoal(anchor world.TilePosition, path pathfinding.Path) Goal {
	return Goal{Kind: GoalFollowPath, Anchor: anchor, Path: path}
}

// RelaxGoal wanders inside box, starting at tick.
func RelaxGoal(tick uint64, box world.Rect) Goal {
	return Goal{Kind: GoalRelax, StartTick: tick, Box: box}
}

// RefillOxygenGoal breathes from nearby oxygen until full.
func RefillOxygenGoal() Goal {
	return Goal{Kind: GoalRefillOxygen}
}

func (g Goal) String() string {
	switch g.Kind {
	case GoalWork:
		if g.HasPending {
			return fmt.Sprintf("work(%s, waiting on #%d for %d)", g.Job, g.Pending.ID, g.Pending.TicksLeft)
		}
		return fmt.Sprintf("work(%s)", g.Job)
	case GoalHaul:
		return fmt.Sprintf("haul(%s)", g.Haul)
	case GoalFollowPath:
		return fmt.Sprintf("follow-path(%v %s)", g.Anchor, g.Path.String())
	case GoalRelax:
		return fmt.Sprintf("relax(since %d)", g.StartTick)
	default:
		return g.Kind.String()
	}
}

// MaxGoalDepth bounds the goal stack.
const MaxGoalDepth = 8

// GoalStack is a fixed-capacity LIFO of goals. The top is the active goal;
// everything below it is suspended until the goals above resolve.
type GoalStack struct {
	goals [MaxGoalDepth]Goal
	n     int
}

// Len returns the stack depth.
func (s *GoalStack) Len() int { return s.n }

// Push adds g on top. It returns false when the stack is full and leaves the
// stack untouched.
func (s *GoalStack) Push(g Goal) bool {
	if s.n == MaxGoalDepth {
		return false
	}
	s.goals[s.n] = g
	s.n++
	return true
}

// Pop removes the top goal.
func (s *GoalStack) Pop() (Goal, bool) {
	if s.n == 0 {
		return Goal{}, false
	}
	s.n--
	g := s.goals[s.n]
	s.goals[s.n] = Goal{}
	return g, true
}

// Top returns the active goal, or nil when empty.
func (s *GoalStack) Top() *Goal {
	if s.n == 0 {
		return nil
	}
	return &s.goals[s.n-1]
}

// Clear drops every goal.
func (s *GoalStack) Clear() {
	*s = GoalStack{}
}

// Contains reports whether a goal of kind k is anywhere on the stack.
func (s *GoalStack) Contains(k GoalKind) bool {
	for i := 0; i < s.n; i++ {
		if s.goals[i].Kind == k {
			return true
		}
	}
	return false
}

// Goals returns a copy, bottom first.
func (s *GoalStack) Goals() []Goal {
	out := make([]Goal, s.n)
	copy(out, s.goals[:s.n])
	return out
}
