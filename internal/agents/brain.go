// Goal-stack planner. Each tick a character's Brain seeds a goal if it has
// none, checks its oxygen, runs the top goal once and applies at most one
// resolution: pop on finish, pop on abandon, or push an instrumental subgoal.
package agents

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/mini-colony/internal/arena"
	"github.com/talgya/mini-colony/internal/broker"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/pathfinding"
	"github.com/talgya/mini-colony/internal/world"
)

// Outcome is what a planner tick did to the goal stack.
type Outcome uint8

const (
	OutcomeNone      Outcome = iota
	OutcomeFinished          // Top goal popped, done
	OutcomeAbandoned         // Top goal popped, not achievable
	OutcomeSubgoal           // Instrumental goal pushed
	OutcomeReset             // Push overflowed, stack cleared
)

var outcomeNames = [...]string{"none", "finished", "abandoned", "subgoal", "reset"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Resolution reports one UpdateGoals call. Goal is the kind that was on top
// when the tick executed.
type Resolution struct {
	Goal    GoalKind
	Outcome Outcome
}

// Brain drives one character. It is a plain value; the simulation owns a
// slice of them indexed by CharacterStatus.Brain.
type Brain struct {
	Occupation Occupation
	Tuning     Tuning

	stack      GoalStack
	idleTicks  uint32
	hasRelaxed bool
}

// NewBrain creates a brain with an empty goal stack.
func NewBrain(occ Occupation, t Tuning) *Brain {
	return &Brain{Occupation: occ, Tuning: t}
}

// Depth returns the goal stack depth.
func (b *Brain) Depth() int { return b.stack.Len() }

// Goals returns a copy of the goal stack, bottom first.
func (b *Brain) Goals() []Goal { return b.stack.Goals() }

// Top returns a copy of the active goal.
func (b *Brain) Top() (Goal, bool) {
	if g := b.stack.Top(); g != nil {
		return *g, true
	}
	return Goal{}, false
}

// IdleTicks returns how long the brain has had nothing to do.
func (b *Brain) IdleTicks() uint32 { return b.idleTicks }

// HasRelaxed reports whether a Relax goal ran since the last ConsumeRelaxed.
func (b *Brain) HasRelaxed() bool { return b.hasRelaxed }

// ConsumeRelaxed returns and clears the relaxed flag. The needs pass calls it
// once per period.
func (b *Brain) ConsumeRelaxed() bool {
	r := b.hasRelaxed
	b.hasRelaxed = false
	return r
}

// NextMoveDirection returns the step the character should take this move
// tick, if it is following a path.
func (b *Brain) NextMoveDirection() (world.Direction, bool) {
	g := b.stack.Top()
	if g == nil || g.Kind != GoalFollowPath {
		return 0, false
	}
	return g.Path.First()
}

// NextMovePosition returns where NextMoveDirection leads.
func (b *Brain) NextMovePosition() (world.TilePosition, bool) {
	d, ok := b.NextMoveDirection()
	if !ok {
		return world.TilePosition{}, false
	}
	return b.stack.Top().Anchor.Add(d), true
}

// CurrentJob returns the job being worked, if the active goal is Work.
func (b *Brain) CurrentJob() (economy.JobKind, bool) {
	g := b.stack.Top()
	if g == nil || g.Kind != GoalWork {
		return economy.JobNone, false
	}
	return g.Job, true
}

// Restore replaces the brain's planner state, bottom goal first. Used when
// loading a save.
func (b *Brain) Restore(goals []Goal, idleTicks uint32, hasRelaxed bool) error {
	if len(goals) > MaxGoalDepth {
		return fmt.Errorf("%d goals, stack holds %d", len(goals), MaxGoalDepth)
	}
	b.stack.Clear()
	for _, g := range goals {
		b.stack.Push(g)
	}
	b.idleTicks = idleTicks
	b.hasRelaxed = hasRelaxed
	return nil
}

// step is what executing the top goal decided.
type step struct {
	outcome Outcome
	subgoal Goal
}

var (
	none      = step{}
	finished  = step{outcome: OutcomeFinished}
	abandoned = step{outcome: OutcomeAbandoned}
)

func subgoal(g Goal) step { return step{outcome: OutcomeSubgoal, subgoal: g} }

// planner carries the arguments of one UpdateGoals call.
type planner struct {
	b           *Brain
	id          int
	pos         world.TilePosition
	tick        uint64
	store       Store
	hauls       *broker.Broker[HaulDescription]
	walls       *world.BitGrid
	scratch     *arena.Arena
	status      *CharacterStatus
	held        *economy.Stockpile
	demoralized bool
}

// UpdateGoals runs one planner tick for the character at pos. All scratch
// memory comes from scratch; the caller resets it afterwards.
func (b *Brain) UpdateGoals(id int, pos world.TilePosition, tick uint64, store Store, hauls *broker.Broker[HaulDescription], walls *world.BitGrid, scratch *arena.Arena) Resolution {
	status, held, ok := store.Character(id)
	if !ok {
		slog.Warn("brain has no character", "agent", id)
		return Resolution{}
	}
	p := &planner{
		b: b, id: id, pos: pos, tick: tick,
		store: store, hauls: hauls, walls: walls, scratch: scratch,
		status: status, held: held,
		demoralized: status.Demoralized(b.Tuning),
	}

	if b.stack.Len() == 0 && !p.demoralized {
		switch b.Occupation.Kind {
		case OccupationOperator:
			slog.Debug("finding work", "agent", id, "job", b.Occupation.Job)
			b.stack.Push(WorkGoal(b.Occupation.Job))
		case OccupationHauler:
			p.seedHaul()
		}
	}

	if status.Suffocating(b.Tuning) && !b.stack.Contains(GoalRefillOxygen) {
		if r, interrupted := p.seekOxygen(); interrupted {
			return r
		}
	}

	if b.stack.Len() == 0 {
		if b.idleTicks > b.Tuning.IdleRelaxTicks || p.demoralized {
			box := world.RectAround(pos, b.Tuning.RelaxRadius, walls.Width(), walls.Height())
			b.stack.Push(RelaxGoal(tick, box))
			b.idleTicks = 0
		} else {
			b.idleTicks++
		}
	}

	top := b.stack.Top()
	if top == nil {
		return Resolution{}
	}
	kind := top.Kind

	var s step
	switch kind {
	case GoalWork:
		s = p.work(top)
	case GoalHaul:
		s = p.haul(top)
	case GoalFollowPath:
		s = p.followPath(top)
	case GoalRelax:
		s = p.relax(top)
	case GoalRefillOxygen:
		s = p.refillOxygen(top)
	default:
		s = abandoned
	}

	return Resolution{Goal: kind, Outcome: b.apply(id, s)}
}

func (b *Brain) apply(id int, s step) Outcome {
	switch s.outcome {
	case OutcomeFinished:
		g, _ := b.stack.Pop()
		slog.Debug("finished", "agent", id, "goal", g)
	case OutcomeAbandoned:
		g, _ := b.stack.Pop()
		slog.Debug("giving up", "agent", id, "goal", g)
	case OutcomeSubgoal:
		if !b.push(id, s.subgoal) {
			return OutcomeReset
		}
		slog.Debug("subgoal", "agent", id, "goal", s.subgoal, "depth", b.stack.Len())
	}
	return s.outcome
}

// push adds g, clearing the whole stack when it is full.
func (b *Brain) push(id int, g Goal) bool {
	if b.stack.Push(g) {
		return true
	}
	slog.Warn("goal stack overflow, replanning", "agent", id, "goal", g)
	b.stack.Clear()
	return false
}

// pathFailed logs and classifies a path finder error. It returns true when
// the failure was a lack of scratch memory, in which case the caller should
// do nothing this tick rather than give up.
func (p *planner) pathFailed(what string, err error) bool {
	if errors.Is(err, arena.ErrExhausted) {
		slog.Warn("out of scratch memory", "agent", p.id, "for", what, "err", err)
		return true
	}
	slog.Debug("no path", "agent", p.id, "to", what, "err", err)
	return false
}

// mask returns a cleared destination grid the size of the walls.
func (p *planner) mask(what string) (*world.BitGrid, bool) {
	g, err := world.NewBitGrid(p.scratch, p.walls.Width(), p.walls.Height())
	if err != nil {
		p.pathFailed(what, err)
		return nil, false
	}
	return g, true
}

// sources marks every tile holding unreserved res.
func (p *planner) sources(res economy.ResourceKind) (*world.BitGrid, int, bool) {
	g, ok := p.mask(res.String())
	if !ok {
		return nil, 0, false
	}
	n := 0
	p.store.Stockpiles(func(pos world.TilePosition, pile *economy.Stockpile) bool {
		if pile.HasUnreserved(res) && g.InBounds(pos) {
			g.Set(pos, true)
			n++
		}
		return true
	})
	return g, n, true
}

// seedHaul claims the nearest advertised haul whose destination and some
// supply are both reachable.
func (p *planner) seedHaul() {
	n := p.hauls.Len()
	if n == 0 {
		return
	}
	ids, err := p.scratch.Alloc(n)
	if err != nil {
		p.pathFailed("haul ranking", err)
		return
	}
	dists, err := p.scratch.Alloc(n)
	if err != nil {
		p.pathFailed("haul ranking", err)
		return
	}

	// Insertion sort by distance, then id.
	i := 0
	for id, h := range p.hauls.All() {
		d := uint32(h.Destination.Position.ManhattanDistance(p.pos))
		j := i
		for j > 0 && (dists[j-1] > d || (dists[j-1] == d && ids[j-1] > uint32(id))) {
			ids[j], dists[j] = ids[j-1], dists[j-1]
			j--
		}
		ids[j], dists[j] = uint32(id), d
		i++
	}

	for _, raw := range ids {
		id := broker.ID(raw)
		h, ok := p.hauls.Get(id)
		if !ok {
			continue
		}
		m := p.scratch.Mark()
		ok, exhausted := p.haulReachable(*h)
		p.scratch.Release(m)
		if exhausted {
			return
		}
		if !ok {
			continue
		}

		var claimed HaulDescription
		if h.Amount > p.b.Tuning.MaxHaulAmount {
			h.Amount -= p.b.Tuning.MaxHaulAmount
			claimed = *h
			claimed.Amount = p.b.Tuning.MaxHaulAmount
		} else {
			claimed, _ = p.hauls.Remove(id)
		}
		slog.Debug("hauling", "agent", p.id, "haul", claimed, "request", id)
		p.b.stack.Push(HaulGoal(claimed))
		return
	}
}

func (p *planner) haulReachable(h HaulDescription) (ok, exhausted bool) {
	if _, err := pathfinding.FindPathTo(p.pos, h.Destination.Position, true, p.walls, p.scratch); err != nil {
		return false, p.pathFailed("haul destination", err)
	}
	src, n, ok := p.sources(h.Resource)
	if !ok {
		return false, true
	}
	if n == 0 {
		return false, false
	}
	if _, err := pathfinding.FindPathToAny(p.pos, src, true, p.walls, p.scratch); err != nil {
		return false, p.pathFailed("haul source", err)
	}
	return true, false
}

// seekOxygen pushes RefillOxygen and a path to the nearest oxygen. It
// reports interrupted when a push overflowed and the stack was reset.
func (p *planner) seekOxygen() (Resolution, bool) {
	m := p.scratch.Mark()
	defer p.scratch.Release(m)

	src, n, ok := p.sources(economy.ResourceOxygen)
	if !ok || n == 0 {
		return Resolution{}, false
	}
	path, err := pathfinding.FindPathToAny(p.pos, src, true, p.walls, p.scratch)
	if err != nil {
		p.pathFailed("oxygen", err)
		return Resolution{}, false
	}
	slog.Debug("low on oxygen", "agent", p.id, "oxygen", p.status.Oxygen, "path", path.String())
	reset := Resolution{Goal: GoalRefillOxygen, Outcome: OutcomeReset}
	if !p.b.push(p.id, RefillOxygenGoal()) {
		return reset, true
	}
	if !path.IsEmpty() && !p.b.push(p.id, FollowPathGoal(p.pos, path)) {
		return reset, true
	}
	return Resolution{}, false
}

func (p *planner) work(g *Goal) step {
	if p.b.Occupation != Operator(g.Job) || p.demoralized {
		return abandoned
	}

	adjacent := false
	p.store.JobStations(func(pos world.TilePosition, st *economy.JobStation, pile *economy.Stockpile) bool {
		if st.Kind != g.Job || p.pos.ManhattanDistance(pos) > 1 {
			return true
		}
		adjacent = true
		if st.Resourced(pile) {
			if g.HasPending {
				// Withdraw the request if nobody took it yet.
				p.hauls.Remove(g.Pending.ID)
				g.HasPending = false
				slog.Debug("got resources while waiting", "agent", p.id)
			}
			return false
		}
		if g.HasPending {
			return false
		}
		d, _ := st.Kind.Details()
		h := HaulDescription{
			Resource:    d.Input,
			Amount:      d.InputAmount,
			Destination: Destination{Job: st.Kind, Position: pos},
		}
		id, err := p.hauls.Notify(h)
		if err != nil {
			slog.Warn("haul broker full", "agent", p.id, "haul", h, "err", err)
			return false
		}
		g.HasPending = true
		g.Pending = PendingHaul{ID: id, TicksLeft: p.b.Tuning.WaitTicks}
		slog.Debug("requesting", "agent", p.id, "haul", h, "request", id)
		return false
	})

	result := none
	if g.HasPending {
		if g.Pending.TicksLeft == 0 && p.hauls.Check(g.Pending.ID) {
			h, _ := p.hauls.Remove(g.Pending.ID)
			g.HasPending = false
			slog.Debug("tired of waiting, hauling myself", "agent", p.id, "haul", h)
			result = subgoal(HaulGoal(h))
		} else if g.Pending.TicksLeft > 0 {
			g.Pending.TicksLeft--
		}
	}

	// A haul taken over from the broker must not be dropped for a walk.
	if adjacent || result.outcome == OutcomeSubgoal {
		return result
	}

	dest, ok := p.mask("work")
	if !ok {
		return none
	}
	p.store.JobStations(func(pos world.TilePosition, st *economy.JobStation, _ *economy.Stockpile) bool {
		if st.Kind == g.Job && dest.InBounds(pos) {
			dest.Set(pos, true)
		}
		return true
	})
	path, err := pathfinding.FindPathToAny(p.pos, dest, true, p.walls, p.scratch)
	if err != nil {
		if p.pathFailed("work", err) {
			return none
		}
		return abandoned
	}
	return subgoal(FollowPathGoal(p.pos, path))
}

func (p *planner) haul(g *Goal) step {
	h := g.Haul
	res := h.Resource
	target := min(h.Amount, p.b.Tuning.CarryCapacity)

	// Pick up from the current tile and anything within reach.
	held := p.held.Amount(res)
	if held < target {
		need := target - held
		var picked uint8
		p.store.Stockpiles(func(pos world.TilePosition, pile *economy.Stockpile) bool {
			if p.pos.ManhattanDistance(pos) > 1 || !pile.HasUnreserved(res) {
				return true
			}
			picked += pile.Take(res, need-picked)
			return picked < need
		})
		if picked > 0 {
			slog.Debug("picked up", "agent", p.id, "amount", picked, "resource", res)
			if overflow := p.held.Add(res, picked); overflow > 0 {
				p.drop(res, overflow)
			}
			p.held.MarkReserved(res, true)
			held = p.held.Amount(res)
		}
	}

	if held < target && p.held.Room(res) > 0 {
		src, n, ok := p.sources(res)
		if !ok {
			return none
		}
		if n > 0 {
			path, err := pathfinding.FindPathToAny(p.pos, src, true, p.walls, p.scratch)
			switch {
			case err == nil && !path.IsEmpty():
				return subgoal(FollowPathGoal(p.pos, path))
			case err != nil && p.pathFailed(res.String(), err):
				return none
			}
		}
		// Supply ran dry; deliver what we have.
	}
	if held == 0 {
		slog.Debug("nothing to carry, posting the request again", "agent", p.id, "haul", h)
		p.repost(h)
		return abandoned
	}

	path, err := pathfinding.FindPathTo(p.pos, h.Destination.Position, true, p.walls, p.scratch)
	if err != nil {
		if p.pathFailed("haul destination", err) {
			return none
		}
		p.dropAll(res)
		p.repost(h)
		return abandoned
	}
	if !path.IsEmpty() {
		return subgoal(FollowPathGoal(p.pos, path))
	}
	return p.deliver(h)
}

func (p *planner) deliver(h HaulDescription) step {
	res := h.Resource
	held := p.held.Amount(res)
	var delivered uint8
	found := false
	p.store.JobStations(func(pos world.TilePosition, st *economy.JobStation, pile *economy.Stockpile) bool {
		if pos != h.Destination.Position || st.Kind != h.Destination.Job {
			return true
		}
		found = true
		amount := min(held, h.Amount)
		delivered = amount - pile.Add(res, amount)
		return false
	})
	if !found {
		slog.Debug("destination is gone", "agent", p.id, "haul", h)
		p.dropAll(res)
		return abandoned
	}

	slog.Debug("dropped off", "agent", p.id, "amount", delivered, "resource", res, "at", h.Destination.Position)
	p.held.Take(res, delivered)
	p.dropAll(res)
	return finished
}

// dropAll leaves whatever is held of res on the current tile, unreserved.
func (p *planner) dropAll(res economy.ResourceKind) {
	p.held.MarkReserved(res, false)
	if left := p.held.Take(res, 255); left > 0 {
		p.drop(res, left)
	}
}

func (p *planner) drop(res economy.ResourceKind, amount uint8) {
	pile := economy.Stockpile{}.WithResource(res, amount, false)
	if err := p.store.SpawnPile(p.pos, pile); err != nil {
		slog.Warn("dropped resources lost", "agent", p.id, "amount", amount, "resource", res, "err", err)
		return
	}
	slog.Debug("dropped", "agent", p.id, "amount", amount, "resource", res, "at", p.pos)
}

func (p *planner) repost(h HaulDescription) {
	if _, err := p.hauls.Notify(h); err != nil {
		slog.Warn("could not repost haul", "agent", p.id, "haul", h, "err", err)
	}
}

func (p *planner) followPath(g *Goal) step {
	if g.Path.IsEmpty() {
		return finished
	}
	if p.pos == g.Anchor {
		return none
	}
	if n, ok := g.Path.Progress(g.Anchor, p.pos); ok {
		g.Path.Skip(n)
		g.Anchor = p.pos
		return none
	}
	end := g.Path.End(g.Anchor)
	path, err := pathfinding.FindPathTo(p.pos, end, true, p.walls, p.scratch)
	if err != nil {
		if p.pathFailed("replan", err) {
			return none
		}
		return abandoned
	}
	slog.Debug("strayed off, new path", "agent", p.id, "path", path.String())
	g.Anchor = p.pos
	g.Path = path
	return none
}

func (p *planner) relax(g *Goal) step {
	if g.Walked {
		if p.pos != g.Target {
			// The walk was cut short.
			return abandoned
		}
		p.b.hasRelaxed = true
		if p.tick != g.StartTick {
			return finished
		}
		return none
	}
	target := RelaxTarget(p.id, p.pos, p.tick, g.Box)
	path, err := pathfinding.FindPathTo(p.pos, target, false, p.walls, p.scratch)
	if err != nil {
		if p.pathFailed("relax", err) {
			return none
		}
		return abandoned
	}
	g.Walked = true
	g.Target = target
	if path.IsEmpty() {
		return none
	}
	return subgoal(FollowPathGoal(p.pos, path))
}

func (p *planner) refillOxygen(_ *Goal) step {
	if p.status.Oxygen >= MaxOxygen {
		return finished
	}
	breathed := false
	p.store.Stockpiles(func(pos world.TilePosition, pile *economy.Stockpile) bool {
		if p.pos.ManhattanDistance(pos) > 1 || !pile.HasUnreserved(economy.ResourceOxygen) {
			return true
		}
		breathed = pile.Take(economy.ResourceOxygen, 1) == 1
		return !breathed
	})
	if breathed {
		p.status.Oxygen++
		if p.status.Oxygen >= MaxOxygen {
			return finished
		}
		return none
	}

	src, n, ok := p.sources(economy.ResourceOxygen)
	if !ok {
		return none
	}
	if n == 0 {
		return abandoned
	}
	path, err := pathfinding.FindPathToAny(p.pos, src, true, p.walls, p.scratch)
	if err != nil {
		if p.pathFailed("oxygen", err) {
			return none
		}
		return abandoned
	}
	if path.IsEmpty() {
		return abandoned
	}
	return subgoal(FollowPathGoal(p.pos, path))
}
