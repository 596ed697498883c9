package engine

// Event is a notable occurrence in the colony.
type Event struct {
	Seq         uint64 `json:"seq"`
	Tick        uint64 `json:"tick"`
	Agent       int    `json:"agent"` // Brain index, -1 when no character is involved
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Event categories.
const (
	CategoryPlanner    = "planner"
	CategoryHaul       = "haul"
	CategoryProduction = "production"
	CategoryNeeds      = "needs"
	CategoryAdmin      = "admin"
)

// eventLog is a bounded ring of events with monotonically increasing
// sequence numbers. Seq s lives in slot (s-1) % len(buf).
type eventLog struct {
	buf  []Event
	n    int    // Events retained
	next uint64 // Seq of the next event
}

func newEventLog(size int) *eventLog {
	return &eventLog{buf: make([]Event, max(size, 1)), next: 1}
}

func (l *eventLog) slot(seq uint64) int {
	return int((seq - 1) % uint64(len(l.buf)))
}

// resume continues numbering from next after a restart. Only an empty log
// can be resumed.
func (l *eventLog) resume(next uint64) {
	if l.n == 0 && next > l.next {
		l.next = next
	}
}

func (l *eventLog) add(e Event) {
	e.Seq = l.next
	l.next++
	l.buf[l.slot(e.Seq)] = e
	if l.n < len(l.buf) {
		l.n++
	}
}

// oldest returns the Seq of the oldest retained event.
func (l *eventLog) oldest() uint64 {
	return l.next - uint64(l.n)
}

// since returns the retained events with Seq > seq, oldest first, at most limit.
func (l *eventLog) since(seq uint64, limit int) []Event {
	start := max(seq+1, l.oldest())
	if start >= l.next || limit <= 0 {
		return nil
	}
	n := min(int(l.next-start), limit)
	out := make([]Event, 0, n)
	for s := start; s < start+uint64(n); s++ {
		out = append(out, l.buf[l.slot(s)])
	}
	return out
}

// recent returns the last n events, oldest first.
func (l *eventLog) recent(n int) []Event {
	n = min(n, l.n)
	return l.since(l.next-1-uint64(n), n)
}
