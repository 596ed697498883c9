package economy

import (
	"fmt"
	"strings"
)

// StockpileSlots is the number of distinct resources one stockpile can hold.
const StockpileSlots = 4

// Slot holds one resource kind. Reserved slots are invisible to haulers
// looking for a source. Cap 0 means the full 255.
type Slot struct {
	Kind     ResourceKind `json:"kind"`
	Amount   uint8        `json:"amount"`
	Reserved bool         `json:"reserved,omitempty"`
	Cap      uint8        `json:"cap,omitempty"`
}

func (s *Slot) limit() uint8 {
	if s.Cap == 0 {
		return 255
	}
	return s.Cap
}

// free reports whether the slot can be reassigned to another kind.
func (s *Slot) free() bool {
	return s.Kind == ResourceNone || (s.Amount == 0 && !s.Reserved && s.Cap == 0)
}

// Stockpile is a fixed four-slot inventory, inline in its owner with no heap
// allocation.
type Stockpile struct {
	Slots [StockpileSlots]Slot `json:"slots"`
}

// WithResource returns a copy with kind set to amount and the given reservation.
// It fills the existing slot for kind or the first free one; with no room the
// stockpile is returned unchanged.
func (s Stockpile) WithResource(kind ResourceKind, amount uint8, reserved bool) Stockpile {
	slot := s.slotFor(kind, true)
	if slot == nil {
		return s
	}
	slot.Kind = kind
	slot.Amount = amount
	slot.Reserved = reserved
	return s
}

// WithCapacity returns a copy whose slot for kind holds at most limit units.
func (s Stockpile) WithCapacity(kind ResourceKind, limit uint8) Stockpile {
	slot := s.slotFor(kind, true)
	if slot == nil {
		return s
	}
	slot.Kind = kind
	slot.Cap = limit
	if slot.Amount > slot.limit() {
		slot.Amount = slot.limit()
	}
	return s
}

func (s *Stockpile) slotFor(kind ResourceKind, claim bool) *Slot {
	if kind == ResourceNone {
		return nil
	}
	for i := range s.Slots {
		if s.Slots[i].Kind == kind {
			return &s.Slots[i]
		}
	}
	if !claim {
		return nil
	}
	for i := range s.Slots {
		if s.Slots[i].free() {
			s.Slots[i] = Slot{Kind: kind}
			return &s.Slots[i]
		}
	}
	return nil
}

// Amount returns how much of kind is held.
func (s *Stockpile) Amount(kind ResourceKind) uint8 {
	if slot := s.slotFor(kind, false); slot != nil {
		return slot.Amount
	}
	return 0
}

// Room returns how many more units of kind would fit.
func (s *Stockpile) Room(kind ResourceKind) uint8 {
	if slot := s.slotFor(kind, false); slot != nil {
		return slot.limit() - slot.Amount
	}
	for i := range s.Slots {
		if s.Slots[i].free() {
			return 255
		}
	}
	return 0
}

// Add stores up to n units of kind and returns the units that did not fit.
func (s *Stockpile) Add(kind ResourceKind, n uint8) (rejected uint8) {
	if n == 0 {
		return 0
	}
	slot := s.slotFor(kind, true)
	if slot == nil {
		return n
	}
	accepted := min(n, slot.limit()-slot.Amount)
	slot.Amount += accepted
	return n - accepted
}

// Take removes up to n units of kind and returns how many were removed.
func (s *Stockpile) Take(kind ResourceKind, n uint8) uint8 {
	slot := s.slotFor(kind, false)
	if slot == nil {
		return 0
	}
	taken := min(n, slot.Amount)
	slot.Amount -= taken
	return taken
}

// HasUnreserved reports whether at least one unit of kind is available to haulers.
func (s *Stockpile) HasUnreserved(kind ResourceKind) bool {
	slot := s.slotFor(kind, false)
	return slot != nil && !slot.Reserved && slot.Amount > 0
}

// MarkReserved sets the reservation flag on kind's slot, if there is one.
func (s *Stockpile) MarkReserved(kind ResourceKind, reserved bool) {
	if slot := s.slotFor(kind, false); slot != nil {
		slot.Reserved = reserved
	}
}

// IsEmpty reports whether every slot is at zero.
func (s *Stockpile) IsEmpty() bool {
	for i := range s.Slots {
		if s.Slots[i].Amount != 0 {
			return false
		}
	}
	return true
}

// Total returns the number of units held across all slots.
func (s *Stockpile) Total() int {
	n := 0
	for i := range s.Slots {
		n += int(s.Slots[i].Amount)
	}
	return n
}

func (s Stockpile) String() string {
	var parts []string
	for _, slot := range s.Slots {
		if slot.Kind == ResourceNone {
			continue
		}
		p := fmt.Sprintf("%dx %s", slot.Amount, slot.Kind)
		if slot.Reserved {
			p += "*"
		}
		parts = append(parts, p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
