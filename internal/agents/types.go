// Package agents provides the character data model, oxygen and morale needs,
// and the goal-stack planner (Brain) that decides what each character does.
package agents

import (
	"fmt"
	"strings"

	"github.com/talgya/mini-colony/internal/economy"
)

// OccupationKind is a character's standing role.
type OccupationKind uint8

const (
	OccupationIdle OccupationKind = iota
	OccupationHauler
	OccupationOperator
)

// Occupation is set from outside the planner (scenario file or the admin
// API) and read when the goal stack runs empty.
type Occupation struct {
	Kind OccupationKind  `json:"kind"`
	Job  economy.JobKind `json:"job,omitempty"` // Operator only
}

// Idle returns the idle occupation.
func Idle() Occupation { return Occupation{Kind: OccupationIdle} }

// Hauler returns the hauler occupation.
func Hauler() Occupation { return Occupation{Kind: OccupationHauler} }

// Operator returns the occupation of working stations of kind job.
func Operator(job economy.JobKind) Occupation {
	return Occupation{Kind: OccupationOperator, Job: job}
}

// String renders "idle", "hauler" or "operator:<job>".
func (o Occupation) String() string {
	switch o.Kind {
	case OccupationHauler:
		return "hauler"
	case OccupationOperator:
		return "operator:" + o.Job.String()
	default:
		return "idle"
	}
}

// ParseOccupation is the inverse of Occupation.String.
func ParseOccupation(s string) (Occupation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "idle" || s == "":
		return Idle(), nil
	case s == "hauler":
		return Hauler(), nil
	case strings.HasPrefix(s, "operator:"):
		var job economy.JobKind
		if err := job.UnmarshalText([]byte(strings.TrimPrefix(s, "operator:"))); err != nil {
			return Occupation{}, fmt.Errorf("occupation %q: %w", s, err)
		}
		if job == economy.JobNone {
			return Occupation{}, fmt.Errorf("occupation %q: operator needs a job", s)
		}
		return Operator(job), nil
	}
	return Occupation{}, fmt.Errorf("unknown occupation %q", s)
}

// MarshalText encodes the occupation in its String form.
func (o Occupation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes the String form.
func (o *Occupation) UnmarshalText(text []byte) error {
	parsed, err := ParseOccupation(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// CharacterStatus is the per-character component the simulation keeps in the
// component store. Brain indexes the brain that drives this character.
type CharacterStatus struct {
	Brain           int    `json:"brain"`
	Name            string `json:"name"`
	Oxygen          uint8  `json:"oxygen"`
	Morale          uint8  `json:"morale"`
	OxygenDepletion uint8  `json:"oxygen_depletion"`
	MoraleDepletion uint8  `json:"morale_depletion"`
	RelaxIncrement  uint8  `json:"relax_increment"`
}

const (
	MaxOxygen = 10
	MaxMorale = 10

	BaseOxygenDepletion = 1
	BaseMoraleDepletion = 1
	BaseRelaxIncrement  = 2
)

// NewCharacterStatus returns a fully rested character with base rates.
func NewCharacterStatus(brain int, name string) CharacterStatus {
	return CharacterStatus{
		Brain:           brain,
		Name:            name,
		Oxygen:          MaxOxygen,
		Morale:          MaxMorale,
		OxygenDepletion: BaseOxygenDepletion,
		MoraleDepletion: BaseMoraleDepletion,
		RelaxIncrement:  BaseRelaxIncrement,
	}
}
