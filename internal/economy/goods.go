// Package economy provides resource kinds, job-station recipes and the small
// fixed-slot stockpiles that characters, stations and loose piles carry.
package economy

import (
	"fmt"
	"strings"
)

// ResourceKind enumerates the materials that can be hauled.
type ResourceKind uint8

const (
	ResourceNone   ResourceKind = iota
	ResourceMagma               // Mined, burned for energy
	ResourceEnergy              // Feeds oxygen generators
	ResourceOxygen              // Breathed by characters
)

// NumResources is the number of resource kinds including None.
const NumResources = 4

var resourceNames = [NumResources]string{"none", "magma", "energy", "oxygen"}

func (r ResourceKind) String() string {
	if int(r) < len(resourceNames) {
		return resourceNames[r]
	}
	return fmt.Sprintf("resource(%d)", r)
}

// MarshalText encodes the kind by name.
func (r ResourceKind) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText, case-insensitively.
func (r *ResourceKind) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for i, n := range resourceNames {
		if n == name {
			*r = ResourceKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown resource %q", text)
}

// JobKind identifies what a job station produces.
type JobKind uint8

const (
	JobNone JobKind = iota
	JobEnergyGenerator
	JobOxygenGenerator
)

// NumJobs is the number of job kinds including None.
const NumJobs = 3

var jobNames = [NumJobs]string{"none", "energy-generator", "oxygen-generator"}

func (j JobKind) String() string {
	if int(j) < len(jobNames) {
		return jobNames[j]
	}
	return fmt.Sprintf("job(%d)", j)
}

// MarshalText encodes the kind by name.
func (j JobKind) MarshalText() ([]byte, error) {
	return []byte(j.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText, case-insensitively.
func (j *JobKind) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for i, n := range jobNames {
		if n == name {
			*j = JobKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown job %q", text)
}

// JobDetails is a station recipe: InputAmount of Input plus Work units of
// operator effort yield OutputAmount of Output.
type JobDetails struct {
	Input        ResourceKind
	InputAmount  uint8
	Work         uint8
	Output       ResourceKind
	OutputAmount uint8
}

// Details returns the recipe for j. ok is false for JobNone.
func (j JobKind) Details() (JobDetails, bool) {
	switch j {
	case JobEnergyGenerator:
		return JobDetails{Input: ResourceMagma, InputAmount: 1, Work: 10, Output: ResourceEnergy, OutputAmount: 1}, true
	case JobOxygenGenerator:
		return JobDetails{Input: ResourceEnergy, InputAmount: 1, Work: 10, Output: ResourceOxygen, OutputAmount: 2}, true
	default:
		return JobDetails{}, false
	}
}

// JobStation is the mutable state of one station.
type JobStation struct {
	Kind         JobKind `json:"kind"`
	WorkInvested uint8   `json:"work_invested"`
}

// Resourced reports whether pile holds enough input for one batch.
func (s *JobStation) Resourced(pile *Stockpile) bool {
	d, ok := s.Kind.Details()
	return ok && pile.Amount(d.Input) >= d.InputAmount
}

// Work invests one unit of effort. When a batch completes its input is
// consumed and the output added to pile; produced is how much came out.
// Output that does not fit is lost.
func (s *JobStation) Work(pile *Stockpile) (produced uint8) {
	d, ok := s.Kind.Details()
	if !ok || pile.Amount(d.Input) < d.InputAmount {
		return 0
	}
	s.WorkInvested++
	if s.WorkInvested < d.Work {
		return 0
	}
	s.WorkInvested -= d.Work
	pile.Take(d.Input, d.InputAmount)
	rejected := pile.Add(d.Output, d.OutputAmount)
	return d.OutputAmount - rejected
}

// NewStationStockpile returns the starting stockpile for a station of kind j:
// a reserved input slot, so haulers never carry input away, and an open
// output slot.
func NewStationStockpile(j JobKind) Stockpile {
	d, ok := j.Details()
	if !ok {
		return Stockpile{}
	}
	return Stockpile{}.
		WithResource(d.Input, 0, true).
		WithResource(d.Output, 0, false)
}
