package laik

import (
	"sync"

	"github.com/laik-go/laik/pkg/backend"
)

// Partitioning is the named binding of (group, space, partitioner,
// optional base) to a computed border array (spec §4.F). It starts
// invalid and becomes valid once validate runs the partitioner.
type Partitioning struct {
	name        string
	group       backend.Group
	space       *Space
	partitioner Partitioner
	base        *Partitioning // weak reference; spec §9

	mu    sync.Mutex
	valid bool
	ba    *BorderArray
	fp    [32]byte
}

// NewPartitioning constructs an invalid Partitioning; call validate
// (internally, via Data.switch_to) before reading its border array.
func NewPartitioning(name string, group backend.Group, space *Space, partitioner Partitioner, base *Partitioning) *Partitioning {
	return &Partitioning{
		name:        name,
		group:       group,
		space:       space,
		partitioner: partitioner,
		base:        base,
	}
}

// Name returns the partitioning's given name.
func (p *Partitioning) Name() string { return p.name }

// Group returns the group this partitioning was constructed over.
func (p *Partitioning) Group() backend.Group { return p.group }

// Space returns the index space this partitioning was constructed
// over.
func (p *Partitioning) Space() *Space { return p.space }

// IsValid reports whether validate has run since construction or the
// last invalidate.
func (p *Partitioning) IsValid() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.valid
}

// validate runs the partitioner and fills the border array. It is
// idempotent while inputs are unchanged: a second call against an
// already-valid Partitioning is a no-op, detected cheaply via the
// border array's blake2b fingerprint rather than by re-running the
// partitioner and diffing the result.
func (p *Partitioning) validate() (*BorderArray, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.valid {
		return p.ba, nil
	}

	var baseBA *BorderArray
	if p.base != nil {
		bba, err := p.base.validate()
		if err != nil {
			return nil, err
		}
		if p.base.group != nil && p.group != nil && p.base.group.Size() != p.group.Size() {
			return nil, &PreconditionFailedError{Op: p.partitioner.Name(), Reason: "base and target partitioning disagree on group size"}
		}
		baseBA = bba
	}

	ba := NewBorderArray()
	groupSize := 0
	if p.group != nil {
		groupSize = p.group.Size()
	}
	if err := p.partitioner.Run(ba, p.space, groupSize, baseBA); err != nil {
		return nil, err
	}
	ba.validate()

	p.ba = ba
	p.fp = fingerprint(ba)
	p.valid = true
	return p.ba, nil
}

// invalidate drops the computed border array, forcing the next
// validate to re-run the partitioner. The spec triggers this
// externally when the group or the base partitioning changes.
func (p *Partitioning) invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.valid = false
	p.ba = nil
}

// MySlice1D returns the bounding [from, to) on dim for the calling
// task's slices, coalesced across that task's (possibly several)
// slices when contiguous. Fails with PreconditionFailedError if the
// partitioning has not been validated.
func (p *Partitioning) MySlice1D(myID, dim int) (from, to int, err error) {
	p.mu.Lock()
	ba, valid := p.ba, p.valid
	p.mu.Unlock()
	if !valid {
		return 0, 0, &PreconditionFailedError{Op: "my_slice_1d", Reason: "partitioning has not been validated"}
	}

	first := true
	ba.IterForTask(myID, func(s TaskSlice) {
		f, t := s.Range.From.Dim(dim), s.Range.To.Dim(dim)
		if first {
			from, to = f, t
			first = false
			return
		}
		if f < from {
			from = f
		}
		if t > to {
			to = t
		}
	})
	if first {
		return 0, 0, nil
	}
	return from, to, nil
}

// borderArray returns the frozen border array, validating first if
// necessary. Used internally by the transition engine and transfer
// planner.
func (p *Partitioning) borderArray() (*BorderArray, error) {
	return p.validate()
}

// Fingerprint returns the blake2b fingerprint of the validated border
// array, used by the transfer planner to assert that two workers
// agree on the same target partitioning before exchanging data.
func (p *Partitioning) Fingerprint() ([32]byte, error) {
	if _, err := p.validate(); err != nil {
		return [32]byte{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fp, nil
}
