// Package tools implements the reconstruction-stage toolkit: stage
// masks, best-track selection, fit-parameter access and the smaller
// trigger and timing helpers built on top of the reader core.
package tools

import (
	"fmt"

	"github.com/km3py/km3go/jagged"
)

// Selector describes one reconstruction-stage condition. Exactly one
// field must be set.
type Selector struct {
	// Sequence matches sub-sequences equal to the given stages, in
	// order and length.
	Sequence []int32
	// StartEnd matches non-empty sub-sequences with the given first
	// and last stage.
	StartEnd *[2]int32
	// MinMax matches non-empty sub-sequences whose stages all lie in
	// the closed range.
	MinMax *[2]int32
	// AtLeast matches sub-sequences containing all given stages in any
	// order, extras allowed.
	AtLeast []int32
}

func (s Selector) given() int {
	n := 0
	if s.Sequence != nil {
		n++
	}
	if s.StartEnd != nil {
		n++
	}
	if s.MinMax != nil {
		n++
	}
	if s.AtLeast != nil {
		n++
	}
	return n
}

// StartEnd builds a first/last stage selector.
func StartEnd(start, end int32) Selector {
	return Selector{StartEnd: &[2]int32{start, end}}
}

// MinMax builds a stage-range selector.
func MinMax(lo, hi int32) Selector {
	return Selector{MinMax: &[2]int32{lo, hi}}
}

// SelectorError reports a malformed selector: zero or several
// conditions given where exactly one is required.
type SelectorError struct {
	Given int
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf(
		"exactly one of sequence, startend, minmax or atleast must be specified, got %d", e.Given)
}

func (s Selector) predicate() func([]int32) bool {
	switch {
	case s.Sequence != nil:
		seq := s.Sequence
		return func(sub []int32) bool {
			if len(sub) != len(seq) {
				return false
			}
			for i := range sub {
				if sub[i] != seq[i] {
					return false
				}
			}
			return true
		}
	case s.StartEnd != nil:
		start, end := s.StartEnd[0], s.StartEnd[1]
		return func(sub []int32) bool {
			return len(sub) > 0 && sub[0] == start && sub[len(sub)-1] == end
		}
	case s.MinMax != nil:
		lo, hi := s.MinMax[0], s.MinMax[1]
		return func(sub []int32) bool {
			if len(sub) == 0 {
				return false
			}
			for _, v := range sub {
				if v < lo || v > hi {
					return false
				}
			}
			return true
		}
	default:
		req := s.AtLeast
		return func(sub []int32) bool {
			for _, want := range req {
				found := false
				for _, v := range sub {
					if v == want {
						found = true
						break
					}
				}
				if !found {
					return false
				}
			}
			return true
		}
	}
}

// Mask evaluates the selector against every innermost stage list,
// descending any outer nesting structurally. The result drops the
// innermost level and keeps all outer offsets exactly: a depth-2 input
// yields a flat mask, a depth-3 input a per-event mask.
func Mask(stages jagged.Array[int32], sel Selector) (jagged.Array[bool], error) {
	if n := sel.given(); n != 1 {
		return jagged.Array[bool]{}, &SelectorError{Given: n}
	}
	if stages.Depth() < 2 {
		return jagged.Array[bool]{}, fmt.Errorf("tools: mask needs nested stage lists, got depth %d", stages.Depth())
	}
	layers := stages.Offsets()
	inner := layers[len(layers)-1]
	values := stages.RawValues()
	pred := sel.predicate()
	out := make([]bool, len(inner)-1)
	for i := range out {
		out[i] = pred(values[inner[i]:inner[i+1]])
	}
	if len(layers) == 1 {
		return jagged.Flat(out), nil
	}
	return jagged.FromOffsets(layers[:len(layers)-1], out)
}
