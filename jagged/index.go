package jagged

import (
	"fmt"
	"strings"
)

// Index is one deferred indexing operation. The concrete kinds are At
// (integer selection), Span (slicing), Mask / JagMask (boolean masking)
// and Pick (integer-list fancy indexing).
type Index interface {
	fmt.Stringer
	isIndex()
}

// At selects a single entry, reducing the rank by one. Negative values
// count from the end.
type At int

func (At) isIndex()         {}
func (i At) String() string { return fmt.Sprintf("%d", int(i)) }

// Span selects an entry range with Python slice semantics: nil bounds
// mean open ends, negative bounds count from the end, out-of-range
// bounds clamp instead of failing. Step must not be zero.
type Span struct {
	Start *int
	Stop  *int
	Step  int
}

func (Span) isIndex() {}

func (s Span) String() string {
	var b strings.Builder
	if s.Start != nil {
		fmt.Fprintf(&b, "%d", *s.Start)
	}
	b.WriteByte(':')
	if s.Stop != nil {
		fmt.Fprintf(&b, "%d", *s.Stop)
	}
	if s.Step != 1 && s.Step != 0 {
		fmt.Fprintf(&b, ":%d", s.Step)
	}
	return b.String()
}

// All spans every entry.
func All() Span { return Span{Step: 1} }

// From spans [start, end).
func From(start int) Span { return Span{Start: &start, Step: 1} }

// Until spans [0, stop).
func Until(stop int) Span { return Span{Stop: &stop, Step: 1} }

// Between spans [start, stop).
func Between(start, stop int) Span { return Span{Start: &start, Stop: &stop, Step: 1} }

// Stepped spans [start, stop) with the given step.
func Stepped(start, stop, step int) Span {
	return Span{Start: &start, Stop: &stop, Step: step}
}

// Mask selects outermost entries by a flat boolean mask whose length
// must match the array length.
type Mask []bool

func (Mask) isIndex()         {}
func (m Mask) String() string { return fmt.Sprintf("<mask len=%d>", len(m)) }

// JagMask selects entries with a jagged boolean mask. The mask's outer
// structure must match the array's; selection happens at the level
// where the mask bottoms out, so a depth-2 mask applied to a depth-3
// array picks inner lists while the same mask applied to a depth-2
// array filters scalars.
type JagMask struct {
	M Array[bool]
}

func (JagMask) isIndex()         {}
func (m JagMask) String() string { return fmt.Sprintf("<mask depth=%d>", m.M.Depth()) }

// Pick selects outermost entries by index, in the given order. Negative
// values count from the end; out-of-range values are errors.
type Pick []int

func (Pick) isIndex()         {}
func (p Pick) String() string { return fmt.Sprintf("%v", []int(p)) }

// IndexError reports a failed index application, including the position
// in the chain where it happened so multi-level chains stay debuggable.
type IndexError struct {
	Depth int
	Index Index
	Chain []Index
	Err   error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index error at chain depth %d (index %s, chain %s): %v",
		e.Depth, e.Index, FormatChain(e.Chain), e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// FormatChain renders an index chain the way it would be written.
func FormatChain(chain []Index) string {
	parts := make([]string, len(chain))
	for i, ix := range chain {
		parts[i] = "[" + ix.String() + "]"
	}
	return strings.Join(parts, "")
}

// Apply left-folds the index chain onto the array. Folding order is the
// order the indices were accumulated in; an error identifies the chain
// depth at which it occurred.
func Apply[T any](a Array[T], chain []Index) (Array[T], error) {
	for depth, ix := range chain {
		next, err := a.Index(ix)
		if err != nil {
			return Array[T]{}, &IndexError{Depth: depth, Index: ix, Chain: chain, Err: err}
		}
		a = next
	}
	return a, nil
}

// Index applies a single index operation.
func (a Array[T]) Index(ix Index) (Array[T], error) {
	if a.scalar {
		return Array[T]{}, fmt.Errorf("cannot index a scalar")
	}
	switch ix := ix.(type) {
	case At:
		return a.at(int(ix))
	case Span:
		return a.span(ix)
	case Mask:
		return a.maskFlat([]bool(ix))
	case JagMask:
		return applyJagMask(a, ix.M)
	case Pick:
		return a.pick([]int(ix))
	default:
		return Array[T]{}, fmt.Errorf("unsupported index kind %T", ix)
	}
}

func (a Array[T]) at(i int) (Array[T], error) {
	n := a.Len()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return Array[T]{}, fmt.Errorf("index %d out of range for length %d", i, n)
	}
	if len(a.layers) == 0 {
		return Scalar(a.values[i]), nil
	}
	lo, hi := a.layers[0][i], a.layers[0][i+1]
	return takeRange(a.layers[1:], a.values, lo, hi), nil
}

func (a Array[T]) span(s Span) (Array[T], error) {
	if s.Step == 0 {
		s.Step = 1
	}
	start, stop, step := sliceIndices(a.Len(), s)
	if step == 1 {
		if len(a.layers) == 0 {
			return Array[T]{values: a.values[start:stop]}, nil
		}
		lo, hi := a.layers[0][start], a.layers[0][stop]
		seg := a.layers[0][start : stop+1]
		outer := make([]int64, len(seg))
		for i, v := range seg {
			outer[i] = v - seg[0]
		}
		sub := takeRange(a.layers[1:], a.values, lo, hi)
		return Array[T]{layers: append([][]int64{outer}, sub.layers...), values: sub.values}, nil
	}
	var indices []int
	if step > 0 {
		for i := start; i < stop; i += step {
			indices = append(indices, i)
		}
	} else {
		for i := start; i > stop; i += step {
			indices = append(indices, i)
		}
	}
	return a.gatherEntries(indices), nil
}

// sliceIndices normalizes slice bounds with Python semantics: clamping,
// negative wrap-around and open ends.
func sliceIndices(n int, s Span) (start, stop, step int) {
	step = s.Step
	clamp := func(v, lo, hi int) int {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	if step > 0 {
		start, stop = 0, n
		if s.Start != nil {
			start = *s.Start
			if start < 0 {
				start += n
			}
			start = clamp(start, 0, n)
		}
		if s.Stop != nil {
			stop = *s.Stop
			if stop < 0 {
				stop += n
			}
			stop = clamp(stop, 0, n)
		}
		if stop < start {
			stop = start
		}
		return start, stop, step
	}
	start, stop = n-1, -1
	if s.Start != nil {
		start = *s.Start
		if start < 0 {
			start += n
		}
		start = clamp(start, -1, n-1)
	}
	if s.Stop != nil {
		stop = *s.Stop
		if stop < 0 {
			stop += n
		}
		stop = clamp(stop, -1, n-1)
	}
	return start, stop, step
}

func (a Array[T]) maskFlat(m []bool) (Array[T], error) {
	if len(m) != a.Len() {
		return Array[T]{}, fmt.Errorf("mask length %d does not match array length %d", len(m), a.Len())
	}
	var indices []int
	for i, keep := range m {
		if keep {
			indices = append(indices, i)
		}
	}
	return a.gatherEntries(indices), nil
}

func (a Array[T]) pick(idx []int) (Array[T], error) {
	n := a.Len()
	indices := make([]int, len(idx))
	for k, i := range idx {
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return Array[T]{}, fmt.Errorf("index %d out of range for length %d", idx[k], n)
		}
		indices[k] = i
	}
	return a.gatherEntries(indices), nil
}

// applyJagMask applies a jagged boolean mask, descending the matching
// outer structure until the mask bottoms out.
func applyJagMask[T any](a Array[T], m Array[bool]) (Array[T], error) {
	if m.Depth() == 0 {
		return Array[T]{}, fmt.Errorf("cannot mask with a scalar")
	}
	if m.Depth() == 1 {
		return a.maskFlat(m.values)
	}
	if a.Depth() < m.Depth() {
		return Array[T]{}, fmt.Errorf("mask depth %d exceeds array depth %d", m.Depth(), a.Depth())
	}
	if !int64sEqual(a.layers[0], m.layers[0]) {
		return Array[T]{}, fmt.Errorf("mask structure does not match array structure")
	}
	sub, err := applyJagMask(a.dropOuter(), m.dropOuter())
	if err != nil {
		return Array[T]{}, err
	}
	outer := a.layers[0]
	if m.Depth() == 2 {
		// Entries at the next level were filtered, recount.
		recount := make([]int64, len(outer))
		for i := 0; i < len(outer)-1; i++ {
			var kept int64
			for _, keep := range m.values[outer[i]:outer[i+1]] {
				if keep {
					kept++
				}
			}
			recount[i+1] = recount[i] + kept
		}
		outer = recount
	}
	return Array[T]{layers: append([][]int64{outer}, sub.layers...), values: sub.values}, nil
}
