package jagged

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Counts returns the lengths of the innermost lists, reducing the
// depth by one: a depth-2 array yields flat counts, a depth-3 array
// yields per-outer-entry count lists.
func Counts[T any](a Array[T]) (Array[int64], error) {
	if a.Depth() < 2 {
		return Array[int64]{}, fmt.Errorf("jagged: Counts on array of depth %d", a.Depth())
	}
	inner := a.layers[len(a.layers)-1]
	counts := make([]int64, len(inner)-1)
	for i := range counts {
		counts[i] = inner[i+1] - inner[i]
	}
	if len(a.layers) == 1 {
		return Flat(counts), nil
	}
	return Array[int64]{layers: a.layers[:len(a.layers)-1], values: counts}, nil
}

// Flatten removes the outermost nesting level.
func Flatten[T any](a Array[T]) (Array[T], error) {
	if a.Depth() < 2 {
		return Array[T]{}, fmt.Errorf("jagged: Flatten on array of depth %d", a.Depth())
	}
	return a.dropOuter(), nil
}

// Any reduces the innermost lists with logical OR.
func Any(a Array[bool]) (Array[bool], error) {
	if a.Depth() < 2 {
		return Array[bool]{}, fmt.Errorf("jagged: Any on array of depth %d", a.Depth())
	}
	inner := a.layers[len(a.layers)-1]
	out := make([]bool, len(inner)-1)
	for i := range out {
		for _, v := range a.values[inner[i]:inner[i+1]] {
			if v {
				out[i] = true
				break
			}
		}
	}
	if len(a.layers) == 1 {
		return Flat(out), nil
	}
	return Array[bool]{layers: a.layers[:len(a.layers)-1], values: out}, nil
}

// ArgMax returns, per innermost list, the position of the first
// maximum, or -1 for an empty list. Ties resolve to the earliest
// occurrence (stable argmax).
func ArgMax[T constraints.Ordered](a Array[T]) (Array[int64], error) {
	if a.Depth() < 2 {
		return Array[int64]{}, fmt.Errorf("jagged: ArgMax on array of depth %d", a.Depth())
	}
	inner := a.layers[len(a.layers)-1]
	out := make([]int64, len(inner)-1)
	for i := range out {
		sub := a.values[inner[i]:inner[i+1]]
		if len(sub) == 0 {
			out[i] = -1
			continue
		}
		best := 0
		for j := 1; j < len(sub); j++ {
			if sub[j] > sub[best] {
				best = j
			}
		}
		out[i] = int64(best)
	}
	if len(a.layers) == 1 {
		return Flat(out), nil
	}
	return Array[int64]{layers: a.layers[:len(a.layers)-1], values: out}, nil
}

// Max returns, per innermost list, the maximum value; ok is false for
// empty lists, whose slot holds the zero value.
func Max[T constraints.Ordered](a Array[T]) (Array[T], []bool, error) {
	if a.Depth() < 2 {
		return Array[T]{}, nil, fmt.Errorf("jagged: Max on array of depth %d", a.Depth())
	}
	inner := a.layers[len(a.layers)-1]
	out := make([]T, len(inner)-1)
	ok := make([]bool, len(inner)-1)
	for i := range out {
		sub := a.values[inner[i]:inner[i+1]]
		if len(sub) == 0 {
			continue
		}
		best := sub[0]
		for _, v := range sub[1:] {
			if v > best {
				best = v
			}
		}
		out[i] = best
		ok[i] = true
	}
	var arr Array[T]
	if len(a.layers) == 1 {
		arr = Flat(out)
	} else {
		arr = Array[T]{layers: a.layers[:len(a.layers)-1], values: out}
	}
	return arr, ok, nil
}

// Equal reports structural and value equality.
func Equal[T comparable](a, b Array[T]) bool {
	if a.Depth() != b.Depth() || len(a.values) != len(b.values) {
		return false
	}
	for k := range a.layers {
		if !int64sEqual(a.layers[k], b.layers[k]) {
			return false
		}
	}
	for i := range a.values {
		if a.values[i] != b.values[i] {
			return false
		}
	}
	return true
}
