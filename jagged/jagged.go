// Package jagged implements variable-length ("jagged") arrays with
// parallel offset/content storage and deferred index chains. It is the
// array model the readers materialize branch data into: a depth-1 array
// is a plain slice, a depth-2 array is a list of variable-length lists
// and so on. Offsets of level k index the entries of level k+1, the
// innermost level indexing the flat values.
package jagged

import "fmt"

// Array is a possibly nested jagged array of T. The zero value is an
// empty flat array. Arrays are immutable: every operation returns a new
// value sharing no mutable state with its receiver.
type Array[T any] struct {
	scalar bool
	layers [][]int64 // outermost first; nil for flat arrays
	values []T
}

// Flat wraps a plain slice into a depth-1 array. The slice is not
// copied.
func Flat[T any](values []T) Array[T] {
	return Array[T]{values: values}
}

// Scalar wraps a single value into a rank-0 array.
func Scalar[T any](v T) Array[T] {
	return Array[T]{scalar: true, values: []T{v}}
}

// FromLists builds a depth-2 array from a list of lists.
func FromLists[T any](lists [][]T) Array[T] {
	offsets := make([]int64, 1, len(lists)+1)
	var values []T
	for _, l := range lists {
		values = append(values, l...)
		offsets = append(offsets, int64(len(values)))
	}
	return Array[T]{layers: [][]int64{offsets}, values: values}
}

// FromNested builds a depth-3 array from a list of lists of lists.
func FromNested[T any](nested [][][]T) Array[T] {
	outer := make([]int64, 1, len(nested)+1)
	inner := []int64{0}
	var values []T
	var n int64
	for _, lists := range nested {
		n += int64(len(lists))
		outer = append(outer, n)
		for _, l := range lists {
			values = append(values, l...)
			inner = append(inner, int64(len(values)))
		}
	}
	return Array[T]{layers: [][]int64{outer, inner}, values: values}
}

// FromOffsets builds a jagged array directly from offset layers and a
// value slice, the storage layout used by the backing store. Layers are
// ordered outermost first; each must start at zero and be monotonic.
func FromOffsets[T any](layers [][]int64, values []T) (Array[T], error) {
	for k, layer := range layers {
		if len(layer) == 0 || layer[0] != 0 {
			return Array[T]{}, fmt.Errorf("jagged: offset layer %d does not start at zero", k)
		}
		limit := int64(len(values))
		if k+1 < len(layers) {
			limit = int64(len(layers[k+1]) - 1)
		}
		if layer[len(layer)-1] != limit {
			return Array[T]{}, fmt.Errorf("jagged: offset layer %d ends at %d, want %d", k, layer[len(layer)-1], limit)
		}
		for i := 1; i < len(layer); i++ {
			if layer[i] < layer[i-1] {
				return Array[T]{}, fmt.Errorf("jagged: offset layer %d is not monotonic at %d", k, i)
			}
		}
	}
	return Array[T]{layers: layers, values: values}, nil
}

// Depth reports the nesting depth: 0 for a scalar, 1 for a flat array,
// 2 for a list of lists and so on.
func (a Array[T]) Depth() int {
	if a.scalar {
		return 0
	}
	return len(a.layers) + 1
}

// Len is the number of entries at the outermost level. A scalar has
// length 1 by convention.
func (a Array[T]) Len() int {
	if a.scalar {
		return 1
	}
	if len(a.layers) == 0 {
		return len(a.values)
	}
	return len(a.layers[0]) - 1
}

// ScalarValue returns the wrapped value of a rank-0 array.
func (a Array[T]) ScalarValue() (T, bool) {
	if !a.scalar {
		var zero T
		return zero, false
	}
	return a.values[0], true
}

// RawValues exposes the flat value storage, all nesting removed.
func (a Array[T]) RawValues() []T {
	return a.values
}

// Slice materializes a depth-1 array as a plain slice.
func (a Array[T]) Slice() ([]T, error) {
	if a.Depth() != 1 {
		return nil, fmt.Errorf("jagged: Slice on array of depth %d", a.Depth())
	}
	return a.values, nil
}

// Lists materializes a depth-2 array.
func (a Array[T]) Lists() ([][]T, error) {
	if a.Depth() != 2 {
		return nil, fmt.Errorf("jagged: Lists on array of depth %d", a.Depth())
	}
	off := a.layers[0]
	out := make([][]T, len(off)-1)
	for i := range out {
		out[i] = a.values[off[i]:off[i+1]]
	}
	return out, nil
}

// Nested materializes a depth-3 array.
func (a Array[T]) Nested() ([][][]T, error) {
	if a.Depth() != 3 {
		return nil, fmt.Errorf("jagged: Nested on array of depth %d", a.Depth())
	}
	outer, inner := a.layers[0], a.layers[1]
	out := make([][][]T, len(outer)-1)
	for i := range out {
		lists := make([][]T, 0, outer[i+1]-outer[i])
		for j := outer[i]; j < outer[i+1]; j++ {
			lists = append(lists, a.values[inner[j]:inner[j+1]])
		}
		out[i] = lists
	}
	return out, nil
}

// Offsets returns the offset layers, outermost first. Shared storage,
// callers must not mutate.
func (a Array[T]) Offsets() [][]int64 {
	return a.layers
}

// dropOuter removes the outermost offset layer, exposing the entries of
// the next level as a new outermost level.
func (a Array[T]) dropOuter() Array[T] {
	return Array[T]{layers: a.layers[1:], values: a.values}
}

// takeRange restricts an array (given by its offset layers and values)
// to the entry window [lo, hi) of its outermost level, rebasing all
// deeper layers.
func takeRange[T any](layers [][]int64, values []T, lo, hi int64) Array[T] {
	if len(layers) == 0 {
		return Array[T]{values: values[lo:hi]}
	}
	seg := layers[0][lo : hi+1]
	outer := make([]int64, len(seg))
	for i, v := range seg {
		outer[i] = v - seg[0]
	}
	sub := takeRange(layers[1:], values, seg[0], seg[len(seg)-1])
	return Array[T]{
		layers: append([][]int64{outer}, sub.layers...),
		values: sub.values,
	}
}

// buildFromRanges gathers the entry windows given by ranges (in the
// entry space of the outermost layer) into a new array, preserving
// order and copying offsets rebased from zero.
func buildFromRanges[T any](layers [][]int64, values []T, ranges [][2]int64) Array[T] {
	if len(layers) == 0 {
		var out []T
		for _, r := range ranges {
			out = append(out, values[r[0]:r[1]]...)
		}
		return Array[T]{values: out}
	}
	layer := layers[0]
	newLayer := []int64{0}
	child := make([][2]int64, 0, len(ranges))
	var base int64
	for _, r := range ranges {
		seg := layer[r[0] : r[1]+1]
		for j := 1; j < len(seg); j++ {
			newLayer = append(newLayer, base+seg[j]-seg[0])
		}
		base += seg[len(seg)-1] - seg[0]
		child = append(child, [2]int64{seg[0], seg[len(seg)-1]})
	}
	sub := buildFromRanges(layers[1:], values, child)
	return Array[T]{
		layers: append([][]int64{newLayer}, sub.layers...),
		values: sub.values,
	}
}

// gatherEntries picks outermost entries by index. Indices must already
// be normalized and in range.
func (a Array[T]) gatherEntries(indices []int) Array[T] {
	if len(a.layers) == 0 {
		out := make([]T, len(indices))
		for i, idx := range indices {
			out[i] = a.values[idx]
		}
		return Array[T]{values: out}
	}
	layer := a.layers[0]
	ranges := make([][2]int64, len(indices))
	outer := make([]int64, len(indices)+1)
	for i, idx := range indices {
		ranges[i] = [2]int64{layer[idx], layer[idx+1]}
		outer[i+1] = outer[i] + layer[idx+1] - layer[idx]
	}
	sub := buildFromRanges(a.layers[1:], a.values, ranges)
	return Array[T]{
		layers: append([][]int64{outer}, sub.layers...),
		values: sub.values,
	}
}

func int64sEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
