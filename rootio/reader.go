package rootio

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/km3py/km3go/jagged"
	"github.com/km3py/km3go/ktree"
)

// FieldKind tags what a resolved field name refers to.
type FieldKind int

const (
	// LeafField names a scalar or jagged data branch.
	LeafField FieldKind = iota
	// NestedField names a sub-collection with its own field table.
	NestedField
	// CountField names a synthetic n_<collection> length column.
	CountField
)

// FieldRef is the result of resolving a field name against the
// filtered schema.
type FieldRef struct {
	Kind       FieldKind
	Path       string      // leaf branch path, for LeafField
	Collection *Collection // for NestedField and CountField
}

// Reader binds an open container to a filtered schema and an index
// chain. Readers are immutable: indexing derives a child sharing the
// file and schema, composition never performs I/O.
type Reader struct {
	file   *ktree.File
	schema *Schema
	res    *resolved
	chain  []jagged.Index
}

// NewReader filters the schema against the file's branch listing and
// returns a reader with an empty chain.
func NewReader(file *ktree.File, schema *Schema) (*Reader, error) {
	res, err := schema.filter(file)
	if err != nil {
		return nil, err
	}
	return &Reader{file: file, schema: schema, res: res}, nil
}

// File exposes the underlying container.
func (r *Reader) File() *ktree.File { return r.file }

// UUID is the container's file identity.
func (r *Reader) UUID() uuid.UUID { return r.file.UUID() }

// Keys enumerates the available field names: top-level branches minus
// the skip list, valid aliases, nested-collection aliases and the
// synthetic count keys.
func (r *Reader) Keys() []string {
	out := make([]string, len(r.res.keys))
	copy(out, r.res.keys)
	return out
}

// Chain returns a copy of the accumulated index chain.
func (r *Reader) Chain() []jagged.Index {
	return append([]jagged.Index(nil), r.chain...)
}

// Index derives a reader with the chain extended by one operation. The
// receiver is unchanged and no data is touched.
func (r *Reader) Index(ix jagged.Index) *Reader {
	child := *r
	child.chain = append(append([]jagged.Index(nil), r.chain...), ix)
	return &child
}

// Resolve maps a field name to its backing, distinguishing leaves,
// nested collections and count columns. Unknown names report the valid
// alternatives.
func (r *Reader) Resolve(name string) (FieldRef, error) {
	if col, ok := r.res.nested[name]; ok {
		return FieldRef{Kind: NestedField, Collection: col}, nil
	}
	if colName, ok := r.res.counts[name]; ok {
		return FieldRef{Kind: CountField, Collection: r.res.nested[colName]}, nil
	}
	if path, ok := r.res.leaf[name]; ok {
		return FieldRef{Kind: LeafField, Path: path}, nil
	}
	return FieldRef{}, &FieldError{Field: name, Alternatives: r.res.keys}
}

// Branch returns the accumulator for a nested collection, inheriting
// the reader's chain.
func (r *Reader) Branch(name string) (*Branch, error) {
	ref, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	if ref.Kind != NestedField {
		return nil, fmt.Errorf("rootio: field %q is not a nested collection", name)
	}
	return &Branch{file: r.file, col: ref.Collection, chain: r.Chain()}, nil
}

// Entries is the raw record count, ignoring the chain.
func (r *Reader) Entries() int64 { return r.res.entries }

// Len follows the container length conventions: an empty chain counts
// all records, a chain ending in an integer selection is a length-1
// view, anything else folds the chain onto the identity leaf.
func (r *Reader) Len() (int, error) {
	if len(r.chain) == 0 {
		return int(r.res.entries), nil
	}
	if _, ok := r.chain[len(r.chain)-1].(jagged.At); ok {
		return 1, nil
	}
	if r.res.idPath == "" {
		return 0, fmt.Errorf("rootio: no identity leaf to fold the chain onto")
	}
	return leafLen(r.file, r.res.idPath, r.chain)
}

// Counts materializes a synthetic count column ("n_hits") or, given a
// collection name, its per-record child counts, with the chain folded
// on.
func (r *Reader) Counts(name string) (jagged.Array[int64], error) {
	var zero jagged.Array[int64]
	colName, ok := r.res.counts[name]
	if !ok {
		if _, isCol := r.res.nested[name]; !isCol {
			return zero, &FieldError{Field: name, Alternatives: r.res.keys}
		}
		colName = name
	}
	col := r.res.nested[colName]
	path, ok := col.countField()
	if !ok {
		return zero, fmt.Errorf("rootio: collection %q has no counting leaf", col.Name)
	}
	b, err := r.file.Branch(path)
	if err != nil {
		return zero, err
	}
	counts, err := b.Counts()
	if err != nil {
		return zero, err
	}
	return jagged.Apply(jagged.Flat(counts), r.chain)
}

// Close releases the underlying file.
func (r *Reader) Close() error { return r.file.Close() }

func (r *Reader) resolveLeaf(name string) (*ktree.File, string, []jagged.Index, error) {
	ref, err := r.Resolve(name)
	if err != nil {
		return nil, "", nil, err
	}
	switch ref.Kind {
	case NestedField:
		return nil, "", nil, fmt.Errorf("rootio: field %q is a nested collection, use Branch", name)
	case CountField:
		return nil, "", nil, fmt.Errorf("rootio: field %q is a count column, use Counts", name)
	}
	return r.file, ref.Path, r.chain, nil
}

// LeafSource is anything a typed leaf read can fold a chain against:
// the top-level reader or a nested-collection accumulator.
type LeafSource interface {
	resolveLeaf(name string) (*ktree.File, string, []jagged.Index, error)
}

// Leaf materializes a named leaf as a jagged array of T, folding the
// accumulated chain onto the backing branch. This is where lazy
// evaluation fires.
func Leaf[T ktree.Value](src LeafSource, name string) (jagged.Array[T], error) {
	file, path, chain, err := src.resolveLeaf(name)
	if err != nil {
		return jagged.Array[T]{}, err
	}
	return fetchLeaf[T](file, path, chain)
}

// Typed leaf accessors.

func Floats64(src LeafSource, name string) (jagged.Array[float64], error) {
	return Leaf[float64](src, name)
}

func Floats32(src LeafSource, name string) (jagged.Array[float32], error) {
	return Leaf[float32](src, name)
}

func Ints64(src LeafSource, name string) (jagged.Array[int64], error) {
	return Leaf[int64](src, name)
}

func Ints32(src LeafSource, name string) (jagged.Array[int32], error) {
	return Leaf[int32](src, name)
}

func Uints32(src LeafSource, name string) (jagged.Array[uint32], error) {
	return Leaf[uint32](src, name)
}

func Bytes(src LeafSource, name string) (jagged.Array[byte], error) {
	return Leaf[byte](src, name)
}

// fetchLeaf reads a branch and folds the chain onto it. A leading
// integer or contiguous step-1 slice becomes a windowed read so a
// single selected record never pulls the whole branch into memory. The
// window is an optimization only, results are identical to the naive
// fold.
func fetchLeaf[T ktree.Value](file *ktree.File, path string, chain []jagged.Index) (jagged.Array[T], error) {
	var zero jagged.Array[T]
	b, err := file.Branch(path)
	if err != nil {
		return zero, err
	}
	if len(chain) > 0 {
		switch ix := chain[0].(type) {
		case jagged.At:
			if i := int64(ix); i >= 0 && i < b.Entries() {
				arr, err := ktree.ReadRange[T](b, i, i+1)
				if err != nil {
					return zero, err
				}
				arr, err = arr.Index(jagged.At(0))
				if err != nil {
					return zero, err
				}
				return foldFrom(arr, chain, 1)
			}
		case jagged.Span:
			if ix.Step == 1 || ix.Step == 0 {
				start, stop := windowBounds(int(b.Entries()), ix)
				arr, err := ktree.ReadRange[T](b, int64(start), int64(stop))
				if err != nil {
					return zero, err
				}
				return foldFrom(arr, chain, 1)
			}
		}
	}
	arr, err := ktree.ReadAll[T](b)
	if err != nil {
		return zero, err
	}
	return jagged.Apply(arr, chain)
}

// foldFrom applies the chain tail, fixing up error positions so a
// windowed read reports the same chain depth as the naive fold.
func foldFrom[T any](arr jagged.Array[T], chain []jagged.Index, from int) (jagged.Array[T], error) {
	out, err := jagged.Apply(arr, chain[from:])
	if err != nil {
		var ixErr *jagged.IndexError
		if errors.As(err, &ixErr) {
			ixErr.Depth += from
			ixErr.Chain = chain
		}
		return jagged.Array[T]{}, err
	}
	return out, nil
}

// windowBounds normalizes a step-1 slice against n entries with the
// usual clamping rules.
func windowBounds(n int, s jagged.Span) (int, int) {
	clamp := func(v int) int {
		if v < 0 {
			v += n
		}
		if v < 0 {
			return 0
		}
		if v > n {
			return n
		}
		return v
	}
	start, stop := 0, n
	if s.Start != nil {
		start = clamp(*s.Start)
	}
	if s.Stop != nil {
		stop = clamp(*s.Stop)
	}
	if stop < start {
		stop = start
	}
	return start, stop
}

// leafLen folds the chain onto a leaf of any numeric storage type and
// reports the resulting outer length.
func leafLen(file *ktree.File, path string, chain []jagged.Index) (int, error) {
	b, err := file.Branch(path)
	if err != nil {
		return 0, err
	}
	switch b.DType() {
	case ktree.I8:
		return lenVia[int8](file, path, chain)
	case ktree.U8, ktree.Bytes:
		return lenVia[uint8](file, path, chain)
	case ktree.I16:
		return lenVia[int16](file, path, chain)
	case ktree.U16:
		return lenVia[uint16](file, path, chain)
	case ktree.I32:
		return lenVia[int32](file, path, chain)
	case ktree.U32:
		return lenVia[uint32](file, path, chain)
	case ktree.I64:
		return lenVia[int64](file, path, chain)
	case ktree.U64:
		return lenVia[uint64](file, path, chain)
	case ktree.F32:
		return lenVia[float32](file, path, chain)
	case ktree.F64:
		return lenVia[float64](file, path, chain)
	}
	return 0, fmt.Errorf("rootio: cannot measure leaf %q of type %s", path, b.DType())
}

func lenVia[T ktree.Value](file *ktree.File, path string, chain []jagged.Index) (int, error) {
	arr, err := fetchLeaf[T](file, path, chain)
	if err != nil {
		return 0, err
	}
	return arr.Len(), nil
}
