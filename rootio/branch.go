package rootio

import (
	"fmt"

	"github.com/km3py/km3go/jagged"
	"github.com/km3py/km3go/ktree"
)

// Branch is the index-chain accumulator for one nested collection
// (hits, tracks, ...). It shares the chain of the reader it was derived
// from; indexing extends the chain without I/O and field reads fold it
// onto that field's branch only.
type Branch struct {
	file  *ktree.File
	col   *Collection
	chain []jagged.Index
}

// Name is the collection name.
func (b *Branch) Name() string { return b.col.Name }

// Fields lists the available field names in declaration order.
func (b *Branch) Fields() []string { return b.col.FieldNames() }

// Has reports whether the collection exposes a field in this file.
func (b *Branch) Has(field string) bool {
	_, ok := b.col.paths[field]
	return ok
}

// Chain returns a copy of the accumulated index chain.
func (b *Branch) Chain() []jagged.Index {
	return append([]jagged.Index(nil), b.chain...)
}

// Index derives a branch with the chain extended by one operation.
func (b *Branch) Index(ix jagged.Index) *Branch {
	return &Branch{
		file:  b.file,
		col:   b.col,
		chain: append(append([]jagged.Index(nil), b.chain...), ix),
	}
}

// Entries is the raw record count, ignoring the chain.
func (b *Branch) Entries() (int64, error) {
	path, ok := b.col.countField()
	if !ok {
		return 0, fmt.Errorf("rootio: collection %q has no counting leaf", b.col.Name)
	}
	br, err := b.file.Branch(path)
	if err != nil {
		return 0, err
	}
	return br.Entries(), nil
}

// Len follows the same conventions as the reader: empty chain counts
// records, trailing integer selection is a length-1 view, otherwise
// the chain is folded onto the identity leaf.
func (b *Branch) Len() (int, error) {
	if len(b.chain) == 0 {
		n, err := b.Entries()
		return int(n), err
	}
	if _, ok := b.chain[len(b.chain)-1].(jagged.At); ok {
		return 1, nil
	}
	path, ok := b.col.countField()
	if !ok {
		return 0, fmt.Errorf("rootio: collection %q has no counting leaf", b.col.Name)
	}
	return leafLen(b.file, path, b.chain)
}

func (b *Branch) resolveLeaf(field string) (*ktree.File, string, []jagged.Index, error) {
	path, ok := b.col.paths[field]
	if !ok {
		return nil, "", nil, &FieldError{Field: field, Alternatives: b.col.FieldNames()}
	}
	return b.file, path, b.chain, nil
}
