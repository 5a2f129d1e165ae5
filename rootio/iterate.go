package rootio

import "github.com/km3py/km3go/jagged"

// Iterator walks a reader record by record, yielding single-index child
// views.
type Iterator struct {
	base *Reader
	next int
	stop int
	cur  *Reader
}

// Iterate prepares record iteration. It is only defined for an empty
// chain or a single step-1 slice; anything else returns
// ErrUnsupportedIteration so callers can fall back to explicit
// indexing.
func (r *Reader) Iterate() (*Iterator, error) {
	if len(r.chain) > 1 {
		return nil, ErrUnsupportedIteration
	}
	start, stop := 0, int(r.res.entries)
	if len(r.chain) == 1 {
		span, ok := r.chain[0].(jagged.Span)
		if !ok || (span.Step != 1 && span.Step != 0) {
			return nil, ErrUnsupportedIteration
		}
		start, stop = windowBounds(int(r.res.entries), span)
	}
	base := *r
	base.chain = nil
	return &Iterator{base: &base, next: start, stop: stop}, nil
}

// Next advances to the next record view. It returns false when the
// range is exhausted.
func (it *Iterator) Next() bool {
	if it.next >= it.stop {
		return false
	}
	it.cur = it.base.Index(jagged.At(it.next))
	it.next++
	return true
}

// Reader is the single-record view selected by the last Next call.
func (it *Iterator) Reader() *Reader { return it.cur }
