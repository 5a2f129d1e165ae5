package ktree

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"

	"github.com/km3py/km3go/jagged"
)

// tableRef locates one stored offset table.
type tableRef struct {
	Pos int64
	Len int64 // bytes
}

// chunkRef locates one compressed value chunk. Value indices count
// innermost elements.
type chunkRef struct {
	FirstValue    int64
	ValueCount    int64
	Pos           int64
	CompressedLen int64
	RawLen        int64
}

// Branch is a handle on one stored column. Reads materialize
// jagged.Array values through the typed free functions ReadAll and
// ReadRange.
type Branch struct {
	file       *File
	path       string
	dtype      DType
	depth      int
	codec      Codec
	headerSkip int
	entries    int64

	offsetTables []tableRef
	chunks       []chunkRef

	layersLoaded bool
	layers       [][]int64 // outermost first, len depth-1
}

// Path is the branch path inside the file.
func (b *Branch) Path() string { return b.path }

// Entries is the number of outermost entries.
func (b *Branch) Entries() int64 { return b.entries }

// Depth is the jaggedness of the stored data: 1 flat, 2 one list
// level, and so on.
func (b *Branch) Depth() int { return b.depth }

// DType is the stored element type.
func (b *Branch) DType() DType { return b.dtype }

// Codec is the per-chunk compression scheme.
func (b *Branch) Codec() Codec { return b.codec }

// HeaderBytes is the length of the per-entry frame header for byte
// branches carrying DAQ payloads. Entry payloads are returned whole,
// parsers use this to locate the hit data behind the header.
func (b *Branch) HeaderBytes() int { return b.headerSkip }

// Counts returns the per-entry child counts of a jagged branch, taken
// from the outermost offset table without touching value data.
func (b *Branch) Counts() ([]int64, error) {
	if b.file.closed {
		return nil, ErrClosed
	}
	if b.depth < 2 {
		return nil, fmt.Errorf("ktree: branch %q is flat, it has no counts", b.path)
	}
	if err := b.loadLayers(); err != nil {
		return nil, err
	}
	layer := b.layers[0]
	counts := make([]int64, len(layer)-1)
	for i := range counts {
		counts[i] = layer[i+1] - layer[i]
	}
	return counts, nil
}

// Value constrains typed reads to the element types a branch can hold.
type Value interface {
	~bool | ~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 |
		~int64 | ~uint64 | ~float32 | ~float64
}

// ReadAll reads the whole branch into a jagged array of T.
func ReadAll[T Value](b *Branch) (jagged.Array[T], error) {
	return ReadRange[T](b, 0, b.entries)
}

// ReadRange reads the entry window [start, stop) into a jagged array
// of T. T must match the stored element type.
func ReadRange[T Value](b *Branch, start, stop int64) (jagged.Array[T], error) {
	var zero jagged.Array[T]
	if b.file.closed {
		return zero, ErrClosed
	}
	if want, got := b.dtype.kind(), reflect.TypeOf(*new(T)).Kind(); want != got {
		return zero, &TypeMismatchError{Branch: b.path, Stored: b.dtype, Requested: got.String()}
	}
	if start < 0 || stop > b.entries || start > stop {
		return zero, fmt.Errorf("ktree: entry window [%d, %d) out of range for branch %q with %d entries",
			start, stop, b.path, b.entries)
	}

	layers, vstart, vstop, err := b.window(start, stop)
	if err != nil {
		return zero, err
	}
	raw, err := b.readValueBytes(vstart, vstop)
	if err != nil {
		return zero, err
	}
	values := make([]T, vstop-vstart)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, values); err != nil {
		return zero, fmt.Errorf("ktree: decoding branch %q: %w", b.path, err)
	}
	if len(layers) == 0 {
		return jagged.Flat(values), nil
	}
	arr, err := jagged.FromOffsets(layers, values)
	if err != nil {
		return zero, &IntegrityError{Source: "branch " + b.path, Reason: err.Error()}
	}
	return arr, nil
}

// window rebases the stored offset layers to the entry window and
// returns the innermost value range the window covers.
func (b *Branch) window(start, stop int64) ([][]int64, int64, int64, error) {
	if err := b.loadLayers(); err != nil {
		return nil, 0, 0, err
	}
	if len(b.layers) == 0 {
		return nil, start, stop, nil
	}
	lo, hi := start, stop
	layers := make([][]int64, len(b.layers))
	for k, layer := range b.layers {
		if hi+1 > int64(len(layer)) {
			return nil, 0, 0, &IntegrityError{
				Source: "branch " + b.path,
				Reason: fmt.Sprintf("offset layer %d has %d entries, need %d", k, len(layer)-1, hi),
			}
		}
		seg := layer[lo : hi+1]
		rebased := make([]int64, len(seg))
		for i, v := range seg {
			rebased[i] = v - seg[0]
		}
		layers[k] = rebased
		lo, hi = seg[0], seg[len(seg)-1]
	}
	return layers, lo, hi, nil
}

func (b *Branch) loadLayers() error {
	if b.layersLoaded {
		return nil
	}
	b.layers = make([][]int64, len(b.offsetTables))
	for k, table := range b.offsetTables {
		if table.Len%8 != 0 {
			return &IntegrityError{
				Source: "branch " + b.path,
				Reason: fmt.Sprintf("offset table %d has odd byte length %d", k, table.Len),
			}
		}
		raw := make([]byte, table.Len)
		if _, err := b.file.f.ReadAt(raw, table.Pos); err != nil {
			return fmt.Errorf("ktree: reading offset table %d of branch %q: %w", k, b.path, err)
		}
		layer := make([]int64, table.Len/8)
		if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, layer); err != nil {
			return err
		}
		b.layers[k] = layer
	}
	b.layersLoaded = true
	return nil
}

// readValueBytes concatenates the decoded bytes for the innermost
// value range [vstart, vstop), pulling chunks through the file cache.
func (b *Branch) readValueBytes(vstart, vstop int64) ([]byte, error) {
	size := int64(b.dtype.Size())
	out := make([]byte, 0, (vstop-vstart)*size)
	for i, c := range b.chunks {
		if c.FirstValue+c.ValueCount <= vstart || c.FirstValue >= vstop {
			continue
		}
		raw, err := b.chunkBytes(i)
		if err != nil {
			return nil, err
		}
		lo := max64(vstart, c.FirstValue) - c.FirstValue
		hi := min64(vstop, c.FirstValue+c.ValueCount) - c.FirstValue
		out = append(out, raw[lo*size:hi*size]...)
	}
	if int64(len(out)) != (vstop-vstart)*size {
		return nil, &IntegrityError{
			Source: "branch " + b.path,
			Reason: fmt.Sprintf("chunks cover %d bytes of value range [%d, %d), want %d",
				len(out), vstart, vstop, (vstop-vstart)*size),
		}
	}
	return out, nil
}

func (b *Branch) chunkBytes(i int) ([]byte, error) {
	key := chunkKey{branch: b.path, chunk: i}
	if raw, ok := b.file.cache.get(key); ok {
		return raw, nil
	}
	c := b.chunks[i]
	compressed := make([]byte, c.CompressedLen)
	if _, err := b.file.f.ReadAt(compressed, c.Pos); err != nil {
		if err == io.EOF && int64(len(compressed)) != c.CompressedLen {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("ktree: reading chunk %d of branch %q: %w", i, b.path, err)
	}
	raw, err := decompress(b.codec, compressed, c.RawLen)
	if err != nil {
		return nil, fmt.Errorf("ktree: chunk %d of branch %q: %w", i, b.path, err)
	}
	b.file.cache.put(key, raw)
	return raw, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
