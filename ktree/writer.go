package ktree

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"reflect"

	"github.com/google/uuid"
)

const defaultChunkValues = 4096

// Writer produces container files the reader accepts. It exists for
// fixtures and tooling, not as a persistence API: branches are staged
// in memory and the whole file is written on Close.
type Writer struct {
	path        string
	headerText  string
	fileUUID    uuid.UUID
	chunkValues int64
	branches    []*stagedBranch
	seen        map[string]bool
}

type stagedBranch struct {
	path       string
	dtype      DType
	depth      int
	codec      Codec
	headerSkip int
	entries    int64
	layers     [][]int64
	valueBytes []byte
	valueCount int64
}

type WriterOption func(*Writer)

// WithHeaderText sets the free-form header text block.
func WithHeaderText(text string) WriterOption {
	return func(w *Writer) { w.headerText = text }
}

// WithUUID fixes the file identity instead of generating one.
func WithUUID(u uuid.UUID) WriterOption {
	return func(w *Writer) { w.fileUUID = u }
}

// WithChunkValues sets how many innermost values go into each
// compressed chunk.
func WithChunkValues(n int) WriterOption {
	return func(w *Writer) { w.chunkValues = int64(n) }
}

func NewWriter(path string, opts ...WriterOption) *Writer {
	w := &Writer{
		path:        path,
		fileUUID:    uuid.New(),
		chunkValues: defaultChunkValues,
		seen:        make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// BranchSpec carries the stored shape of one branch.
type BranchSpec struct {
	DType      DType
	Codec      Codec
	HeaderSkip int
}

// WriteBranch stages one branch. Values and layers are taken from the
// array; T must match spec.DType.
func WriteBranch[T Value](w *Writer, path string, spec BranchSpec, layers [][]int64, values []T) error {
	if w.seen[path] {
		return fmt.Errorf("ktree: branch %q staged twice", path)
	}
	if want, got := spec.DType.kind(), reflect.TypeOf(*new(T)).Kind(); want != got {
		return &TypeMismatchError{Branch: path, Stored: spec.DType, Requested: got.String()}
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, values); err != nil {
		return fmt.Errorf("ktree: encoding branch %q: %w", path, err)
	}
	entries := int64(len(values))
	if len(layers) > 0 {
		entries = int64(len(layers[0]) - 1)
	}
	w.seen[path] = true
	w.branches = append(w.branches, &stagedBranch{
		path:       path,
		dtype:      spec.DType,
		depth:      len(layers) + 1,
		codec:      spec.Codec,
		headerSkip: spec.HeaderSkip,
		entries:    entries,
		layers:     layers,
		valueBytes: buf.Bytes(),
		valueCount: int64(len(values)),
	})
	return nil
}

// Close assembles and writes the file.
func (w *Writer) Close() error {
	prefix := new(bytes.Buffer)
	prefix.Write(Magic[:])
	binary.Write(prefix, binary.LittleEndian, Version)
	prefix.Write(w.fileUUID[:])
	binary.Write(prefix, binary.LittleEndian, uint32(len(w.headerText)))
	prefix.WriteString(w.headerText)

	// Payload positions are absolute, so they start after the prefix
	// and the 8-byte directory offset.
	base := int64(prefix.Len()) + 8

	payload := new(bytes.Buffer)
	type branchLayout struct {
		tables []tableRef
		chunks []chunkRef
	}
	layouts := make([]branchLayout, len(w.branches))

	for i, b := range w.branches {
		size := int64(b.dtype.Size())
		for first := int64(0); first < b.valueCount || (first == 0 && b.valueCount == 0); first += w.chunkValues {
			count := min64(w.chunkValues, b.valueCount-first)
			raw := b.valueBytes[first*size : (first+count)*size]
			compressed, err := compress(b.codec, raw)
			if err != nil {
				return fmt.Errorf("ktree: compressing branch %q: %w", b.path, err)
			}
			layouts[i].chunks = append(layouts[i].chunks, chunkRef{
				FirstValue:    first,
				ValueCount:    count,
				Pos:           base + int64(payload.Len()),
				CompressedLen: int64(len(compressed)),
				RawLen:        int64(len(raw)),
			})
			payload.Write(compressed)
			if b.valueCount == 0 {
				break
			}
		}
		for _, layer := range b.layers {
			table := tableRef{
				Pos: base + int64(payload.Len()),
				Len: int64(len(layer) * 8),
			}
			binary.Write(payload, binary.LittleEndian, layer)
			layouts[i].tables = append(layouts[i].tables, table)
		}
	}

	directory := new(bytes.Buffer)
	binary.Write(directory, binary.LittleEndian, uint32(len(w.branches)))
	for i, b := range w.branches {
		binary.Write(directory, binary.LittleEndian, uint16(len(b.path)))
		directory.WriteString(b.path)
		binary.Write(directory, binary.LittleEndian, struct {
			DType      uint8
			Depth      uint8
			Codec      uint8
			HeaderSkip uint8
			Entries    int64
		}{uint8(b.dtype), uint8(b.depth), uint8(b.codec), uint8(b.headerSkip), b.entries})
		for _, table := range layouts[i].tables {
			binary.Write(directory, binary.LittleEndian, table)
		}
		binary.Write(directory, binary.LittleEndian, uint32(len(layouts[i].chunks)))
		for _, c := range layouts[i].chunks {
			binary.Write(directory, binary.LittleEndian, c)
		}
	}

	out := new(bytes.Buffer)
	out.Write(prefix.Bytes())
	binary.Write(out, binary.LittleEndian, base+int64(payload.Len()))
	out.Write(payload.Bytes())
	out.Write(directory.Bytes())
	return os.WriteFile(w.path, out.Bytes(), 0o644)
}
