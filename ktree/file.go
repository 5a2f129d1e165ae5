// Package ktree implements the single-file branch container the
// readers pull columnar data from. A file holds named branches of
// jagged arrays, stored as offset tables plus chunked, independently
// compressed value payloads. Branch handles are cheap and perform no
// I/O until a read; decoded chunks are cached per file.
package ktree

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/km3py/km3go/klog"
)

// Magic opens every container file.
var Magic = [4]byte{'K', 'M', '3', 'T'}

// Version is the format version this package reads and writes.
const Version uint16 = 1

const defaultCacheChunks = 64

// Options control how a file is opened.
type Options struct {
	// CacheChunks bounds the number of decoded chunks kept in memory.
	CacheChunks int
}

type Option func(*Options)

// WithCacheChunks sets the decoded-chunk cache capacity.
func WithCacheChunks(n int) Option {
	return func(o *Options) { o.CacheChunks = n }
}

// File is an open container. Not safe for concurrent use.
type File struct {
	f          *os.File
	path       string
	version    uint16
	fileUUID   uuid.UUID
	headerText string
	branches   map[string]*Branch
	keys       []string
	cache      *chunkCache
	closed     bool
}

// Open opens a container file and parses its directory. Branch data is
// not touched.
func Open(path string, opts ...Option) (*File, error) {
	options := Options{CacheChunks: defaultCacheChunks}
	for _, opt := range opts {
		opt(&options)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	file := &File{
		f:        f,
		path:     path,
		branches: make(map[string]*Branch),
	}
	if err := file.parse(); err != nil {
		f.Close()
		return nil, &OpenError{Path: path, Err: err}
	}
	file.cache, err = newChunkCache(options.CacheChunks)
	if err != nil {
		f.Close()
		return nil, &OpenError{Path: path, Err: err}
	}
	klog.Info(fmt.Sprintf("opened %s: %d branches, uuid %s", path, len(file.keys), file.fileUUID), "ktree")
	return file, nil
}

func (f *File) parse() error {
	r := bufio.NewReader(f.f)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return fmt.Errorf("reading magic: %w", err)
	}
	if magic != Magic {
		return fmt.Errorf("bad magic %q", magic[:])
	}
	if err := binary.Read(r, binary.LittleEndian, &f.version); err != nil {
		return fmt.Errorf("reading version: %w", err)
	}
	if f.version != Version {
		return fmt.Errorf("unsupported format version %d", f.version)
	}
	var rawUUID [16]byte
	if _, err := io.ReadFull(r, rawUUID[:]); err != nil {
		return fmt.Errorf("reading uuid: %w", err)
	}
	f.fileUUID = uuid.UUID(rawUUID)

	var headerLen uint32
	if err := binary.Read(r, binary.LittleEndian, &headerLen); err != nil {
		return fmt.Errorf("reading header length: %w", err)
	}
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading header text: %w", err)
	}
	f.headerText = string(header)

	var dirOffset int64
	if err := binary.Read(r, binary.LittleEndian, &dirOffset); err != nil {
		return fmt.Errorf("reading directory offset: %w", err)
	}
	if _, err := f.f.Seek(dirOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to directory: %w", err)
	}
	return f.parseDirectory(bufio.NewReader(f.f))
}

func (f *File) parseDirectory(r io.Reader) error {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("reading branch count: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		b, err := parseBranchEntry(r)
		if err != nil {
			return fmt.Errorf("reading directory entry %d: %w", i, err)
		}
		b.file = f
		if _, dup := f.branches[b.path]; dup {
			return fmt.Errorf("duplicate branch %q", b.path)
		}
		f.branches[b.path] = b
		f.keys = append(f.keys, b.path)
	}
	return nil
}

func parseBranchEntry(r io.Reader) (*Branch, error) {
	var pathLen uint16
	if err := binary.Read(r, binary.LittleEndian, &pathLen); err != nil {
		return nil, err
	}
	pathBytes := make([]byte, pathLen)
	if _, err := io.ReadFull(r, pathBytes); err != nil {
		return nil, err
	}

	var meta struct {
		DType      uint8
		Depth      uint8
		Codec      uint8
		HeaderSkip uint8
		Entries    int64
	}
	if err := binary.Read(r, binary.LittleEndian, &meta); err != nil {
		return nil, err
	}
	b := &Branch{
		path:       string(pathBytes),
		dtype:      DType(meta.DType),
		depth:      int(meta.Depth),
		codec:      Codec(meta.Codec),
		headerSkip: int(meta.HeaderSkip),
		entries:    meta.Entries,
	}
	if b.dtype.kind() == 0 {
		return nil, fmt.Errorf("branch %q: unknown dtype %d", b.path, meta.DType)
	}
	if b.depth < 1 || b.depth > 4 {
		return nil, fmt.Errorf("branch %q: unsupported depth %d", b.path, b.depth)
	}

	for k := 0; k < b.depth-1; k++ {
		var table tableRef
		if err := binary.Read(r, binary.LittleEndian, &table); err != nil {
			return nil, err
		}
		b.offsetTables = append(b.offsetTables, table)
	}

	var chunkCount uint32
	if err := binary.Read(r, binary.LittleEndian, &chunkCount); err != nil {
		return nil, err
	}
	b.chunks = make([]chunkRef, chunkCount)
	for i := range b.chunks {
		if err := binary.Read(r, binary.LittleEndian, &b.chunks[i]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Keys lists the branch paths in directory order.
func (f *File) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Has reports whether a branch path exists.
func (f *File) Has(path string) bool {
	_, ok := f.branches[path]
	return ok
}

// Branch returns the handle for a branch path. The handle does no I/O
// until a read.
func (f *File) Branch(path string) (*Branch, error) {
	b, ok := f.branches[path]
	if !ok {
		return nil, &BranchNotFoundError{Path: path}
	}
	return b, nil
}

// UUID is the file identity written at creation time.
func (f *File) UUID() uuid.UUID {
	return f.fileUUID
}

// HeaderText is the free-form key/value text block stored in the file
// header.
func (f *File) HeaderText() string {
	return f.headerText
}

// Path is the filesystem path the file was opened from.
func (f *File) Path() string {
	return f.path
}

// Close releases the file handle and drops the chunk cache. Closing
// twice is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.cache.drop()
	return f.f.Close()
}
