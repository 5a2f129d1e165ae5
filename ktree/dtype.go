package ktree

import "reflect"

// DType identifies the element type of a branch as stored on disk. All
// numeric values are little-endian.
type DType uint8

const (
	Bool DType = iota
	I8
	U8
	I16
	U16
	I32
	U32
	I64
	U64
	F32
	F64
	// Bytes marks a branch whose entries are raw byte payloads, used
	// for DAQ frame data. Element-wise it behaves like U8.
	Bytes
)

var dtypeNames = map[DType]string{
	Bool:  "bool",
	I8:    "int8",
	U8:    "uint8",
	I16:   "int16",
	U16:   "uint16",
	I32:   "int32",
	U32:   "uint32",
	I64:   "int64",
	U64:   "uint64",
	F32:   "float32",
	F64:   "float64",
	Bytes: "bytes",
}

func (d DType) String() string {
	if name, ok := dtypeNames[d]; ok {
		return name
	}
	return "unknown"
}

// Size is the on-disk size of one element in bytes.
func (d DType) Size() int {
	switch d {
	case Bool, I8, U8, Bytes:
		return 1
	case I16, U16:
		return 2
	case I32, U32, F32:
		return 4
	case I64, U64, F64:
		return 8
	}
	return 0
}

func (d DType) kind() reflect.Kind {
	switch d {
	case Bool:
		return reflect.Bool
	case I8:
		return reflect.Int8
	case U8, Bytes:
		return reflect.Uint8
	case I16:
		return reflect.Int16
	case U16:
		return reflect.Uint16
	case I32:
		return reflect.Int32
	case U32:
		return reflect.Uint32
	case I64:
		return reflect.Int64
	case U64:
		return reflect.Uint64
	case F32:
		return reflect.Float32
	case F64:
		return reflect.Float64
	}
	return reflect.Invalid
}

// Codec identifies the per-chunk compression scheme of a branch.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecZlib
	CodecZstd
	CodecSnappy
)

var codecNames = map[Codec]string{
	CodecNone:   "none",
	CodecZlib:   "zlib",
	CodecZstd:   "zstd",
	CodecSnappy: "snappy",
}

func (c Codec) String() string {
	if name, ok := codecNames[c]; ok {
		return name
	}
	return "unknown"
}
