package ktree

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil)
	if err != nil {
		panic(err)
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
}

func compress(codec Codec, raw []byte) ([]byte, error) {
	switch codec {
	case CodecNone:
		return raw, nil
	case CodecZlib:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CodecZstd:
		return zstdEncoder.EncodeAll(raw, nil), nil
	case CodecSnappy:
		return snappy.Encode(nil, raw), nil
	}
	return nil, fmt.Errorf("ktree: unknown codec %d", codec)
}

func decompress(codec Codec, data []byte, rawLen int64) ([]byte, error) {
	var raw []byte
	switch codec {
	case CodecNone:
		raw = data
	case CodecZlib:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, err
		}
		if err := zr.Close(); err != nil {
			return nil, err
		}
	case CodecZstd:
		var err error
		raw, err = zstdDecoder.DecodeAll(data, make([]byte, 0, rawLen))
		if err != nil {
			return nil, err
		}
	case CodecSnappy:
		var err error
		raw, err = snappy.Decode(nil, data)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("ktree: unknown codec %d", codec)
	}
	if int64(len(raw)) != rawLen {
		return nil, &IntegrityError{
			Source: "chunk",
			Reason: fmt.Sprintf("decompressed to %d bytes, directory says %d", len(raw), rawLen),
		}
	}
	return raw, nil
}
