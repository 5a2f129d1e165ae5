// Package acoustics reads the raw hydrophone streams dumped by the
// acoustic data filter. Each file carries one transducer: a sequence
// of fixed-size records, each a 12-byte header (UTC seconds, 16 ns
// cycles, analysis window size) followed by FrameLength float32 PCM
// samples. The transducer id lives in the filename only.
package acoustics

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/km3py/km3go/klog"
	"github.com/km3py/km3go/ktree"
)

// SamplingRateHz is the CLB acoustic sampling frequency, a period of
// 16 ns * 320.
const SamplingRateHz = 195312.5

// DefaultFrameLength is the usual number of PCM samples per record:
// the analysis window size minus the window overlap. It is not
// recoverable from the file itself.
const DefaultFrameLength = 123260

const recordHeaderSize = 12

// Frame is one raw acoustic record.
type Frame struct {
	UTCSeconds uint32
	Cycles16ns uint32
	WindowSize uint32
	PCM        []float32
}

// Reader holds a fully decoded raw acoustic file.
type Reader struct {
	id          string
	frameLength int
	frames      []Frame
}

// Option configures a Reader.
type Option func(*Reader)

// WithFrameLength sets the PCM samples per record for files written
// with a non-default analysis window configuration.
func WithFrameLength(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.frameLength = n
		}
	}
}

// Open reads and decodes a raw acoustic file.
func Open(path string, opts ...Option) (*Reader, error) {
	r := &Reader{id: idFromPath(path), frameLength: DefaultFrameLength}
	for _, opt := range opts {
		opt(r)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	recordSize := recordHeaderSize + 4*r.frameLength
	if len(raw)%recordSize != 0 {
		return nil, &ktree.IntegrityError{
			Source: path,
			Reason: fmt.Sprintf("%d bytes is not a whole number of %d-byte records, check the frame length",
				len(raw), recordSize),
		}
	}
	r.frames = make([]Frame, len(raw)/recordSize)
	for i := range r.frames {
		rec := raw[i*recordSize:]
		pcm := make([]float32, r.frameLength)
		for k := range pcm {
			pcm[k] = math.Float32frombits(binary.LittleEndian.Uint32(rec[recordHeaderSize+4*k:]))
		}
		r.frames[i] = Frame{
			UTCSeconds: binary.LittleEndian.Uint32(rec[0:4]),
			Cycles16ns: binary.LittleEndian.Uint32(rec[4:8]),
			WindowSize: binary.LittleEndian.Uint32(rec[8:12]),
			PCM:        pcm,
		}
	}
	klog.Info(fmt.Sprintf("read %s: %d frames of %d samples", path, len(r.frames), r.frameLength), "acoustics")
	return r, nil
}

// idFromPath recovers the transducer id from the filename, the only
// place the stream's origin is recorded.
func idFromPath(path string) string {
	stem := path
	if i := strings.LastIndex(stem, "."); i >= 0 {
		stem = stem[:i]
	}
	lo := len(stem) - 24
	if lo < 0 {
		lo = 0
	}
	hi := len(stem) - 15
	if hi < lo {
		hi = lo
	}
	return stem[lo:hi]
}

// ID is the transducer id taken from the filename.
func (r *Reader) ID() string { return r.id }

// FrameLength is the number of PCM samples per record.
func (r *Reader) FrameLength() int { return r.frameLength }

// Frames returns the decoded records in file order.
func (r *Reader) Frames() []Frame { return r.frames }

// PCM concatenates the samples of all frames. Frames are ordered but
// not necessarily contiguous in time.
func (r *Reader) PCM() []float32 {
	out := make([]float32, 0, len(r.frames)*r.frameLength)
	for _, f := range r.frames {
		out = append(out, f.PCM...)
	}
	return out
}

// Timestamps returns the per-frame UTC seconds and 16 ns cycle counts.
func (r *Reader) Timestamps() ([]uint32, []uint32) {
	seconds := make([]uint32, len(r.frames))
	cycles := make([]uint32, len(r.frames))
	for i, f := range r.frames {
		seconds[i] = f.UTCSeconds
		cycles[i] = f.Cycles16ns
	}
	return seconds, cycles
}

// Timebase returns the UNIX time of every PCM sample, frame start
// plus sample offset at the sampling period.
func (r *Reader) Timebase() []float64 {
	out := make([]float64, 0, len(r.frames)*r.frameLength)
	for _, f := range r.frames {
		start := float64(f.UTCSeconds) + 16e-9*float64(f.Cycles16ns)
		for k := 0; k < r.frameLength; k++ {
			out = append(out, start+float64(k)/SamplingRateHz)
		}
	}
	return out
}
