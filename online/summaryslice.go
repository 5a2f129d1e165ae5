package online

import (
	"encoding/binary"
	"fmt"

	"github.com/km3py/km3go/ktree"
)

// Stored branch paths of the summaryslice stream.
const (
	SummaryHeaderBranch = "KM3NET_SUMMARYSLICE/header"
	SummaryFrameBranch  = "KM3NET_SUMMARYSLICE/frames"
)

// A DAQ header record interleaves little-endian ROOT streamer counters
// with the big-endian payload fields.
const daqHeaderSize = 44

// DAQHeader is the chronometer record shared by event headers and
// summaryslice headers.
type DAQHeader struct {
	DetectorID int32
	Run        int32
	FrameIndex int32
	UTCSeconds uint32
	UTC16ns    uint32
}

func decodeDAQHeader(rec []byte, source string) (DAQHeader, error) {
	if len(rec) != daqHeaderSize {
		return DAQHeader{}, &ktree.IntegrityError{
			Source: source,
			Reason: fmt.Sprintf("header record is %d bytes, want %d", len(rec), daqHeaderSize),
		}
	}
	// Three cnt/vers counter pairs precede the payload, a fourth sits
	// before the UTC fields.
	return DAQHeader{
		DetectorID: int32(binary.BigEndian.Uint32(rec[18:22])),
		Run:        int32(binary.BigEndian.Uint32(rec[22:26])),
		FrameIndex: int32(binary.BigEndian.Uint32(rec[26:30])),
		UTCSeconds: binary.BigEndian.Uint32(rec[36:40]),
		UTC16ns:    binary.BigEndian.Uint32(rec[40:44]),
	}, nil
}

const summaryFrameSize = 55

// SummaryFrame is the per-module status record of one summaryslice:
// packed status words plus the 31 encoded PMT rates.
type SummaryFrame struct {
	DomID    int32
	DQStatus uint32
	HRV      uint32
	FIFO     uint32
	Status3  uint32
	Status4  uint32
	Ch       [ChannelCount]uint8
}

// RatesHz decodes the frame's rate codes into Hz.
func (f SummaryFrame) RatesHz() [ChannelCount]float64 {
	var out [ChannelCount]float64
	for i, c := range f.Ch {
		out[i] = Rate(c)
	}
	return out
}

func decodeSummaryFrames(payload []byte, skip int, source string) ([]SummaryFrame, error) {
	if len(payload) < skip || (len(payload)-skip)%summaryFrameSize != 0 {
		return nil, &ktree.IntegrityError{
			Source: source,
			Reason: fmt.Sprintf("frame payload of %d bytes does not hold %d-byte records behind a %d-byte header",
				len(payload), summaryFrameSize, skip),
		}
	}
	rec := payload[skip:]
	frames := make([]SummaryFrame, len(rec)/summaryFrameSize)
	for i := range frames {
		r := rec[i*summaryFrameSize:]
		frames[i] = SummaryFrame{
			DomID:    int32(binary.BigEndian.Uint32(r[0:4])),
			DQStatus: binary.BigEndian.Uint32(r[4:8]),
			HRV:      binary.BigEndian.Uint32(r[8:12]),
			FIFO:     binary.BigEndian.Uint32(r[12:16]),
			Status3:  binary.BigEndian.Uint32(r[16:20]),
			Status4:  binary.BigEndian.Uint32(r[20:24]),
		}
		copy(frames[i].Ch[:], r[24:summaryFrameSize])
	}
	return frames, nil
}

// FrameRates is the rate projection of one summary frame: the module
// id and its 31 rate codes, nothing else.
type FrameRates struct {
	DomID int32
	Ch    [ChannelCount]uint8
}

// RateView projects dom_id and the rate columns out of the frames.
func RateView(frames []SummaryFrame) []FrameRates {
	out := make([]FrameRates, len(frames))
	for i, f := range frames {
		out[i] = FrameRates{DomID: f.DomID, Ch: f.Ch}
	}
	return out
}

// RateColumns returns the rate column names ch0 through ch30.
func RateColumns() []string {
	cols := make([]string, ChannelCount)
	for i := range cols {
		cols[i] = fmt.Sprintf("ch%d", i)
	}
	return cols
}

// Summaryslice is one decoded summaryslice: its header and the status
// frames of every module that reported.
type Summaryslice struct {
	Header DAQHeader
	Frames []SummaryFrame
}

const defaultStepSize = 1000

// SummarysliceReader reads summaryslices in chunks of StepSize slices,
// decoding only the chunk being asked for.
type SummarysliceReader struct {
	headers  *ktree.Branch
	frames   *ktree.Branch
	stepSize int
}

// SummarysliceOption configures a SummarysliceReader.
type SummarysliceOption func(*SummarysliceReader)

// WithStepSize sets the number of slices per chunk.
func WithStepSize(n int) SummarysliceOption {
	return func(r *SummarysliceReader) {
		if n > 0 {
			r.stepSize = n
		}
	}
}

// NewSummarysliceReader opens the summaryslice stream of f.
func NewSummarysliceReader(f *ktree.File, opts ...SummarysliceOption) (*SummarysliceReader, error) {
	headers, err := f.Branch(SummaryHeaderBranch)
	if err != nil {
		return nil, err
	}
	frames, err := f.Branch(SummaryFrameBranch)
	if err != nil {
		return nil, err
	}
	r := &SummarysliceReader{headers: headers, frames: frames, stepSize: defaultStepSize}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Entries is the total number of summaryslices.
func (r *SummarysliceReader) Entries() int64 { return r.headers.Entries() }

// StepSize is the number of slices per chunk.
func (r *SummarysliceReader) StepSize() int { return r.stepSize }

// NumChunks is the number of chunks the stream splits into.
func (r *SummarysliceReader) NumChunks() int {
	n := r.Entries()
	s := int64(r.stepSize)
	return int((n + s - 1) / s)
}

// Chunk decodes chunk idx. Negative indices count from the end.
func (r *SummarysliceReader) Chunk(idx int) ([]Summaryslice, error) {
	n := r.NumChunks()
	if idx >= n || idx < -n {
		return nil, fmt.Errorf("online: chunk index %d out of range for %d chunks", idx, n)
	}
	if idx < 0 {
		idx += n
	}
	start := int64(idx) * int64(r.stepSize)
	stop := min64(start+int64(r.stepSize), r.Entries())
	return r.read(start, stop)
}

func (r *SummarysliceReader) read(start, stop int64) ([]Summaryslice, error) {
	headerRecs, err := ktree.ReadRange[byte](r.headers, start, stop)
	if err != nil {
		return nil, err
	}
	frameRecs, err := ktree.ReadRange[byte](r.frames, start, stop)
	if err != nil {
		return nil, err
	}
	headerPayloads, err := headerRecs.Lists()
	if err != nil {
		return nil, err
	}
	framePayloads, err := frameRecs.Lists()
	if err != nil {
		return nil, err
	}
	if len(headerPayloads) != len(framePayloads) {
		return nil, &ktree.IntegrityError{
			Source: "branch " + SummaryFrameBranch,
			Reason: fmt.Sprintf("%d frame entries for %d headers", len(framePayloads), len(headerPayloads)),
		}
	}
	slices := make([]Summaryslice, len(headerPayloads))
	for i := range slices {
		header, err := decodeDAQHeader(headerPayloads[i], "branch "+SummaryHeaderBranch)
		if err != nil {
			return nil, err
		}
		frames, err := decodeSummaryFrames(framePayloads[i], r.frames.HeaderBytes(), "branch "+SummaryFrameBranch)
		if err != nil {
			return nil, err
		}
		slices[i] = Summaryslice{Header: header, Frames: frames}
	}
	return slices, nil
}

// SummarysliceIterator walks the stream chunk by chunk.
type SummarysliceIterator struct {
	r    *SummarysliceReader
	next int
	cur  []Summaryslice
	err  error
}

// Iterate returns an iterator over the stream's chunks.
func (r *SummarysliceReader) Iterate() *SummarysliceIterator {
	return &SummarysliceIterator{r: r}
}

// Next advances to the following chunk, reporting false when the
// stream is exhausted or a read failed.
func (it *SummarysliceIterator) Next() bool {
	if it.err != nil || it.next >= it.r.NumChunks() {
		return false
	}
	it.cur, it.err = it.r.Chunk(it.next)
	it.next++
	return it.err == nil
}

// Chunk returns the chunk Next advanced to.
func (it *SummarysliceIterator) Chunk() []Summaryslice { return it.cur }

// Err returns the first read error, if any.
func (it *SummarysliceIterator) Err() error { return it.err }

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
