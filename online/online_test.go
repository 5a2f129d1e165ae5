package online

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km3py/km3go/jagged"
	"github.com/km3py/km3go/ktree"
)

func TestRateDecoding(t *testing.T) {
	assert.Equal(t, 0.0, Rate(uint8(0)))
	assert.Equal(t, 0.0, Rate(int32(0)))
	assert.InDelta(t, 2054.92, Rate(uint8(1)), 0.05)
	assert.InDelta(t, MaximalRateHz, Rate(uint8(255)), 1.0)

	prev := Rate(uint8(0))
	for code := 1; code <= 255; code++ {
		r := Rate(uint8(code))
		assert.GreaterOrEqual(t, r, prev, "rate must not decrease at code %d", code)
		assert.Greater(t, r, MinimalRateHz)
		prev = r
	}

	batch := Rates([]int16{0, 1, 255})
	assert.Equal(t, 0.0, batch[0])
	assert.Equal(t, Rate(int16(1)), batch[1])
	assert.Equal(t, Rate(int16(255)), batch[2])
}

func TestUnpackBits(t *testing.T) {
	assert.Equal(t, [ChannelCount]bool{}, UnpackBits(0))

	one := UnpackBits(int64(1))
	for i, b := range one {
		assert.Equal(t, i == 30, b, "position %d", i)
	}

	top := UnpackBits(uint32(1 << 30))
	for i, b := range top {
		assert.Equal(t, i == 0, b, "position %d", i)
	}

	batch := UnpackBitsBatch([]int32{0, 1, 1 << 30})
	assert.Equal(t, UnpackBits(int32(0)), batch[0])
	assert.Equal(t, UnpackBits(int32(1)), batch[1])
	assert.Equal(t, UnpackBits(int32(1<<30)), batch[2])
}

func TestChannelFlags(t *testing.T) {
	flags := ChannelFlags(uint32(0b101))
	for c, b := range flags {
		assert.Equal(t, c == 0 || c == 2, b, "channel %d", c)
	}

	// The top bit is not a channel flag.
	assert.Equal(t, [ChannelCount]bool{}, ChannelFlags(uint32(0x80000000)))
	assert.Equal(t, ChannelFlags(uint32(1)), ChannelFlags(uint32(0x80000001)))

	all := ChannelFlags(int32(-1))
	for c, b := range all {
		assert.True(t, b, "channel %d", c)
	}

	batch := ChannelFlagsBatch([]uint32{0b101, 0})
	assert.Equal(t, ChannelFlags(uint32(0b101)), batch[0])
	assert.Equal(t, [ChannelCount]bool{}, batch[1])
}

func TestUDPWords(t *testing.T) {
	dq := uint32(0x12345678)
	assert.Equal(t, uint32(0x5678), NumberUDPPackets(dq))
	assert.Equal(t, uint32(0x1234), UDPMaxSequenceNumber(dq))

	// The helpers instantiate for every integer width; narrow and
	// signed carriers see the same u32 word semantics.
	assert.Equal(t, uint32(0x12), NumberUDPPackets(int8(0x12)))
	assert.Equal(t, uint32(0xFF), NumberUDPPackets(uint8(0xFF)))
	assert.Equal(t, uint32(0x1234), NumberUDPPackets(int16(0x1234)))
	assert.Equal(t, uint32(0x5678), NumberUDPPackets(int64(0x12345678)))
	assert.Equal(t, uint32(0x7FFF), NumberUDPPackets(int32(-1)))
	assert.Equal(t, uint32(0x1234), UDPMaxSequenceNumber(int64(0x12345678)))
	assert.Equal(t, uint32(0xFFFF), UDPMaxSequenceNumber(int32(-1)))
	assert.Equal(t, uint32(0), UDPMaxSequenceNumber(int16(0x1234)))

	assert.False(t, HasUDPTrailer(uint32(0)))
	assert.False(t, HasUDPTrailer(uint32(0x7FFFFFFF)))
	assert.True(t, HasUDPTrailer(uint32(1<<31)))
	assert.True(t, HasUDPTrailerAny([]uint32{0, 1 << 31, 0}))
	assert.False(t, HasUDPTrailerAny([]uint32{0, 1, 2}))
}

func TestRegroupByModule(t *testing.T) {
	buffer := []TimesliceHit{
		{PMT: 0, TDC: 10, ToT: 5},
		{PMT: 1, TDC: 20, ToT: 6},
		{PMT: 2, TDC: 30, ToT: 7},
		{PMT: 3, TDC: 40, ToT: 8},
		{PMT: 4, TDC: 50, ToT: 9},
		{PMT: 5, TDC: 60, ToT: 10},
	}
	moduleIDs := []int32{808432835, 806451572, 808451904}
	counts := []int32{3, 0, 3}

	frames, err := RegroupByModule(buffer, moduleIDs, counts)
	require.NoError(t, err)
	require.Len(t, frames, 3)

	// Module order is preserved and the concatenation of the frames
	// reconstructs the buffer.
	var rebuilt []TimesliceHit
	for i, f := range frames {
		assert.Equal(t, moduleIDs[i], f.ModuleID)
		assert.Len(t, f.Hits, int(counts[i]))
		rebuilt = append(rebuilt, f.Hits...)
	}
	assert.Equal(t, buffer, rebuilt)

	var ierr *ktree.IntegrityError
	_, err = RegroupByModule(buffer, moduleIDs, []int32{3, 0, 2})
	require.ErrorAs(t, err, &ierr)
	_, err = RegroupByModule(buffer, moduleIDs, []int32{3, 0, 4})
	require.ErrorAs(t, err, &ierr)
	_, err = RegroupByModule(buffer, moduleIDs[:2], counts)
	require.ErrorAs(t, err, &ierr)
}

func daqHeaderRec(detector, run, frame int32, utcSeconds, utc16 uint32) []byte {
	rec := make([]byte, daqHeaderSize)
	for _, off := range []int{0, 6, 12, 30} {
		binary.LittleEndian.PutUint32(rec[off:], 0x28)
		binary.LittleEndian.PutUint16(rec[off+4:], 3)
	}
	binary.BigEndian.PutUint32(rec[18:], uint32(detector))
	binary.BigEndian.PutUint32(rec[22:], uint32(run))
	binary.BigEndian.PutUint32(rec[26:], uint32(frame))
	binary.BigEndian.PutUint32(rec[36:], utcSeconds)
	binary.BigEndian.PutUint32(rec[40:], utc16)
	return rec
}

func skipBytes(n int) []byte {
	return bytes.Repeat([]byte{0xAA}, n)
}

func summaryFramesPayload(frames ...SummaryFrame) []byte {
	payload := skipBytes(10)
	for _, f := range frames {
		rec := make([]byte, summaryFrameSize)
		binary.BigEndian.PutUint32(rec[0:], uint32(f.DomID))
		binary.BigEndian.PutUint32(rec[4:], f.DQStatus)
		binary.BigEndian.PutUint32(rec[8:], f.HRV)
		binary.BigEndian.PutUint32(rec[12:], f.FIFO)
		binary.BigEndian.PutUint32(rec[16:], f.Status3)
		binary.BigEndian.PutUint32(rec[20:], f.Status4)
		copy(rec[24:], f.Ch[:])
		payload = append(payload, rec...)
	}
	return payload
}

func snapshotHitsPayload(hits ...SnapshotHit) []byte {
	payload := skipBytes(10)
	for _, h := range hits {
		rec := make([]byte, snapshotHitSize)
		binary.BigEndian.PutUint32(rec[0:], uint32(h.DomID))
		rec[4] = h.Channel
		binary.LittleEndian.PutUint32(rec[5:], h.Time)
		rec[9] = h.ToT
		payload = append(payload, rec...)
	}
	return payload
}

func triggeredHitsPayload(hits ...TriggeredHit) []byte {
	payload := skipBytes(10)
	for _, h := range hits {
		rec := make([]byte, triggeredHitSize)
		binary.BigEndian.PutUint32(rec[0:], uint32(h.DomID))
		rec[4] = h.Channel
		binary.LittleEndian.PutUint32(rec[5:], h.Time)
		rec[9] = h.ToT
		binary.LittleEndian.PutUint32(rec[10:], 0x28)
		binary.LittleEndian.PutUint16(rec[14:], 3)
		binary.BigEndian.PutUint64(rec[16:], h.TriggerMask)
		payload = append(payload, rec...)
	}
	return payload
}

func timesliceBufferPayload(hits ...TimesliceHit) []byte {
	payload := skipBytes(6)
	for _, h := range hits {
		rec := make([]byte, timesliceHitSize)
		rec[0] = h.PMT
		binary.LittleEndian.PutUint32(rec[1:], h.TDC)
		rec[5] = h.ToT
		payload = append(payload, rec...)
	}
	return payload
}

var fixtureFrames = []SummaryFrame{
	{
		DomID:    806451572,
		DQStatus: 0x00150014,
		HRV:      0b101,
		FIFO:     1 << 31,
		Ch:       [ChannelCount]uint8{0: 0, 1: 1, 30: 255},
	},
	{
		DomID:    808432835,
		DQStatus: 0x00010001,
		Ch:       [ChannelCount]uint8{5: 120},
	},
	{
		DomID: 808451904,
		HRV:   1,
		Ch:    [ChannelCount]uint8{0: 42},
	},
}

var fixtureSnapshot = []SnapshotHit{
	{DomID: 806451572, Channel: 4, Time: 23456, ToT: 28},
	{DomID: 808432835, Channel: 12, Time: 23499, ToT: 22},
	{DomID: 806451572, Channel: 0, Time: 23512, ToT: 17},
}

var fixtureTriggered = []TriggeredHit{
	{DomID: 806451572, Channel: 4, Time: 23456, ToT: 28, TriggerMask: 16},
	{DomID: 808432835, Channel: 12, Time: 23499, ToT: 22, TriggerMask: 4},
}

var fixtureTimesliceHits = []TimesliceHit{
	{PMT: 3, TDC: 1001, ToT: 11},
	{PMT: 7, TDC: 1005, ToT: 12},
	{PMT: 1, TDC: 1010, ToT: 13},
}

func writeOnlineFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "online.ktree")
	w := ktree.NewWriter(path)

	headers := jagged.FromLists([][]byte{
		daqHeaderRec(44, 5971, 100, 1567036818, 0),
		daqHeaderRec(44, 5971, 101, 1567036818, 625000),
	})
	require.NoError(t, ktree.WriteBranch(w, EventHeaderBranch,
		ktree.BranchSpec{DType: ktree.Bytes}, headers.Offsets(), headers.RawValues()))

	snapshot := jagged.FromLists([][]byte{
		snapshotHitsPayload(fixtureSnapshot...),
		snapshotHitsPayload(),
	})
	require.NoError(t, ktree.WriteBranch(w, SnapshotHitsBranch,
		ktree.BranchSpec{DType: ktree.Bytes, HeaderSkip: 10},
		snapshot.Offsets(), snapshot.RawValues()))

	triggered := jagged.FromLists([][]byte{
		triggeredHitsPayload(fixtureTriggered...),
		triggeredHitsPayload(),
	})
	require.NoError(t, ktree.WriteBranch(w, TriggeredHitsBranch,
		ktree.BranchSpec{DType: ktree.Bytes, HeaderSkip: 10},
		triggered.Offsets(), triggered.RawValues()))

	summaryHeaders := jagged.FromLists([][]byte{
		daqHeaderRec(44, 5971, 100, 1567036818, 0),
		daqHeaderRec(44, 5971, 101, 1567036818, 625000),
	})
	require.NoError(t, ktree.WriteBranch(w, SummaryHeaderBranch,
		ktree.BranchSpec{DType: ktree.Bytes}, summaryHeaders.Offsets(), summaryHeaders.RawValues()))

	summaryFrames := jagged.FromLists([][]byte{
		summaryFramesPayload(fixtureFrames[0], fixtureFrames[1]),
		summaryFramesPayload(fixtureFrames[2]),
	})
	require.NoError(t, ktree.WriteBranch(w, SummaryFrameBranch,
		ktree.BranchSpec{DType: ktree.Bytes, HeaderSkip: 10, Codec: ktree.CodecZstd},
		summaryFrames.Offsets(), summaryFrames.RawValues()))

	ids := jagged.FromLists([][]int32{{808432835, 806451572}})
	require.NoError(t, ktree.WriteBranch(w, "KM3NET_TIMESLICE_L1/id",
		ktree.BranchSpec{DType: ktree.I32}, ids.Offsets(), ids.RawValues()))

	counts := jagged.FromLists([][]int32{{2, 1}})
	require.NoError(t, ktree.WriteBranch(w, "KM3NET_TIMESLICE_L1/numberOfHits",
		ktree.BranchSpec{DType: ktree.I32}, counts.Offsets(), counts.RawValues()))

	buffer := jagged.FromLists([][]byte{timesliceBufferPayload(fixtureTimesliceHits...)})
	require.NoError(t, ktree.WriteBranch(w, "KM3NET_TIMESLICE_L1/buffer",
		ktree.BranchSpec{DType: ktree.Bytes, HeaderSkip: 6},
		buffer.Offsets(), buffer.RawValues()))

	require.NoError(t, w.Close())
	return path
}

func TestSummarysliceReader(t *testing.T) {
	f, err := ktree.Open(writeOnlineFixture(t))
	require.NoError(t, err)
	defer f.Close()

	r, err := NewSummarysliceReader(f, WithStepSize(1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.Entries())
	assert.Equal(t, 2, r.NumChunks())

	chunk, err := r.Chunk(0)
	require.NoError(t, err)
	require.Len(t, chunk, 1)

	sl := chunk[0]
	assert.Equal(t, DAQHeader{
		DetectorID: 44,
		Run:        5971,
		FrameIndex: 100,
		UTCSeconds: 1567036818,
	}, sl.Header)
	require.Len(t, sl.Frames, 2)
	assert.Equal(t, fixtureFrames[0], sl.Frames[0])
	assert.Equal(t, fixtureFrames[1], sl.Frames[1])

	// Decoders compose with the frame fields.
	assert.True(t, HasUDPTrailer(sl.Frames[0].FIFO))
	assert.False(t, HasUDPTrailer(sl.Frames[1].FIFO))
	assert.Equal(t, uint32(0x14), NumberUDPPackets(sl.Frames[0].DQStatus))
	assert.Equal(t, uint32(0x15), UDPMaxSequenceNumber(sl.Frames[0].DQStatus))
	hrv := ChannelFlags(sl.Frames[0].HRV)
	assert.True(t, hrv[0])
	assert.True(t, hrv[2])
	assert.False(t, hrv[1])

	rates := sl.Frames[0].RatesHz()
	assert.Equal(t, 0.0, rates[0])
	assert.InDelta(t, MaximalRateHz, rates[30], 1.0)

	last, err := r.Chunk(-1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, int32(101), last[0].Header.FrameIndex)
	assert.Equal(t, uint32(625000), last[0].Header.UTC16ns)
	assert.Equal(t, fixtureFrames[2], last[0].Frames[0])

	_, err = r.Chunk(2)
	assert.Error(t, err)
	_, err = r.Chunk(-3)
	assert.Error(t, err)

	var n int
	for it := r.Iterate(); it.Next(); {
		n += len(it.Chunk())
	}
	assert.Equal(t, 2, n)
}

func TestRateView(t *testing.T) {
	view := RateView(fixtureFrames)
	require.Len(t, view, 3)
	for i, fr := range view {
		assert.Equal(t, fixtureFrames[i].DomID, fr.DomID)
		assert.Equal(t, fixtureFrames[i].Ch, fr.Ch)
	}

	cols := RateColumns()
	require.Len(t, cols, ChannelCount)
	assert.Equal(t, "ch0", cols[0])
	assert.Equal(t, "ch30", cols[30])
}

func TestTimesliceReader(t *testing.T) {
	f, err := ktree.Open(writeOnlineFixture(t))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"L1"}, TimesliceStreams(f))

	r, err := NewTimesliceReader(f, "L1")
	require.NoError(t, err)
	assert.Equal(t, "L1", r.Stream())
	assert.Equal(t, int64(1), r.Entries())

	ts, err := r.Timeslice(0)
	require.NoError(t, err)
	require.Len(t, ts.Frames, 2)
	assert.Equal(t, int32(808432835), ts.Frames[0].ModuleID)
	assert.Equal(t, fixtureTimesliceHits[:2], ts.Frames[0].Hits)
	assert.Equal(t, int32(806451572), ts.Frames[1].ModuleID)
	assert.Equal(t, fixtureTimesliceHits[2:], ts.Frames[1].Hits)

	frame, ok := ts.Frame(806451572)
	require.True(t, ok)
	assert.Equal(t, fixtureTimesliceHits[2:], frame.Hits)
	_, ok = ts.Frame(12345)
	assert.False(t, ok)

	_, err = NewTimesliceReader(f, "SN")
	assert.Error(t, err)
}

func TestEventReader(t *testing.T) {
	f, err := ktree.Open(writeOnlineFixture(t))
	require.NoError(t, err)
	defer f.Close()

	r, err := NewEventReader(f)
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.Entries())

	ev, err := r.Event(0)
	require.NoError(t, err)
	assert.Equal(t, int32(5971), ev.Header.Run)
	assert.Equal(t, int32(100), ev.Header.FrameIndex)
	assert.Equal(t, fixtureSnapshot, ev.SnapshotHits)
	assert.Equal(t, fixtureTriggered, ev.TriggeredHits)

	empty, err := r.Event(1)
	require.NoError(t, err)
	assert.Empty(t, empty.SnapshotHits)
	assert.Empty(t, empty.TriggeredHits)
}

func TestReaderStreams(t *testing.T) {
	r, err := Open(writeOnlineFixture(t))
	require.NoError(t, err)
	defer r.Close()

	assert.NotEmpty(t, r.UUID())
	assert.Equal(t, []string{"L1"}, r.TimesliceStreams())

	events, err := r.Events()
	require.NoError(t, err)
	again, err := r.Events()
	require.NoError(t, err)
	assert.Same(t, events, again)

	slices, err := r.Summaryslices()
	require.NoError(t, err)
	assert.Equal(t, defaultStepSize, slices.StepSize())
	assert.Equal(t, 1, slices.NumChunks())

	ts, err := r.Timeslices("L1")
	require.NoError(t, err)
	tsAgain, err := r.Timeslices("L1")
	require.NoError(t, err)
	assert.Same(t, ts, tsAgain)
}
