package online

import (
	"encoding/binary"
	"fmt"

	"github.com/km3py/km3go/klog"
	"github.com/km3py/km3go/ktree"
)

// Stored branch paths of the triggered-event stream.
const (
	EventHeaderBranch   = "KM3NET_EVENT/header"
	SnapshotHitsBranch  = "KM3NET_EVENT/snapshotHits"
	TriggeredHitsBranch = "KM3NET_EVENT/triggeredHits"
)

const (
	snapshotHitSize  = 10
	triggeredHitSize = 24
)

// SnapshotHit is one hit of the snapshot window around a trigger.
type SnapshotHit struct {
	DomID   int32
	Channel uint8
	Time    uint32
	ToT     uint8
}

// TriggeredHit is a snapshot hit that took part in the trigger, tagged
// with the trigger mask that fired on it.
type TriggeredHit struct {
	DomID       int32
	Channel     uint8
	Time        uint32
	ToT         uint8
	TriggerMask uint64
}

func decodeSnapshotHits(payload []byte, skip int, source string) ([]SnapshotHit, error) {
	if len(payload) < skip || (len(payload)-skip)%snapshotHitSize != 0 {
		return nil, &ktree.IntegrityError{
			Source: source,
			Reason: fmt.Sprintf("hit payload of %d bytes does not hold %d-byte records behind a %d-byte header",
				len(payload), snapshotHitSize, skip),
		}
	}
	rec := payload[skip:]
	hits := make([]SnapshotHit, len(rec)/snapshotHitSize)
	for i := range hits {
		r := rec[i*snapshotHitSize:]
		hits[i] = SnapshotHit{
			DomID:   int32(binary.BigEndian.Uint32(r[0:4])),
			Channel: r[4],
			Time:    binary.LittleEndian.Uint32(r[5:9]),
			ToT:     r[9],
		}
	}
	return hits, nil
}

func decodeTriggeredHits(payload []byte, skip int, source string) ([]TriggeredHit, error) {
	if len(payload) < skip || (len(payload)-skip)%triggeredHitSize != 0 {
		return nil, &ktree.IntegrityError{
			Source: source,
			Reason: fmt.Sprintf("hit payload of %d bytes does not hold %d-byte records behind a %d-byte header",
				len(payload), triggeredHitSize, skip),
		}
	}
	rec := payload[skip:]
	hits := make([]TriggeredHit, len(rec)/triggeredHitSize)
	for i := range hits {
		r := rec[i*triggeredHitSize:]
		// A cnt/vers counter pair sits between the hit fields and the
		// trigger mask.
		hits[i] = TriggeredHit{
			DomID:       int32(binary.BigEndian.Uint32(r[0:4])),
			Channel:     r[4],
			Time:        binary.LittleEndian.Uint32(r[5:9]),
			ToT:         r[9],
			TriggerMask: binary.BigEndian.Uint64(r[16:24]),
		}
	}
	return hits, nil
}

// Event is one triggered DAQ event.
type Event struct {
	Header        DAQHeader
	SnapshotHits  []SnapshotHit
	TriggeredHits []TriggeredHit
}

// EventReader reads the triggered-event stream.
type EventReader struct {
	headers   *ktree.Branch
	snapshot  *ktree.Branch
	triggered *ktree.Branch
}

// NewEventReader opens the event stream of f.
func NewEventReader(f *ktree.File) (*EventReader, error) {
	headers, err := f.Branch(EventHeaderBranch)
	if err != nil {
		return nil, err
	}
	snapshot, err := f.Branch(SnapshotHitsBranch)
	if err != nil {
		return nil, err
	}
	triggered, err := f.Branch(TriggeredHitsBranch)
	if err != nil {
		return nil, err
	}
	return &EventReader{headers: headers, snapshot: snapshot, triggered: triggered}, nil
}

// Entries is the number of events in the stream.
func (r *EventReader) Entries() int64 { return r.headers.Entries() }

// Event reads and decodes event idx.
func (r *EventReader) Event(idx int64) (Event, error) {
	headerRecs, err := ktree.ReadRange[byte](r.headers, idx, idx+1)
	if err != nil {
		return Event{}, err
	}
	snapshotRecs, err := ktree.ReadRange[byte](r.snapshot, idx, idx+1)
	if err != nil {
		return Event{}, err
	}
	triggeredRecs, err := ktree.ReadRange[byte](r.triggered, idx, idx+1)
	if err != nil {
		return Event{}, err
	}
	headerPayloads, err := headerRecs.Lists()
	if err != nil {
		return Event{}, err
	}
	snapshotPayloads, err := snapshotRecs.Lists()
	if err != nil {
		return Event{}, err
	}
	triggeredPayloads, err := triggeredRecs.Lists()
	if err != nil {
		return Event{}, err
	}
	header, err := decodeDAQHeader(headerPayloads[0], "branch "+EventHeaderBranch)
	if err != nil {
		return Event{}, err
	}
	snapshot, err := decodeSnapshotHits(snapshotPayloads[0], r.snapshot.HeaderBytes(), "branch "+SnapshotHitsBranch)
	if err != nil {
		return Event{}, err
	}
	triggered, err := decodeTriggeredHits(triggeredPayloads[0], r.triggered.HeaderBytes(), "branch "+TriggeredHitsBranch)
	if err != nil {
		return Event{}, err
	}
	return Event{Header: header, SnapshotHits: snapshot, TriggeredHits: triggered}, nil
}

// Reader is the entry point for online files. The event, timeslice and
// summaryslice streams are opened on first use.
type Reader struct {
	file *ktree.File

	events        *EventReader
	summaryslices *SummarysliceReader
	timeslices    map[string]*TimesliceReader
}

// Open opens an online file.
func Open(path string) (*Reader, error) {
	f, err := ktree.Open(path)
	if err != nil {
		return nil, err
	}
	return NewReader(f), nil
}

// NewReader wraps an already opened file.
func NewReader(f *ktree.File) *Reader {
	return &Reader{file: f, timeslices: map[string]*TimesliceReader{}}
}

// File exposes the underlying container.
func (r *Reader) File() *ktree.File { return r.file }

// UUID is the identity of the underlying file.
func (r *Reader) UUID() string { return r.file.UUID().String() }

// Close releases the underlying file.
func (r *Reader) Close() error { return r.file.Close() }

// Events returns the triggered-event stream.
func (r *Reader) Events() (*EventReader, error) {
	if r.events == nil {
		events, err := NewEventReader(r.file)
		if err != nil {
			return nil, err
		}
		r.events = events
	}
	return r.events, nil
}

// Summaryslices returns the summaryslice stream.
func (r *Reader) Summaryslices(opts ...SummarysliceOption) (*SummarysliceReader, error) {
	if r.summaryslices == nil {
		slices, err := NewSummarysliceReader(r.file, opts...)
		if err != nil {
			return nil, err
		}
		r.summaryslices = slices
		klog.Info(fmt.Sprintf("summaryslice stream: %d slices in %d chunks",
			slices.Entries(), slices.NumChunks()), "online")
	}
	return r.summaryslices, nil
}

// TimesliceStreams lists the timeslice streams the file carries.
func (r *Reader) TimesliceStreams() []string {
	return TimesliceStreams(r.file)
}

// Timeslices returns the reader of one timeslice stream.
func (r *Reader) Timeslices(stream string) (*TimesliceReader, error) {
	if ts, ok := r.timeslices[stream]; ok {
		return ts, nil
	}
	ts, err := NewTimesliceReader(r.file, stream)
	if err != nil {
		return nil, err
	}
	r.timeslices[stream] = ts
	return ts, nil
}
