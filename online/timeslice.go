package online

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/km3py/km3go/ktree"
)

// Timeslice streams are stored one per trigger stage under
// KM3NET_TIMESLICE_<stream>, e.g. KM3NET_TIMESLICE_L1.
const timeslicePrefix = "KM3NET_TIMESLICE_"

// Sub-branches of one timeslice stream.
const (
	timesliceModuleIDs = "id"
	timesliceHitCounts = "numberOfHits"
	timesliceBuffer    = "buffer"
)

const timesliceHitSize = 6

// TimesliceHit is one raw, untriggered hit from a superframe buffer.
type TimesliceHit struct {
	PMT uint8
	TDC uint32
	ToT uint8
}

func decodeTimesliceHits(payload []byte, skip int, source string) ([]TimesliceHit, error) {
	if len(payload) < skip || (len(payload)-skip)%timesliceHitSize != 0 {
		return nil, &ktree.IntegrityError{
			Source: source,
			Reason: fmt.Sprintf("hit buffer of %d bytes does not hold %d-byte records behind a %d-byte header",
				len(payload), timesliceHitSize, skip),
		}
	}
	rec := payload[skip:]
	hits := make([]TimesliceHit, len(rec)/timesliceHitSize)
	for i := range hits {
		r := rec[i*timesliceHitSize:]
		hits[i] = TimesliceHit{
			PMT: r[0],
			TDC: binary.LittleEndian.Uint32(r[1:5]),
			ToT: r[5],
		}
	}
	return hits, nil
}

// ModuleFrame is the sub-sequence of a flat hit buffer belonging to
// one module, in buffer order.
type ModuleFrame[T any] struct {
	ModuleID int32
	Hits     []T
}

// RegroupByModule partitions a flat hit buffer into per-module frames
// by walking moduleIDs and hitCounts in lockstep. The frames keep the
// module order of moduleIDs and their hits share storage with buffer.
// The counts must account for every buffer element exactly.
func RegroupByModule[T any](buffer []T, moduleIDs []int32, hitCounts []int32) ([]ModuleFrame[T], error) {
	if len(moduleIDs) != len(hitCounts) {
		return nil, &ktree.IntegrityError{
			Source: "timeslice superframes",
			Reason: fmt.Sprintf("%d module ids for %d hit counts", len(moduleIDs), len(hitCounts)),
		}
	}
	frames := make([]ModuleFrame[T], len(moduleIDs))
	idx := 0
	for i, id := range moduleIDs {
		n := int(hitCounts[i])
		if n < 0 || idx+n > len(buffer) {
			return nil, &ktree.IntegrityError{
				Source: "timeslice superframes",
				Reason: fmt.Sprintf("hit counts overrun the buffer at module %d: offset %d, count %d, buffer %d",
					id, idx, n, len(buffer)),
			}
		}
		frames[i] = ModuleFrame[T]{ModuleID: id, Hits: buffer[idx : idx+n]}
		idx += n
	}
	if idx != len(buffer) {
		return nil, &ktree.IntegrityError{
			Source: "timeslice superframes",
			Reason: fmt.Sprintf("hit counts cover %d of %d buffer hits", idx, len(buffer)),
		}
	}
	return frames, nil
}

// Timeslice is one decoded timeslice: the hits of every superframe,
// grouped by module in stored order.
type Timeslice struct {
	Frames []ModuleFrame[TimesliceHit]
}

// Frame returns the frame of the given module.
func (t Timeslice) Frame(moduleID int32) (ModuleFrame[TimesliceHit], bool) {
	for _, f := range t.Frames {
		if f.ModuleID == moduleID {
			return f, true
		}
	}
	return ModuleFrame[TimesliceHit]{}, false
}

// TimesliceStreams lists the timeslice streams stored in f, sorted.
func TimesliceStreams(f *ktree.File) []string {
	seen := map[string]bool{}
	for _, key := range f.Keys() {
		if !strings.HasPrefix(key, timeslicePrefix) {
			continue
		}
		rest := strings.TrimPrefix(key, timeslicePrefix)
		stream, _, ok := strings.Cut(rest, "/")
		if ok {
			seen[stream] = true
		}
	}
	streams := maps.Keys(seen)
	sort.Strings(streams)
	return streams
}

// TimesliceReader reads one timeslice stream (L0, L1, L2 or SN).
type TimesliceReader struct {
	stream    string
	moduleIDs *ktree.Branch
	hitCounts *ktree.Branch
	buffer    *ktree.Branch
}

// NewTimesliceReader opens the named timeslice stream of f.
func NewTimesliceReader(f *ktree.File, stream string) (*TimesliceReader, error) {
	base := timeslicePrefix + stream + "/"
	moduleIDs, err := f.Branch(base + timesliceModuleIDs)
	if err != nil {
		return nil, err
	}
	hitCounts, err := f.Branch(base + timesliceHitCounts)
	if err != nil {
		return nil, err
	}
	buffer, err := f.Branch(base + timesliceBuffer)
	if err != nil {
		return nil, err
	}
	return &TimesliceReader{
		stream:    stream,
		moduleIDs: moduleIDs,
		hitCounts: hitCounts,
		buffer:    buffer,
	}, nil
}

// Stream is the stream name the reader was opened on.
func (r *TimesliceReader) Stream() string { return r.stream }

// Entries is the number of timeslices in the stream.
func (r *TimesliceReader) Entries() int64 { return r.moduleIDs.Entries() }

// Timeslice reads and regroups timeslice idx.
func (r *TimesliceReader) Timeslice(idx int64) (Timeslice, error) {
	ids, err := ktree.ReadRange[int32](r.moduleIDs, idx, idx+1)
	if err != nil {
		return Timeslice{}, err
	}
	counts, err := ktree.ReadRange[int32](r.hitCounts, idx, idx+1)
	if err != nil {
		return Timeslice{}, err
	}
	payload, err := ktree.ReadRange[byte](r.buffer, idx, idx+1)
	if err != nil {
		return Timeslice{}, err
	}
	idLists, err := ids.Lists()
	if err != nil {
		return Timeslice{}, err
	}
	countLists, err := counts.Lists()
	if err != nil {
		return Timeslice{}, err
	}
	payloads, err := payload.Lists()
	if err != nil {
		return Timeslice{}, err
	}
	source := "branch " + timeslicePrefix + r.stream + "/" + timesliceBuffer
	hits, err := decodeTimesliceHits(payloads[0], r.buffer.HeaderBytes(), source)
	if err != nil {
		return Timeslice{}, err
	}
	frames, err := RegroupByModule(hits, idLists[0], countLists[0])
	if err != nil {
		return Timeslice{}, err
	}
	return Timeslice{Frames: frames}, nil
}
