package tools

import (
	"fmt"
	"math"

	"github.com/km3py/km3go/definitions"
	"github.com/km3py/km3go/jagged"
	"github.com/km3py/km3go/rootio"
)

// trackFloatFields are the numeric per-track leaves carried into a
// selected track when present.
var trackFloatFields = []string{
	"pos_x", "pos_y", "pos_z",
	"dir_x", "dir_y", "dir_z",
	"t", "E", "len", "lik",
}

var trackIntFields = []string{"id", "rec_type"}

// Tracks is a materialized track collection: the per-candidate stage
// lists, likelihoods and whatever numeric fields the file carries.
// Flat input (one event) has depth-2 RecStages, nested input (many
// events) depth-3.
type Tracks struct {
	RecStages jagged.Array[int32]
	Lik       jagged.Array[float64]
	Fitinf    jagged.Array[float64] // one level deeper than Lik, optional
	Floats    map[string]jagged.Array[float64]
	Ints      map[string]jagged.Array[int32]
}

// Nested reports whether the collection spans multiple events.
func (t *Tracks) Nested() bool { return t.RecStages.Depth() == 3 }

// TracksFromBranch materializes a track collection from its
// accumulator, folding whatever chain it carries.
func TracksFromBranch(b *rootio.Branch) (*Tracks, error) {
	stages, err := rootio.Ints32(b, "rec_stages")
	if err != nil {
		return nil, err
	}
	lik, err := rootio.Floats64(b, "lik")
	if err != nil {
		return nil, err
	}
	t := &Tracks{
		RecStages: stages,
		Lik:       lik,
		Floats:    make(map[string]jagged.Array[float64]),
		Ints:      make(map[string]jagged.Array[int32]),
	}
	if b.Has("fitinf") {
		if t.Fitinf, err = rootio.Floats64(b, "fitinf"); err != nil {
			return nil, err
		}
	}
	for _, name := range trackFloatFields {
		if name == "lik" || !b.Has(name) {
			continue
		}
		arr, err := rootio.Floats64(b, name)
		if err != nil {
			return nil, err
		}
		t.Floats[name] = arr
	}
	for _, name := range trackIntFields {
		if !b.Has(name) {
			continue
		}
		arr, err := rootio.Ints32(b, name)
		if err != nil {
			return nil, err
		}
		t.Ints[name] = arr
	}
	return t, nil
}

// Track is one selected candidate. OK is false when no candidate
// matched the selector; numeric fields are then NaN and Index is -1,
// the explicit no-track marker.
type Track struct {
	OK        bool
	Index     int
	RecStages []int32
	Lik       float64
	Fitinf    []float64
	Floats    map[string]float64
	Ints      map[string]int32
}

func missingTrack(t *Tracks) Track {
	out := Track{
		Index:  -1,
		Lik:    math.NaN(),
		Floats: make(map[string]float64, len(t.Floats)),
		Ints:   make(map[string]int32, len(t.Ints)),
	}
	for name := range t.Floats {
		out.Floats[name] = math.NaN()
	}
	return out
}

// bestIndex runs the selection pipeline over one event's candidates:
// selector mask, then maximal stage-list length among the survivors,
// then stable argmax of the likelihood. Returns -1 when nothing
// matches.
func bestIndex(stageLists [][]int32, liks []float64, pred func([]int32) bool) int {
	maxLen := -1
	for _, stages := range stageLists {
		if pred(stages) && len(stages) > maxLen {
			maxLen = len(stages)
		}
	}
	if maxLen < 0 {
		return -1
	}
	best := -1
	for i, stages := range stageLists {
		if !pred(stages) || len(stages) != maxLen {
			continue
		}
		if best < 0 || liks[i] > liks[best] {
			best = i
		}
	}
	return best
}

func (t *Tracks) pick(event, index int) Track {
	out := Track{
		OK:     true,
		Index:  index,
		Floats: make(map[string]float64, len(t.Floats)),
		Ints:   make(map[string]int32, len(t.Ints)),
	}
	if t.Nested() {
		out.RecStages = nestedAt(t.RecStages, event, index)
		out.Lik = t.Lik.RawValues()[flatIndex(t.Lik, event, index)]
		for name, arr := range t.Floats {
			out.Floats[name] = arr.RawValues()[flatIndex(arr, event, index)]
		}
		for name, arr := range t.Ints {
			out.Ints[name] = arr.RawValues()[flatIndex(arr, event, index)]
		}
		if t.Fitinf.Depth() == 3 {
			out.Fitinf = nestedAt(t.Fitinf, event, index)
		}
	} else {
		lists, _ := t.RecStages.Lists()
		out.RecStages = lists[index]
		out.Lik = t.Lik.RawValues()[index]
		for name, arr := range t.Floats {
			out.Floats[name] = arr.RawValues()[index]
		}
		for name, arr := range t.Ints {
			out.Ints[name] = arr.RawValues()[index]
		}
		if t.Fitinf.Depth() == 2 {
			fit, _ := t.Fitinf.Lists()
			out.Fitinf = fit[index]
		}
	}
	return out
}

func flatIndex[T any](a jagged.Array[T], event, index int) int64 {
	return a.Offsets()[0][event] + int64(index)
}

func nestedAt[T any](a jagged.Array[T], event, index int) []T {
	outer, inner := a.Offsets()[0], a.Offsets()[1]
	list := outer[event] + int64(index)
	return a.RawValues()[inner[list]:inner[list+1]]
}

// BestTrack selects the best candidate of a single-event (flat) track
// collection. The selector is validated before any data is touched.
func BestTrack(t *Tracks, sel Selector) (Track, error) {
	if n := sel.given(); n != 1 {
		return Track{}, &SelectorError{Given: n}
	}
	if t.Nested() {
		return Track{}, fmt.Errorf("tools: BestTrack needs a single event, use BestTracks")
	}
	stageLists, err := t.RecStages.Lists()
	if err != nil {
		return Track{}, err
	}
	idx := bestIndex(stageLists, t.Lik.RawValues(), sel.predicate())
	if idx < 0 {
		return missingTrack(t), nil
	}
	return t.pick(0, idx), nil
}

// BestTracks selects the best candidate per event of a nested track
// collection. Events without a matching candidate get the explicit
// no-track marker, they never crash the selection.
func BestTracks(t *Tracks, sel Selector) ([]Track, error) {
	if n := sel.given(); n != 1 {
		return nil, &SelectorError{Given: n}
	}
	if !t.Nested() {
		return nil, fmt.Errorf("tools: BestTracks needs per-event nesting, use BestTrack")
	}
	stages, err := t.RecStages.Nested()
	if err != nil {
		return nil, err
	}
	liks, err := t.Lik.Lists()
	if err != nil {
		return nil, err
	}
	pred := sel.predicate()
	out := make([]Track, len(stages))
	for event := range stages {
		idx := bestIndex(stages[event], liks[event], pred)
		if idx < 0 {
			out[event] = missingTrack(t)
			continue
		}
		out[event] = t.pick(event, idx)
	}
	return out, nil
}

// Reconstruction-chain shortcuts.

func BestJmuon(t *Tracks) ([]Track, error) {
	return BestTracks(t, MinMax(definitions.JMuonBegin, definitions.JMuonEnd))
}

func BestJshower(t *Tracks) ([]Track, error) {
	return BestTracks(t, MinMax(definitions.JShowerBegin, definitions.JShowerEnd))
}

func BestAashower(t *Tracks) ([]Track, error) {
	return BestTracks(t, MinMax(definitions.AAShowerBegin, definitions.AAShowerEnd))
}

func BestDusjshower(t *Tracks) ([]Track, error) {
	return BestTracks(t, MinMax(definitions.DusjShowerBegin, definitions.DusjShowerEnd))
}

// anyMatch reduces a stage mask to one flag per outer entry.
func anyMatch(stages jagged.Array[int32], sel Selector) (jagged.Array[bool], error) {
	m, err := Mask(stages, sel)
	if err != nil {
		return jagged.Array[bool]{}, err
	}
	if m.Depth() == 1 {
		for _, v := range m.RawValues() {
			if v {
				return jagged.Scalar(true), nil
			}
		}
		return jagged.Scalar(false), nil
	}
	return jagged.Any(m)
}

// HasJmuon reports, per event, whether any candidate came from the
// muon reconstruction chain.
func HasJmuon(stages jagged.Array[int32]) (jagged.Array[bool], error) {
	return anyMatch(stages, MinMax(definitions.JMuonBegin, definitions.JMuonEnd))
}

func HasJshower(stages jagged.Array[int32]) (jagged.Array[bool], error) {
	return anyMatch(stages, MinMax(definitions.JShowerBegin, definitions.JShowerEnd))
}

func HasAashower(stages jagged.Array[int32]) (jagged.Array[bool], error) {
	return anyMatch(stages, MinMax(definitions.AAShowerBegin, definitions.AAShowerEnd))
}

func HasDusjshower(stages jagged.Array[int32]) (jagged.Array[bool], error) {
	return anyMatch(stages, MinMax(definitions.DusjShowerBegin, definitions.DusjShowerEnd))
}
