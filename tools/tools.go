package tools

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/constraints"

	"github.com/km3py/km3go/definitions"
	"github.com/km3py/km3go/jagged"
)

// Fitinf extracts one fit parameter per track. A track whose fitinf
// list is shorter than the parameter index yields NaN, never an index
// error. The innermost level is consumed: depth-3 input gives
// per-event lists, depth-2 input a flat array.
func Fitinf(param int, fitinf jagged.Array[float64]) (jagged.Array[float64], error) {
	if param < 0 {
		return jagged.Array[float64]{}, fmt.Errorf("tools: negative fit parameter index %d", param)
	}
	if fitinf.Depth() < 2 {
		return jagged.Array[float64]{}, fmt.Errorf("tools: fitinf needs per-track lists, got depth %d", fitinf.Depth())
	}
	layers := fitinf.Offsets()
	inner := layers[len(layers)-1]
	values := fitinf.RawValues()
	out := make([]float64, len(inner)-1)
	for i := range out {
		sub := values[inner[i]:inner[i+1]]
		if param < len(sub) {
			out[i] = sub[param]
		} else {
			out[i] = math.NaN()
		}
	}
	if len(layers) == 1 {
		return jagged.Flat(out), nil
	}
	return jagged.FromOffsets(layers[:len(layers)-1], out)
}

// FitinfByName resolves the parameter through the global
// fit-parameter table first.
func FitinfByName(name string, fitinf jagged.Array[float64]) (jagged.Array[float64], error) {
	param, ok := definitions.Fitparameters[name]
	if !ok {
		return jagged.Array[float64]{}, fmt.Errorf("tools: unknown fit parameter %q", name)
	}
	return Fitinf(param, fitinf)
}

// GetMultiplicity counts, per event, the candidates whose rec_stages
// equal the given sequence exactly. Flat (single-event) input yields a
// single count.
func GetMultiplicity(stages jagged.Array[int32], sequence []int32) ([]int64, error) {
	m, err := Mask(stages, Selector{Sequence: sequence})
	if err != nil {
		return nil, err
	}
	if m.Depth() == 1 {
		var n int64
		for _, v := range m.RawValues() {
			if v {
				n++
			}
		}
		return []int64{n}, nil
	}
	outer := m.Offsets()[0]
	values := m.RawValues()
	out := make([]int64, len(outer)-1)
	for i := range out {
		for _, v := range values[outer[i]:outer[i+1]] {
			if v {
				out[i]++
			}
		}
	}
	return out, nil
}

// ParseUsrNames splits the per-object name payloads of a usr_names
// byte branch into name lists.
func ParseUsrNames(raw jagged.Array[byte]) ([][]string, error) {
	lists, err := raw.Lists()
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(lists))
	for i, b := range lists {
		out[i] = strings.Fields(string(b))
	}
	return out, nil
}

// Usr returns the user-data value of one named field per object. When
// every object carries the same name list the value is taken by
// position; otherwise each object's names are searched and only
// objects carrying the field contribute, in order. Both paths agree
// whenever both apply, the uniformity check only guards the shortcut.
func Usr(names [][]string, usr jagged.Array[float64], field string) ([]float64, error) {
	values, err := usr.Lists()
	if err != nil {
		return nil, err
	}
	if len(names) != len(values) {
		return nil, fmt.Errorf("tools: %d name lists for %d usr entries", len(names), len(values))
	}
	if uniformNames(names) {
		idx := -1
		for i, name := range names[0] {
			if name == field {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("tools: no usr field %q, available fields: %s",
				field, strings.Join(names[0], ", "))
		}
		out := make([]float64, len(values))
		for i, vals := range values {
			if idx >= len(vals) {
				return nil, fmt.Errorf("tools: usr entry %d has %d values, field %q is at %d",
					i, len(vals), field, idx)
			}
			out[i] = vals[idx]
		}
		return out, nil
	}
	var out []float64
	for i, objNames := range names {
		for j, name := range objNames {
			if name != field {
				continue
			}
			if j >= len(values[i]) {
				return nil, fmt.Errorf("tools: usr entry %d has %d values for %d names",
					i, len(values[i]), len(objNames))
			}
			out = append(out, values[i][j])
		}
	}
	return out, nil
}

func uniformNames(names [][]string) bool {
	if len(names) == 0 {
		return true
	}
	first := names[0]
	for _, other := range names[1:] {
		if len(other) != len(first) {
			return false
		}
		for i := range other {
			if other[i] != first[i] {
				return false
			}
		}
	}
	return true
}

// UniqueCount returns the number of distinct elements per innermost
// list.
func UniqueCount[T comparable](arr jagged.Array[T]) ([]int64, error) {
	if arr.Depth() != 2 {
		return nil, fmt.Errorf("tools: UniqueCount needs a depth-2 array, got %d", arr.Depth())
	}
	lists, err := arr.Lists()
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(lists))
	seen := make(map[T]struct{})
	for i, list := range lists {
		for k := range seen {
			delete(seen, k)
		}
		for _, v := range list {
			seen[v] = struct{}{}
		}
		out[i] = int64(len(seen))
	}
	return out, nil
}

// CountNested counts elements along one nesting axis: axis 0 is the
// outer length, axis 1 the per-entry counts, axis 2 the counts one
// level deeper.
func CountNested[T any](arr jagged.Array[T], axis int) (jagged.Array[int64], error) {
	switch axis {
	case 0:
		return jagged.Scalar(int64(arr.Len())), nil
	case 1:
		if arr.Depth() < 2 {
			return jagged.Array[int64]{}, fmt.Errorf("tools: axis 1 needs depth >= 2, got %d", arr.Depth())
		}
		outer := arr.Offsets()[0]
		out := make([]int64, len(outer)-1)
		for i := range out {
			out[i] = outer[i+1] - outer[i]
		}
		return jagged.Flat(out), nil
	case 2:
		if arr.Depth() < 3 {
			return jagged.Array[int64]{}, fmt.Errorf("tools: axis 2 needs depth >= 3, got %d", arr.Depth())
		}
		layers := arr.Offsets()
		inner := layers[1]
		counts := make([]int64, len(inner)-1)
		for i := range counts {
			counts[i] = inner[i+1] - inner[i]
		}
		return jagged.FromOffsets([][]int64{layers[0]}, counts)
	}
	return jagged.Array[int64]{}, fmt.Errorf("tools: unsupported axis %d", axis)
}

// IsBitSet reports whether the bit at the given position is 1.
func IsBitSet[T constraints.Integer](value T, position int) bool {
	return value&(1<<position) != 0
}

// BitsSet is the batched form of IsBitSet.
func BitsSet[T constraints.Integer](values []T, position int) []bool {
	out := make([]bool, len(values))
	for i, v := range values {
		out[i] = IsBitSet(v, position)
	}
	return out
}

// Is3DShower reports whether a trigger mask contains the 3D shower
// flag.
func Is3DShower[T constraints.Integer](triggerMask T) bool {
	return IsBitSet(triggerMask, definitions.JTrigger3DShower)
}

// IsMXShower reports whether a trigger mask contains the MX shower
// flag.
func IsMXShower[T constraints.Integer](triggerMask T) bool {
	return IsBitSet(triggerMask, definitions.JTriggerMXShower)
}

// Is3DMuon reports whether a trigger mask contains the 3D muon flag.
func Is3DMuon[T constraints.Integer](triggerMask T) bool {
	return IsBitSet(triggerMask, definitions.JTrigger3DMuon)
}

// IsNanoBeacon reports whether a trigger mask contains the nano-beacon
// flag.
func IsNanoBeacon[T constraints.Integer](triggerMask T) bool {
	return IsBitSet(triggerMask, definitions.JTriggerNB)
}

// FrameTimeNS is the length of one DAQ frame in nanoseconds (100 ms).
const FrameTimeNS = 1e8

// TimeOfFrame is the start time of a DAQ frame in ns since the start
// of the run.
func TimeOfFrame(frameIndex int64) float64 {
	if frameIndex > 0 {
		return float64(frameIndex-1) * FrameTimeNS
	}
	return 0
}

// TimeConverter converts between Monte Carlo hit times and
// DAQ/triggered hit times of one event.
type TimeConverter struct {
	offset float64
}

// NewTimeConverter captures the event's MC time and DAQ frame.
func NewTimeConverter(mcTime float64, frameIndex int64) TimeConverter {
	return TimeConverter{offset: mcTime - TimeOfFrame(frameIndex)}
}

// DAQTime converts a simulated time to a DAQ/triggered hit time.
func (c TimeConverter) DAQTime(t float64) float64 { return t + c.offset }

// MCTime converts a DAQ/triggered hit time to a Monte Carlo time.
func (c TimeConverter) MCTime(t float64) float64 { return t - c.offset }

// DAQTimes converts a batch of simulated times.
func (c TimeConverter) DAQTimes(ts []float64) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = c.DAQTime(t)
	}
	return out
}

// W2listParam extracts one named w2list parameter per event. The name
// tables depend on the generator that produced the file.
func W2listParam(w2list jagged.Array[float64], generator, param string) ([]float64, error) {
	var table map[string]int
	switch generator {
	case "genhen":
		table = definitions.W2listGenhen
	case "gseagen":
		table = definitions.W2listGseagen
	default:
		return nil, fmt.Errorf("tools: unknown generator %q", generator)
	}
	idx, ok := table[param]
	if !ok {
		return nil, fmt.Errorf("tools: no w2list parameter %q for generator %s", param, generator)
	}
	lists, err := w2list.Lists()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(lists))
	for i, list := range lists {
		if idx >= len(list) {
			return nil, fmt.Errorf("tools: w2list of event %d has %d entries, parameter %q is at %d",
				i, len(list), param, idx)
		}
		out[i] = list[idx]
	}
	return out, nil
}
