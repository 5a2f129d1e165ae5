package tools

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km3py/km3go/jagged"
)

func TestMaskSelectors(t *testing.T) {
	stages := jagged.FromLists([][]int32{
		{1, 2, 3},
		{1, 2},
		{},
		{3, 2, 1},
		{1, 2, 3, 4},
	})

	m, err := Mask(stages, Selector{Sequence: []int32{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, false, false}, m.RawValues())

	m, err = Mask(stages, StartEnd(1, 3))
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, false, false}, m.RawValues())

	m, err = Mask(stages, StartEnd(3, 1))
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false, true, false}, m.RawValues())

	m, err = Mask(stages, MinMax(1, 3))
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false, true, false}, m.RawValues())

	m, err = Mask(stages, Selector{AtLeast: []int32{2, 3}})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, true, true}, m.RawValues())
}

func TestMaskSelectorExclusivity(t *testing.T) {
	stages := jagged.FromLists([][]int32{{1, 2}})

	var selErr *SelectorError
	_, err := Mask(stages, Selector{})
	require.ErrorAs(t, err, &selErr)
	assert.Equal(t, 0, selErr.Given)

	_, err = Mask(stages, Selector{Sequence: []int32{1}, MinMax: &[2]int32{0, 9}})
	require.ErrorAs(t, err, &selErr)
	assert.Equal(t, 2, selErr.Given)

	_, err = BestTrack(&Tracks{RecStages: stages, Lik: jagged.Flat([]float64{1})}, Selector{})
	assert.ErrorAs(t, err, &selErr)
	_, err = BestTracks(&Tracks{}, Selector{
		StartEnd: &[2]int32{1, 3},
		AtLeast:  []int32{1},
	})
	assert.ErrorAs(t, err, &selErr)
}

func TestMaskDescendsNesting(t *testing.T) {
	stages := jagged.FromNested([][][]int32{
		{{1, 2}, {1, 2, 3}},
		{},
		{{5, 6}, {1, 2, 3}, {1}},
	})
	m, err := Mask(stages, MinMax(1, 3))
	require.NoError(t, err)
	require.Equal(t, 2, m.Depth())
	lists, err := m.Lists()
	require.NoError(t, err)
	assert.Equal(t, [][]bool{
		{true, true},
		{},
		{false, true, true},
	}, lists)
}

func newNestedTracks() *Tracks {
	return &Tracks{
		RecStages: jagged.FromNested([][][]int32{
			{{1, 2}, {1, 2, 3}, {1, 2, 3}},
			{},
			{{100, 101}, {1, 2}},
		}),
		Lik: jagged.FromLists([][]float64{
			{5.0, 9.0, 12.0},
			{},
			{40.0, 13.5},
		}),
		Fitinf: jagged.FromNested([][][]float64{
			{{0.1}, {0.2, 0.3}, {0.4}},
			{},
			{{}, {0.5}},
		}),
		Floats: map[string]jagged.Array[float64]{
			"E": jagged.FromLists([][]float64{{10, 20, 30}, {}, {40, 50}}),
		},
		Ints: map[string]jagged.Array[int32]{
			"id": jagged.FromLists([][]int32{{0, 1, 2}, {}, {0, 1}}),
		},
	}
}

func TestBestTracksEndToEnd(t *testing.T) {
	tracks := newNestedTracks()
	best, err := BestTracks(tracks, MinMax(0, 99))
	require.NoError(t, err)
	require.Len(t, best, 3)

	// Length tie between candidates 1 and 2, higher lik wins.
	assert.True(t, best[0].OK)
	assert.Equal(t, 2, best[0].Index)
	assert.Equal(t, []int32{1, 2, 3}, best[0].RecStages)
	assert.Equal(t, 12.0, best[0].Lik)
	assert.Equal(t, 30.0, best[0].Floats["E"])
	assert.Equal(t, int32(2), best[0].Ints["id"])
	assert.Equal(t, []float64{0.4}, best[0].Fitinf)

	// No candidates at all: explicit missing marker.
	assert.False(t, best[1].OK)
	assert.Equal(t, -1, best[1].Index)
	assert.True(t, math.IsNaN(best[1].Lik))
	assert.True(t, math.IsNaN(best[1].Floats["E"]))

	// Candidate 0 fails the range selector.
	assert.True(t, best[2].OK)
	assert.Equal(t, 1, best[2].Index)
	assert.Equal(t, 13.5, best[2].Lik)
}

func TestBestTrackFlatInput(t *testing.T) {
	tracks := &Tracks{
		RecStages: jagged.FromLists([][]int32{{1, 2}, {1, 2, 3}, {1, 2, 3}}),
		Lik:       jagged.Flat([]float64{5.0, 9.0, 12.0}),
	}
	best, err := BestTrack(tracks, MinMax(0, 99))
	require.NoError(t, err)
	assert.True(t, best.OK)
	assert.Equal(t, 2, best.Index)
	assert.Equal(t, []int32{1, 2, 3}, best.RecStages)
	assert.Equal(t, 12.0, best.Lik)

	_, err = BestTracks(tracks, MinMax(0, 99))
	assert.Error(t, err)

	none, err := BestTrack(tracks, MinMax(200, 299))
	require.NoError(t, err)
	assert.False(t, none.OK)
	assert.Equal(t, -1, none.Index)
}

func TestBestTrackTieBreakIsStable(t *testing.T) {
	tracks := &Tracks{
		RecStages: jagged.FromNested([][][]int32{
			{{1, 2, 3}, {1, 2, 4}, {1, 2, 5}},
		}),
		Lik: jagged.FromLists([][]float64{{7.5, 7.5, 3.0}}),
	}
	for i := 0; i < 10; i++ {
		best, err := BestTracks(tracks, MinMax(0, 99))
		require.NoError(t, err)
		assert.Equal(t, 0, best[0].Index, "equal lik must resolve to the first candidate")
	}
}

func TestHasReconstruction(t *testing.T) {
	stages := jagged.FromNested([][][]int32{
		{{1, 2}, {100, 101}},
		{{300}},
		{},
	})

	got, err := HasJmuon(stages)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false}, got.RawValues())

	got, err = HasJshower(stages)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false}, got.RawValues())

	got, err = HasAashower(stages)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false}, got.RawValues())

	got, err = HasDusjshower(stages)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false}, got.RawValues())
}

func TestGetMultiplicity(t *testing.T) {
	stages := jagged.FromNested([][][]int32{
		{{1, 2, 3}, {1, 2, 3}, {1, 2}},
		{},
		{{1, 2, 3}},
	})
	counts, err := GetMultiplicity(stages, []int32{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 0, 1}, counts)

	flat := jagged.FromLists([][]int32{{1, 2, 3}, {1, 2}, {1, 2, 3}})
	counts, err = GetMultiplicity(flat, []int32{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, counts)
}

func TestFitinfMissingIsNaN(t *testing.T) {
	fitinf := jagged.FromNested([][][]float64{
		{{0.5, 1.5, 2.5}, {0.5}},
		{{}},
	})
	got, err := Fitinf(2, fitinf)
	require.NoError(t, err)
	lists, err := got.Lists()
	require.NoError(t, err)
	assert.Equal(t, 2.5, lists[0][0])
	assert.True(t, math.IsNaN(lists[0][1]))
	assert.True(t, math.IsNaN(lists[1][0]))

	byName, err := FitinfByName("JGANDALF_CHI2", fitinf)
	require.NoError(t, err)
	assert.Equal(t, got.RawValues()[0], byName.RawValues()[0])

	_, err = FitinfByName("NOT_A_PARAM", fitinf)
	assert.Error(t, err)
}

func TestUsrFastAndSlowPathsAgree(t *testing.T) {
	uniform := [][]string{
		{"cc", "by", "ichan"},
		{"cc", "by", "ichan"},
	}
	values := jagged.FromLists([][]float64{{2, 0.5, 1}, {3, 0.7, 0}})

	fast, err := Usr(uniform, values, "by")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.7}, fast)

	// Same data with a shuffled copy of the second name list forces
	// the slow path; values present under the field must still come
	// out in object order.
	ragged := [][]string{
		{"cc", "by", "ichan"},
		{"by", "cc"},
	}
	raggedValues := jagged.FromLists([][]float64{{2, 0.5, 1}, {0.7, 3}})
	slow, err := Usr(ragged, raggedValues, "by")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.7}, slow)

	_, err = Usr(uniform, values, "nope")
	assert.Error(t, err)
}

func TestUniqueCountAndCountNested(t *testing.T) {
	arr := jagged.FromLists([][]int32{{1, 1, 2}, {}, {3, 3, 3}, {1, 2, 3}})
	counts, err := UniqueCount(arr)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 0, 1, 3}, counts)

	nested := jagged.FromNested([][][]int32{
		{{1, 2}, {3}},
		{},
		{{4, 5, 6}},
	})
	n0, err := CountNested(nested, 0)
	require.NoError(t, err)
	v, _ := n0.ScalarValue()
	assert.Equal(t, int64(3), v)

	n1, err := CountNested(nested, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 0, 1}, n1.RawValues())

	n2, err := CountNested(nested, 2)
	require.NoError(t, err)
	lists, err := n2.Lists()
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{2, 1}, {}, {3}}, lists)
}

func TestTriggerBits(t *testing.T) {
	assert.False(t, IsBitSet(int64(0), 0))
	assert.True(t, IsBitSet(int64(1), 0))

	var mask uint64 = 1<<1 | 1<<4
	assert.True(t, Is3DShower(mask))
	assert.True(t, Is3DMuon(mask))
	assert.False(t, IsMXShower(mask))
	assert.False(t, IsNanoBeacon(mask))

	assert.Equal(t, []bool{false, true, true},
		BitsSet([]int64{0, 2, 6}, 1))
}

func TestTimeConverter(t *testing.T) {
	assert.Equal(t, 0.0, TimeOfFrame(0))
	assert.Equal(t, 0.0, TimeOfFrame(1))
	assert.Equal(t, 2e8, TimeOfFrame(3))

	tc := NewTimeConverter(1.5e8, 3)
	daq := tc.DAQTime(100.0)
	assert.Equal(t, 100.0+(1.5e8-2e8), daq)
	assert.Equal(t, 100.0, tc.MCTime(daq))
	assert.Equal(t, []float64{daq, daq + 1}, tc.DAQTimes([]float64{100, 101}))
}

func TestW2listParam(t *testing.T) {
	w2list := jagged.FromLists([][]float64{
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22},
		{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120, 130, 140, 150, 160, 170, 180, 190, 200, 210, 220},
	})
	got, err := W2listParam(w2list, "gseagen", "W2LIST_GSEAGEN_BY")
	require.NoError(t, err)
	require.Len(t, got, 2)

	_, err = W2listParam(w2list, "corsika", "W2LIST_GSEAGEN_BY")
	assert.Error(t, err)
	_, err = W2listParam(w2list, "gseagen", "W2LIST_GENHEN_BY")
	assert.Error(t, err)

	short := jagged.FromLists([][]float64{{1}})
	_, err = W2listParam(short, "gseagen", "W2LIST_GSEAGEN_CUSTOM_ROLL")
	assert.Error(t, err)
}
