package ktree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km3py/km3go/jagged"
)

func writeFixture(t *testing.T, opts ...WriterOption) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.ktree")
	w := NewWriter(path, opts...)

	require.NoError(t, WriteBranch(w, "E/Evt/id", BranchSpec{DType: I64},
		nil, []int64{10, 11, 12, 13}))

	dom := jagged.FromLists([][]int32{{806451572, 806455814}, {}, {808432835}, {806451572, 808432835, 808451904}})
	require.NoError(t, WriteBranch(w, "E/Evt/hits/hits.dom_id",
		BranchSpec{DType: I32, Codec: CodecZstd},
		dom.Offsets(), dom.RawValues()))

	tot := jagged.FromLists([][]float64{{24.5, 30.0}, {}, {17.1}, {26.0, 28.5, 22.0}})
	require.NoError(t, WriteBranch(w, "E/Evt/hits/hits.tot",
		BranchSpec{DType: F64, Codec: CodecZlib},
		tot.Offsets(), tot.RawValues()))

	stages := jagged.FromNested([][][]int32{
		{{1, 2}, {1, 2, 3}},
		{},
		{{1}},
		{{1, 2, 4}, {1}, {1, 2}},
	})
	require.NoError(t, WriteBranch(w, "E/Evt/trks/trks.rec_stages",
		BranchSpec{DType: I32, Codec: CodecSnappy},
		stages.Offsets(), stages.RawValues()))

	frames := jagged.FromLists([][]byte{
		{0xde, 0xad, 0xbe, 0xef, 0x01},
		{0xca, 0xfe, 0x02},
	})
	require.NoError(t, WriteBranch(w, "KM3NET_SUMMARYSLICE/vector<int>",
		BranchSpec{DType: Bytes, HeaderSkip: 4},
		frames.Offsets(), frames.RawValues()))

	require.NoError(t, w.Close())
	return path
}

func TestOpenParsesDirectory(t *testing.T) {
	id := uuid.MustParse("b192d888-fcc7-11e9-b430-6cf09e86beef")
	path := writeFixture(t, WithUUID(id), WithHeaderText("detector: D_ORCA006\n"))

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, id, f.UUID())
	assert.Equal(t, "detector: D_ORCA006\n", f.HeaderText())
	assert.Equal(t, []string{
		"E/Evt/id",
		"E/Evt/hits/hits.dom_id",
		"E/Evt/hits/hits.tot",
		"E/Evt/trks/trks.rec_stages",
		"KM3NET_SUMMARYSLICE/vector<int>",
	}, f.Keys())
	assert.True(t, f.Has("E/Evt/id"))
	assert.False(t, f.Has("E/Evt/missing"))
}

func TestBranchMetadata(t *testing.T) {
	f, err := Open(writeFixture(t))
	require.NoError(t, err)
	defer f.Close()

	b, err := f.Branch("E/Evt/hits/hits.dom_id")
	require.NoError(t, err)
	assert.Equal(t, int64(4), b.Entries())
	assert.Equal(t, 2, b.Depth())
	assert.Equal(t, I32, b.DType())
	assert.Equal(t, CodecZstd, b.Codec())

	frames, err := f.Branch("KM3NET_SUMMARYSLICE/vector<int>")
	require.NoError(t, err)
	assert.Equal(t, 4, frames.HeaderBytes())

	_, err = f.Branch("E/Evt/nope")
	var notFound *BranchNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "E/Evt/nope", notFound.Path)
}

func TestReadAllRoundTrips(t *testing.T) {
	f, err := Open(writeFixture(t))
	require.NoError(t, err)
	defer f.Close()

	ids, err := f.Branch("E/Evt/id")
	require.NoError(t, err)
	flat, err := ReadAll[int64](ids)
	require.NoError(t, err)
	got, err := flat.Slice()
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11, 12, 13}, got)

	dom, err := f.Branch("E/Evt/hits/hits.dom_id")
	require.NoError(t, err)
	arr, err := ReadAll[int32](dom)
	require.NoError(t, err)
	lists, err := arr.Lists()
	require.NoError(t, err)
	assert.Equal(t, [][]int32{{806451572, 806455814}, {}, {808432835}, {806451572, 808432835, 808451904}}, lists)

	tot, err := f.Branch("E/Evt/hits/hits.tot")
	require.NoError(t, err)
	farr, err := ReadAll[float64](tot)
	require.NoError(t, err)
	flists, err := farr.Lists()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{24.5, 30.0}, {}, {17.1}, {26.0, 28.5, 22.0}}, flists)

	stages, err := f.Branch("E/Evt/trks/trks.rec_stages")
	require.NoError(t, err)
	narr, err := ReadAll[int32](stages)
	require.NoError(t, err)
	nested, err := narr.Nested()
	require.NoError(t, err)
	assert.Equal(t, [][][]int32{
		{{1, 2}, {1, 2, 3}},
		{},
		{{1}},
		{{1, 2, 4}, {1}, {1, 2}},
	}, nested)

	frames, err := f.Branch("KM3NET_SUMMARYSLICE/vector<int>")
	require.NoError(t, err)
	barr, err := ReadAll[byte](frames)
	require.NoError(t, err)
	blists, err := barr.Lists()
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0xde, 0xad, 0xbe, 0xef, 0x01}, {0xca, 0xfe, 0x02}}, blists)
}

func TestReadRangeWindow(t *testing.T) {
	f, err := Open(writeFixture(t))
	require.NoError(t, err)
	defer f.Close()

	dom, err := f.Branch("E/Evt/hits/hits.dom_id")
	require.NoError(t, err)
	arr, err := ReadRange[int32](dom, 2, 4)
	require.NoError(t, err)
	lists, err := arr.Lists()
	require.NoError(t, err)
	assert.Equal(t, [][]int32{{808432835}, {806451572, 808432835, 808451904}}, lists)

	stages, err := f.Branch("E/Evt/trks/trks.rec_stages")
	require.NoError(t, err)
	narr, err := ReadRange[int32](stages, 1, 3)
	require.NoError(t, err)
	nested, err := narr.Nested()
	require.NoError(t, err)
	assert.Equal(t, [][][]int32{{}, {{1}}}, nested)

	empty, err := ReadRange[int32](dom, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	_, err = ReadRange[int32](dom, 0, 5)
	assert.Error(t, err)
}

func TestReadTypeMismatch(t *testing.T) {
	f, err := Open(writeFixture(t))
	require.NoError(t, err)
	defer f.Close()

	dom, err := f.Branch("E/Evt/hits/hits.dom_id")
	require.NoError(t, err)
	_, err = ReadAll[float64](dom)
	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, I32, mismatch.Stored)
	assert.Equal(t, "float64", mismatch.Requested)
	assert.Contains(t, err.Error(), "int32")
	assert.Contains(t, err.Error(), "float64")
}

func TestChunkedBranch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunked.ktree")
	w := NewWriter(path, WithChunkValues(7))
	values := make([]float32, 100)
	for i := range values {
		values[i] = float32(i) / 2
	}
	require.NoError(t, WriteBranch(w, "rates", BranchSpec{DType: F32, Codec: CodecZstd}, nil, values))
	require.NoError(t, w.Close())

	f, err := Open(path, WithCacheChunks(2))
	require.NoError(t, err)
	defer f.Close()

	b, err := f.Branch("rates")
	require.NoError(t, err)
	require.Len(t, b.chunks, 15)

	arr, err := ReadAll[float32](b)
	require.NoError(t, err)
	got, err := arr.Slice()
	require.NoError(t, err)
	assert.Equal(t, values, got)

	// Mid-chunk window, re-read to exercise the cache.
	win, err := ReadRange[float32](b, 10, 25)
	require.NoError(t, err)
	slice, err := win.Slice()
	require.NoError(t, err)
	assert.Equal(t, values[10:25], slice)
	again, err := ReadRange[float32](b, 10, 25)
	require.NoError(t, err)
	slice2, err := again.Slice()
	require.NoError(t, err)
	assert.Equal(t, slice, slice2)
}

func TestCloseIsIdempotentAndBlocksReads(t *testing.T) {
	f, err := Open(writeFixture(t))
	require.NoError(t, err)
	b, err := f.Branch("E/Evt/id")
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = ReadAll[int64](b)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.ktree")
	require.NoError(t, os.WriteFile(path, []byte("ROOT but not really"), 0o644))

	_, err := Open(path)
	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, path, openErr.Path)

	_, err = Open(filepath.Join(t.TempDir(), "absent.ktree"))
	require.ErrorAs(t, err, &openErr)
}
