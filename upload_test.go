package evdvk

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	trackA = []float32{0, 0, 0, 1, 0, 0, 2, 0, 0}
	trackB = []float32{0, 1, 0, 0, 2, 0}
)

// geometry is what the last recorded frame draws: the bytes of each bound
// buffer alongside its vertex count.
func geometry(t *testing.T, fake *fakeDriver) ([][]byte, []uint32) {
	t.Helper()
	require.NotEmpty(t, fake.records)
	draws := fake.records[len(fake.records)-1]
	var data [][]byte
	var counts []uint32
	for _, d := range draws {
		data = append(data, fake.contents[d.buffer])
		counts = append(counts, d.vertices)
	}
	return data, counts
}

func TestLoadConsolidated(t *testing.T) {
	tb := newTestBackend(t, DefaultConfig())
	tb.fake.reset()

	require.NoError(t, tb.LoadVertexData([][]float32{trackA, trackB}))
	assert.Equal(t, []string{"WaitIdle", "CreateBuffer 60"}, tb.fake.calls)
	assert.Equal(t, 5, tb.Stats().Vertices)
	assert.Equal(t, 1, tb.Stats().Buffers)

	tb.drawFrame(t)
	data, counts := geometry(t, tb.fake)
	assert.Equal(t, []uint32{5}, counts)
	assert.Equal(t, [][]byte{float32Bytes(append(append([]float32{}, trackA...), trackB...))}, data)
}

func TestLoadPartitioned(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MultiBuffer = true
	tb := newTestBackend(t, cfg)

	require.NoError(t, tb.LoadVertexData([][]float32{trackA, nil, trackB}))
	assert.Equal(t, 2, tb.Stats().Buffers)
	assert.Equal(t, 5, tb.Stats().Vertices)

	tb.drawFrame(t)
	data, counts := geometry(t, tb.fake)
	assert.Equal(t, []uint32{3, 2}, counts)
	assert.Equal(t, [][]byte{float32Bytes(trackA), float32Bytes(trackB)}, data)
}

func TestReloadSameDataKeepsGeometry(t *testing.T) {
	for _, multi := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.MultiBuffer = multi
		tb := newTestBackend(t, cfg)
		event := [][]float32{trackA, trackB}

		require.NoError(t, tb.LoadVertexData(event))
		tb.drawFrame(t)
		firstData, firstCounts := geometry(t, tb.fake)

		tb.fake.reset()
		require.NoError(t, tb.LoadVertexData(event))
		tb.drawFrame(t)
		secondData, secondCounts := geometry(t, tb.fake)

		assert.Equal(t, firstData, secondData, "multi=%v", multi)
		assert.Equal(t, firstCounts, secondCounts, "multi=%v", multi)
		tb.fake.idleBefore(t, "ClearBuffer")
		assert.Empty(t, tb.fake.violations)
		// Old buffers are gone, only uniforms and the new set remain.
		assert.Len(t, tb.fake.live, FramesInFlight+tb.Stats().Buffers)
	}
}

func TestLoadRejectsPartialTriples(t *testing.T) {
	tb := newTestBackend(t, DefaultConfig())
	require.NoError(t, tb.LoadVertexData([][]float32{trackA}))
	tb.fake.reset()

	err := tb.LoadVertexData([][]float32{trackB, {1, 2}})
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Empty(t, tb.fake.calls, "nothing is touched")
	assert.Equal(t, 3, tb.Stats().Vertices)
}

func TestLoadEmpty(t *testing.T) {
	tb := newTestBackend(t, DefaultConfig())
	require.NoError(t, tb.LoadVertexData([][]float32{trackA}))

	require.NoError(t, tb.LoadVertexData(nil))
	assert.Equal(t, 0, tb.Stats().Buffers)
	assert.Equal(t, 0, tb.Stats().Vertices)

	tb.drawFrame(t)
	assert.Empty(t, tb.fake.records[len(tb.fake.records)-1])
}

func TestLoadFailureReleasesNewBuffers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MultiBuffer = true
	tb := newTestBackend(t, cfg)
	tb.fake.failBuffer = tb.fake.buffersMade + 2

	err := tb.LoadVertexData([][]float32{trackA, trackB, trackA})
	assert.ErrorIs(t, err, ErrAllocation)
	assert.Len(t, tb.fake.live, FramesInFlight)
	assert.Equal(t, 0, tb.Stats().Buffers)
	assert.Empty(t, tb.fake.violations)

	// The backend keeps drawing, just with nothing bound.
	tb.drawFrame(t)
	assert.Empty(t, tb.fake.records[len(tb.fake.records)-1])
}

func TestLoadFailureMidFrameRerecords(t *testing.T) {
	tb := newTestBackend(t, DefaultConfig())
	require.NoError(t, tb.LoadVertexData([][]float32{trackA}))
	old := tb.verts.buffers[0]

	require.NoError(t, tb.PrepareDraw())
	require.NoError(t, tb.SetMatrices(mgl32.Ident4(), mgl32.Ident4()))
	tb.fake.failBuffer = tb.fake.buffersMade + 1
	assert.ErrorIs(t, tb.LoadVertexData([][]float32{trackB}), ErrAllocation)
	assert.True(t, old.Released())
	tb.fake.reset()
	require.NoError(t, tb.FinishDraw())

	// The submitted commands must not bind the buffer freed by the load.
	assert.Equal(t, 1, tb.fake.count("Record"))
	assert.Empty(t, tb.fake.records[len(tb.fake.records)-1])
	assert.Empty(t, tb.fake.violations)
}

func TestLoadMidFrameRerecords(t *testing.T) {
	tb := newTestBackend(t, DefaultConfig())
	require.NoError(t, tb.LoadVertexData([][]float32{trackA}))

	require.NoError(t, tb.PrepareDraw())
	require.NoError(t, tb.SetMatrices(mgl32.Ident4(), mgl32.Ident4()))
	require.NoError(t, tb.LoadVertexData([][]float32{trackB}))
	tb.fake.reset()
	require.NoError(t, tb.FinishDraw())

	assert.Equal(t, 1, tb.fake.count("Record"))
	_, counts := geometry(t, tb.fake)
	assert.Equal(t, []uint32{2}, counts)
	assert.Empty(t, tb.fake.violations)
}
