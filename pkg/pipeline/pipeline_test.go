package pipeline

import (
	"context"
	"errors"
	"io"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"ciftidilate/pkg/cifti"
	"ciftidilate/pkg/dilate"
	"ciftidilate/pkg/surface"
)

var identitySForm = [3][4]float64{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}}

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

// ring is a unit square walked 0-1-2-3-0.
func ring(t *testing.T) *surface.Mesh {
	t.Helper()
	m, err := surface.NewMeshFromEdges(
		[]r3.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
		[][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
	)
	require.NoError(t, err)
	return m
}

// brainModels is CORTEX_LEFT on all 4 ring vertices followed by
// THALAMUS_LEFT on voxels (0..2,0,0) and THALAMUS_RIGHT on voxel (4,0,0).
func brainModels(t *testing.T) *cifti.BrainModelsMap {
	t.Helper()
	bms, err := cifti.NewBrainModelsMap(
		&cifti.VolumeSpace{Dims: [3]int{5, 1, 1}, SForm: identitySForm},
		cifti.NewSurfaceModel(cifti.CortexLeft, 4, []int{0, 1, 2, 3}),
		cifti.NewVolumeModel(cifti.ThalamusLeft, [][3]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}),
		cifti.NewVolumeModel(cifti.ThalamusRight, [][3]int{{4, 0, 0}}),
	)
	require.NoError(t, err)
	return bms
}

// matrix lays maps[k][b] out with the brainordinates along dir.
func matrix(t *testing.T, dir cifti.Direction, bms, other cifti.IndexMap, maps [][]float64) *cifti.Matrix {
	t.Helper()
	var m *cifti.Matrix
	var err error
	if dir == cifti.AlongColumn {
		m, err = cifti.NewMatrix(other, bms)
	} else {
		m, err = cifti.NewMatrix(bms, other)
	}
	require.NoError(t, err)
	for k, values := range maps {
		for b, v := range values {
			m.SetValue(dir, b, k, v)
		}
	}
	return m
}

func scalars(t *testing.T, names ...string) *cifti.ScalarsMap {
	t.Helper()
	s, err := cifti.NewScalarsMap(names...)
	require.NoError(t, err)
	return s
}

func column(m *cifti.Matrix, dir cifti.Direction, k int) []float64 {
	n := m.Map(dir).Length()
	out := make([]float64, n)
	for b := range out {
		out[b] = m.Value(dir, b, k)
	}
	return out
}

func baseParams(t *testing.T) *Params {
	return &Params{
		Direction:       cifti.AlongColumn,
		SurfaceDistance: 1,
		VolumeDistance:  1,
		LeftSurface:     ring(t),
		NumCores:        1,
		Logger:          quietLogger(),
	}
}

func TestProcessScalar(t *testing.T) {
	in := matrix(t, cifti.AlongColumn, brainModels(t), scalars(t, "a"),
		[][]float64{{0, 5, 0, 7, 4, 0, 10, 3}})

	d := NewDilator(baseParams(t))
	out, err := d.Process(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, Done, d.State())

	assert.InDeltaSlice(t, []float64{6, 5, 6, 7, 4, 7, 10, 3}, column(out, cifti.AlongColumn, 0), 1e-12)
	assert.True(t, out.Map(cifti.AlongColumn).Equal(in.Map(cifti.AlongColumn)))
	assert.True(t, out.Map(cifti.AlongRow).Equal(in.Map(cifti.AlongRow)))
	assert.Equal(t, []float64{0, 5, 0, 7, 4, 0, 10, 3}, column(in, cifti.AlongColumn, 0), "input untouched")

	report := d.GetReport()
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Components, 3)
	assert.Equal(t, []cifti.Structure{cifti.CortexLeft}, report.Components[0].Structures)
	assert.Equal(t, "surface", report.Components[0].Kind)
	assert.Equal(t, "volume", report.Components[1].Kind)
	assert.Equal(t, dilate.Stats{Bad: 3, Filled: 3}, report.Totals)
	assert.Greater(t, report.RMSChange, 0.0)
}

func TestProcessNearest(t *testing.T) {
	in := matrix(t, cifti.AlongColumn, brainModels(t), scalars(t, "a"),
		[][]float64{{0, 5, 0, 7, 4, 0, 10, 3}})
	p := baseParams(t)
	p.Nearest = true

	out, err := NewDilator(p).Process(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5, 5, 7, 4, 4, 10, 3}, column(out, cifti.AlongColumn, 0))
}

func TestProcessAlongRow(t *testing.T) {
	maps := [][]float64{{0, 5, 0, 7, 4, 0, 10, 3}, {1, 1, 0, 1, 0, 2, 2, 2}}
	byColumn := matrix(t, cifti.AlongColumn, brainModels(t), scalars(t, "a", "b"), maps)
	byRow := matrix(t, cifti.AlongRow, brainModels(t), scalars(t, "a", "b"), maps)

	outColumn, err := NewDilator(baseParams(t)).Process(context.Background(), byColumn)
	require.NoError(t, err)
	p := baseParams(t)
	p.Direction = cifti.AlongRow
	outRow, err := NewDilator(p).Process(context.Background(), byRow)
	require.NoError(t, err)

	for k := range maps {
		assert.InDeltaSlice(t, column(outColumn, cifti.AlongColumn, k), column(outRow, cifti.AlongRow, k), 1e-12)
	}
}

func TestProcessAllGoodIsIdentity(t *testing.T) {
	values := [][]float64{{1, 2, 3, 4, 5, 6, 7, 8}}
	in := matrix(t, cifti.AlongColumn, brainModels(t), scalars(t, "a"), values)
	d := NewDilator(baseParams(t))
	out, err := d.Process(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, values[0], column(out, cifti.AlongColumn, 0))
	assert.Equal(t, 0.0, d.GetReport().RMSChange)
}

func TestProcessROI(t *testing.T) {
	bms := brainModels(t)
	in := matrix(t, cifti.AlongColumn, bms, scalars(t, "a"), [][]float64{{0, 100, 5, 7, 4, 0, 10, 3}})
	roi := matrix(t, cifti.AlongColumn, bms, scalars(t, "roi", "ignored"),
		[][]float64{{0, 1, 0, 0, 0, 0, 0, 0}, {1, 1, 1, 1, 1, 1, 1, 1}})
	p := baseParams(t)
	p.BadROI = roi
	p.Nearest = true

	out, err := NewDilator(p).Process(context.Background(), in)
	require.NoError(t, err)
	// Only vertex 1 is replaced; the zeros elsewhere are good.
	assert.Equal(t, []float64{0, 0, 5, 7, 4, 0, 10, 3}, column(out, cifti.AlongColumn, 0))
}

func TestProcessMergedVolume(t *testing.T) {
	bms, err := cifti.NewBrainModelsMap(
		&cifti.VolumeSpace{Dims: [3]int{2, 1, 1}, SForm: identitySForm},
		cifti.NewVolumeModel(cifti.ThalamusLeft, [][3]int{{0, 0, 0}}),
		cifti.NewVolumeModel(cifti.ThalamusRight, [][3]int{{1, 0, 0}}),
	)
	require.NoError(t, err)
	in := matrix(t, cifti.AlongColumn, bms, scalars(t, "a"), [][]float64{{0, 9}})

	p := baseParams(t)
	out, err := NewDilator(p).Process(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 9}, column(out, cifti.AlongColumn, 0), "structures are separate")

	p.MergedVolume = true
	d := NewDilator(p)
	out, err = d.Process(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 9}, column(out, cifti.AlongColumn, 0))
	require.Len(t, d.GetReport().Components, 1)
	assert.Equal(t, "merged volume", d.GetReport().Components[0].Kind)
}

func TestProcessLabels(t *testing.T) {
	lt := cifti.NewLabelTable()
	lt.Set(1, cifti.Label{Name: "a"})
	lt.Set(2, cifti.Label{Name: "b"})
	labels, err := cifti.NewLabelsMap([]string{"parc"}, []*cifti.LabelTable{lt})
	require.NoError(t, err)
	in := matrix(t, cifti.AlongColumn, brainModels(t), labels, [][]float64{{0, 1, 0, 2, 1, 0, 2, 2}})

	d := NewDilator(baseParams(t))
	out, err := d.Process(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 2, 1, 1, 2, 2}, column(out, cifti.AlongColumn, 0))

	report := d.GetReport()
	assert.Equal(t, "label surface", report.Components[0].Kind)
	assert.Equal(t, "NEAREST", report.Components[1].Method, "label volumes always copy the nearest key")
}

func TestProcessParallelMatchesSequential(t *testing.T) {
	maps := [][]float64{{0, 5, 0, 7, 4, 0, 10, 3}, {3, 0, 0, 1, 0, 0, 8, 0}}
	in := matrix(t, cifti.AlongColumn, brainModels(t), scalars(t, "a", "b"), maps)

	seq := NewDilator(baseParams(t))
	want, err := seq.Process(context.Background(), in)
	require.NoError(t, err)

	p := baseParams(t)
	p.NumCores = 4
	par := NewDilator(p)
	got, err := par.Process(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, want.Dense().RawMatrix().Data, got.Dense().RawMatrix().Data)
	require.Len(t, par.GetReport().Components, len(seq.GetReport().Components))
	for i, c := range seq.GetReport().Components {
		assert.Equal(t, c.Structures, par.GetReport().Components[i].Structures)
	}
}

func TestProcessErrors(t *testing.T) {
	bms := brainModels(t)
	in := matrix(t, cifti.AlongColumn, bms, scalars(t, "a"), [][]float64{{0, 5, 0, 7, 4, 0, 10, 3}})

	smallRing, err := surface.NewMeshFromEdges([]r3.Vec{{}, {X: 1}, {Y: 1}}, [][2]int{{0, 1}, {1, 2}})
	require.NoError(t, err)
	otherBMS, err := cifti.NewBrainModelsMap(nil, cifti.NewSurfaceModel(cifti.CortexLeft, 4, []int{0, 1}))
	require.NoError(t, err)

	for _, tc := range []struct {
		name   string
		modify func(*Params)
		want   error
	}{
		{"missing surface", func(p *Params) { p.LeftSurface = nil }, cifti.ErrMissingRequiredSurface},
		{"vertex count", func(p *Params) { p.LeftSurface = smallRing }, cifti.ErrSurfaceVertexCountMismatch},
		{"unsupported axis", func(p *Params) { p.Direction = cifti.AlongRow }, cifti.ErrUnsupportedAxis},
		{"invalid direction", func(p *Params) { p.Direction = cifti.Direction(9) }, cifti.ErrUnsupportedAxis},
		{"roi space", func(p *Params) {
			p.BadROI = matrix(t, cifti.AlongColumn, otherBMS, scalars(t, "roi"), nil)
		}, cifti.ErrIncompatibleBrainordinateSpace},
		{"negative distance", func(p *Params) { p.VolumeDistance = -1 }, dilate.ErrBadInput},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := baseParams(t)
			tc.modify(p)
			d := NewDilator(p)
			out, err := d.Process(context.Background(), in)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tc.want)

			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, Validating, perr.State)
			assert.Equal(t, Failed, d.State())
		})
	}
}

func TestProcessMissingSurfaceMessage(t *testing.T) {
	in := matrix(t, cifti.AlongColumn, brainModels(t), scalars(t, "a"), nil)
	p := baseParams(t)
	p.LeftSurface = nil
	_, err := NewDilator(p).Process(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "left surface required but not provided")
}

func TestProcessCancelled(t *testing.T) {
	in := matrix(t, cifti.AlongColumn, brainModels(t), scalars(t, "a"), [][]float64{{0, 5, 0, 7, 4, 0, 10, 3}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, cores := range []int{1, 3} {
		p := baseParams(t)
		p.NumCores = cores
		d := NewDilator(p)
		out, err := d.Process(ctx, in)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, context.Canceled)
		var perr *Error
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, ExtractingSurfaces, perr.State)
		assert.Equal(t, Failed, d.State())
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "validating", Validating.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "State(42)", State(42).String())

	err := &Error{State: ExtractingVolumes, Structure: cifti.ThalamusLeft, Err: dilate.ErrBadInput}
	assert.Contains(t, err.Error(), "THALAMUS_LEFT")
	assert.ErrorIs(t, err, dilate.ErrBadInput)
}
