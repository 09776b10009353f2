package reduce

import (
	"bytes"
	"math"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ciftidilate/pkg/cifti"
)

func TestParse(t *testing.T) {
	for _, op := range Operations() {
		got, err := Parse(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}
	got, err := Parse(" sampstdev ")
	require.NoError(t, err)
	assert.Equal(t, SampleStdDev, got)

	_, err = Parse("MODE")
	assert.ErrorIs(t, err, ErrUnknownOperation)
	assert.Len(t, Operations(), 9)
	assert.Equal(t, Mean, Operations()[0])
}

func TestApply(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	for _, tc := range []struct {
		op   Operation
		want float64
	}{
		{Mean, 5},
		{Median, 4.5},
		{Min, 2},
		{Max, 9},
		{Sum, 40},
		{StdDev, 2},
		{SampleStdDev, math.Sqrt(32.0 / 7)},
		{Variance, 4},
		{CountNonzero, 8},
	} {
		t.Run(tc.op.String(), func(t *testing.T) {
			got, err := tc.op.Apply(values)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}
	assert.Equal(t, []float64{2, 4, 4, 4, 5, 5, 7, 9}, values)

	got, err := Median.Apply([]float64{3, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = SampleStdDev.Apply([]float64{3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = CountNonzero.Apply([]float64{0, 1, 0, -2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	_, err = Mean.Apply(nil)
	assert.ErrorIs(t, err, ErrNoMaps)
}

func TestExcludeOutliers(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	// mean 5, sd 2
	assert.Equal(t, []float64{4, 4, 4, 5, 5, 7}, ExcludeOutliers(values, 0.5, 1))
	assert.Equal(t, values, ExcludeOutliers(values, 2, 2))
}

func seriesMatrix(t *testing.T, maps [][]float64) *cifti.Matrix {
	t.Helper()
	bms, err := cifti.NewBrainModelsMap(nil, cifti.NewSurfaceModel(cifti.CortexLeft, 3, []int{0, 1, 2}))
	require.NoError(t, err)
	series, err := cifti.NewSeriesMap(len(maps), 0, 1, "SECOND")
	require.NoError(t, err)
	m, err := cifti.NewMatrix(series, bms)
	require.NoError(t, err)
	for k, values := range maps {
		for b, v := range values {
			m.SetValue(cifti.AlongColumn, b, k, v)
		}
	}
	return m
}

func TestReduce(t *testing.T) {
	in := seriesMatrix(t, [][]float64{{1, 0, 10}, {3, 0, 20}, {5, 6, 30}})

	out, err := Reduce(in, cifti.AlongColumn, Mean, Options{})
	require.NoError(t, err)
	rows, cols := out.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 1, cols)
	assert.True(t, out.Map(cifti.AlongColumn).Equal(in.Map(cifti.AlongColumn)))
	sm, ok := out.Map(cifti.AlongRow).(*cifti.ScalarsMap)
	require.True(t, ok)
	assert.Equal(t, "MEAN", sm.Name(0))
	assert.InDelta(t, 3.0, out.Value(cifti.AlongColumn, 0, 0), 1e-12)
	assert.InDelta(t, 2.0, out.Value(cifti.AlongColumn, 1, 0), 1e-12)
	assert.InDelta(t, 20.0, out.Value(cifti.AlongColumn, 2, 0), 1e-12)

	out, err = Reduce(in, cifti.AlongColumn, Max, Options{})
	require.NoError(t, err)
	assert.Equal(t, 6.0, out.Value(cifti.AlongColumn, 1, 0))
}

func TestReduceAlongRow(t *testing.T) {
	in := seriesMatrix(t, [][]float64{{1, 0, 10}, {3, 0, 20}})
	// Reducing along the series direction collapses the brainordinates.
	out, err := Reduce(in, cifti.AlongRow, Sum, Options{})
	require.NoError(t, err)
	rows, cols := out.Dims()
	assert.Equal(t, 1, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 11.0, out.Value(cifti.AlongRow, 0, 0))
	assert.Equal(t, 23.0, out.Value(cifti.AlongRow, 1, 0))
}

func TestReduceExcludeOutliers(t *testing.T) {
	maps := make([][]float64, 8)
	for k, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		maps[k] = []float64{v, 1, 1}
	}
	in := seriesMatrix(t, maps)
	out, err := Reduce(in, cifti.AlongColumn, Max, Options{ExcludeOutliers: true, SigmaBelow: 1, SigmaAbove: 1})
	require.NoError(t, err)
	assert.Equal(t, 7.0, out.Value(cifti.AlongColumn, 0, 0))
	assert.Equal(t, 1.0, out.Value(cifti.AlongColumn, 1, 0))

	_, err = Reduce(in, cifti.AlongColumn, Max, Options{ExcludeOutliers: true, SigmaBelow: -1})
	assert.Error(t, err)
}

func TestReduceLabelsWarns(t *testing.T) {
	bms, err := cifti.NewBrainModelsMap(nil, cifti.NewSurfaceModel(cifti.CortexLeft, 2, []int{0, 1}))
	require.NoError(t, err)
	lt := cifti.NewLabelTable()
	lt.Set(3, cifti.Label{Name: "v1"})
	labels, err := cifti.NewLabelsMap([]string{"a", "b"}, []*cifti.LabelTable{lt, cifti.NewLabelTable()})
	require.NoError(t, err)
	in, err := cifti.NewMatrix(labels, bms)
	require.NoError(t, err)
	in.SetValue(cifti.AlongColumn, 0, 0, 3)
	in.SetValue(cifti.AlongColumn, 0, 1, 3)

	var buf bytes.Buffer
	logger := log.New()
	logger.SetOutput(&buf)

	out, err := Reduce(in, cifti.AlongColumn, Max, Options{Logger: logger})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "reduction operation performed on label data")
	lm, ok := out.Map(cifti.AlongRow).(*cifti.LabelsMap)
	require.True(t, ok)
	assert.True(t, lm.LabelTable(0).Equal(lt))
	assert.Equal(t, 3.0, out.Value(cifti.AlongColumn, 0, 0))
}

func TestReduceRejectsBadDirection(t *testing.T) {
	in := seriesMatrix(t, [][]float64{{1, 2, 3}})
	_, err := Reduce(in, cifti.Direction(5), Mean, Options{})
	assert.ErrorIs(t, err, cifti.ErrUnsupportedAxis)
}
