package visualization

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ciftidilate/internal/models"
	"ciftidilate/pkg/cifti"
)

// layeredVolume gives every z slice the value z/depth.
func layeredVolume(width, height, depth int) *models.Volume {
	vol := &models.Volume{Data: make([]float64, width*height*depth), Width: width, Height: height, Depth: depth}
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				vol.Data[z*width*height+y*width+x] = float64(z) / float64(depth)
			}
		}
	}
	return vol
}

func TestExtractSlice(t *testing.T) {
	width, height, depth := 10, 8, 5
	viewer := NewViewer(layeredVolume(width, height, depth))

	for z := 0; z < depth; z++ {
		img, err := viewer.ExtractSlice("z", z)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, width, height), img.Bounds())

		gray, ok := img.(*image.Gray16)
		require.True(t, ok, "expected *image.Gray16, got %T", img)
		want := uint16(float64(z) / float64(depth) * 65535)
		assert.InDelta(t, want, gray.Gray16At(width/2, height/2).Y, 1)
	}

	imgX, err := viewer.ExtractSlice("x", width/2)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, depth, height), imgX.Bounds())

	imgY, err := viewer.ExtractSlice("Y", height/2)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, width, depth), imgY.Bounds())

	_, err = viewer.ExtractSlice("invalid", 0)
	assert.Error(t, err)
	_, err = viewer.ExtractSlice("z", depth+1)
	assert.Error(t, err)
	_, err = viewer.ExtractSlice("z", -1)
	assert.Error(t, err)
}

func TestFromComponent(t *testing.T) {
	comp := &cifti.VolumeComponent{
		Dims:    [3]int{2, 2, 1},
		SForm:   [3][4]float64{{2, 0, 0, 0}, {0, 2, 0, 0}, {0, 0, 3, 0}},
		Maps:    [][]float64{{10, 20, 30, 99}},
		Defined: []bool{true, true, true, false},
	}

	vol, err := FromComponent(comp, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, vol.Width)
	assert.Equal(t, 2, vol.Height)
	assert.Equal(t, 1, vol.Depth)
	assert.InDelta(t, 2.0, vol.VoxelSize.X, 1e-12)
	assert.InDelta(t, 3.0, vol.VoxelSize.Z, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0}, vol.Data, 1e-12)

	_, err = FromComponent(comp, 1)
	assert.Error(t, err)
}

func TestFromComponentConstant(t *testing.T) {
	comp := &cifti.VolumeComponent{
		Dims:    [3]int{2, 1, 1},
		SForm:   [3][4]float64{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}},
		Maps:    [][]float64{{4, 4}},
		Defined: []bool{true, true},
	}
	vol, err := FromComponent(comp, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, vol.Data)
}

func TestSaveSlice(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}
	viewer := NewViewer(layeredVolume(10, 10, 5))

	img, err := viewer.ExtractSlice("z", 0)
	require.NoError(t, err)

	filename := filepath.Join(t.TempDir(), "test_slice.jpg")
	require.NoError(t, viewer.SaveSlice(img, filename))
	assert.FileExists(t, filename)
}

func TestSaveSliceSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}
	depth := 3
	viewer := NewViewer(layeredVolume(5, 5, depth))

	outputDir := filepath.Join(t.TempDir(), "slices")
	require.NoError(t, viewer.SaveSliceSequence("z", outputDir))
	for z := 0; z < depth; z++ {
		assert.FileExists(t, filepath.Join(outputDir, fmt.Sprintf("slice_z_%03d.jpg", z)))
	}

	assert.Error(t, viewer.SaveSliceSequence("invalid", outputDir))
}

func TestExportComponent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}
	comp := &cifti.VolumeComponent{
		Dims:    [3]int{3, 2, 2},
		SForm:   [3][4]float64{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}},
		Maps:    [][]float64{make([]float64, 12)},
		Defined: make([]bool, 12),
	}
	for i := range comp.Defined {
		comp.Defined[i] = true
		comp.Maps[0][i] = float64(i)
	}

	dir := t.TempDir()
	require.NoError(t, ExportComponent(comp, 0, dir))
	for axis, n := range map[string]int{"x": 3, "y": 2, "z": 2} {
		entries, err := os.ReadDir(filepath.Join(dir, axis))
		require.NoError(t, err)
		assert.Len(t, entries, n, "axis %s", axis)
	}
}
