// Package visualization renders volume components as grayscale slice images
// for quality control of a dilation.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"ciftidilate/internal/models"
	"ciftidilate/pkg/cifti"
)

// Viewer extracts axis-aligned slices from a volume whose values lie in [0, 1].
type Viewer struct {
	volume *models.Volume
}

// NewViewer creates a viewer over vol.
func NewViewer(vol *models.Volume) *Viewer {
	return &Viewer{volume: vol}
}

// FromComponent copies map k of comp into a volume scaled to [0, 1] over its
// defined voxels. Undefined voxels are 0.
func FromComponent(comp *cifti.VolumeComponent, k int) (*models.Volume, error) {
	if k < 0 || k >= len(comp.Maps) {
		return nil, fmt.Errorf("map %d out of range, component has %d maps", k, len(comp.Maps))
	}
	vol := &models.Volume{
		Data:   make([]float64, comp.Len()),
		Width:  comp.Dims[0],
		Height: comp.Dims[1],
		Depth:  comp.Dims[2],
	}
	axis := func(a int) float64 {
		return r3.Norm(r3.Vec{X: comp.SForm[0][a], Y: comp.SForm[1][a], Z: comp.SForm[2][a]})
	}
	vol.VoxelSize.X, vol.VoxelSize.Y, vol.VoxelSize.Z = axis(0), axis(1), axis(2)

	values := comp.Maps[k]
	var defined []float64
	for i, v := range values {
		if comp.Defined[i] {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return vol, nil
	}
	lo, hi := floats.Min(defined), floats.Max(defined)
	for i, v := range values {
		if !comp.Defined[i] {
			continue
		}
		if hi > lo {
			vol.Data[i] = (v - lo) / (hi - lo)
		} else {
			vol.Data[i] = 1
		}
	}
	return vol, nil
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}
	w, h, d := v.volume.Width, v.volume.Height, v.volume.Depth
	data := v.volume.Data
	gray := func(idx int) color.Gray16 {
		if idx >= len(data) {
			return color.Gray16{}
		}
		return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, data[idx]*65535)))}
	}

	var img *image.Gray16
	switch axis {
	case "x", "X":
		if position >= w {
			return nil, fmt.Errorf("position %d exceeds width %d", position, w)
		}
		img = image.NewGray16(image.Rect(0, 0, d, h))
		for y := 0; y < h; y++ {
			for z := 0; z < d; z++ {
				img.SetGray16(z, y, gray(z*w*h+y*w+position))
			}
		}

	case "y", "Y":
		if position >= h {
			return nil, fmt.Errorf("position %d exceeds height %d", position, h)
		}
		img = image.NewGray16(image.Rect(0, 0, w, d))
		for z := 0; z < d; z++ {
			for x := 0; x < w; x++ {
				img.SetGray16(x, z, gray(z*w*h+position*w+x))
			}
		}

	case "z", "Z":
		if position >= d {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, d)
		}
		img = image.NewGray16(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetGray16(x, y, gray(position*w*h+y*w+x))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves a sequence of slices along the specified axis
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.volume.Width
	case "y", "Y":
		maxPos = v.volume.Height
	case "z", "Z":
		maxPos = v.volume.Depth
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}

// ExportComponent writes the slices of map k of comp along every axis into
// x, y and z subdirectories of outputDir.
func ExportComponent(comp *cifti.VolumeComponent, k int, outputDir string) error {
	vol, err := FromComponent(comp, k)
	if err != nil {
		return err
	}
	viewer := NewViewer(vol)
	for _, axis := range []string{"x", "y", "z"} {
		if err := viewer.SaveSliceSequence(axis, filepath.Join(outputDir, axis)); err != nil {
			return fmt.Errorf("saving %s-axis slices: %w", axis, err)
		}
	}
	return nil
}
