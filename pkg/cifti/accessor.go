package cifti

import "fmt"

// ListStructures enumerates the surface and volume structures present along
// dir, each in index order.
func ListStructures(m *Matrix, dir Direction) (surfaces, volumes []Structure, err error) {
	bm, err := m.BrainModels(dir)
	if err != nil {
		return nil, nil, err
	}
	return bm.SurfaceStructures(), bm.VolumeStructures(), nil
}

// CheckROISpace verifies that the ROI's brainordinates, read along its column
// direction, are exactly the brainordinates of m along dir.
func CheckROISpace(m *Matrix, dir Direction, roi *Matrix) error {
	mine, err := m.BrainModels(dir)
	if err != nil {
		return err
	}
	theirs, ok := roi.Map(AlongColumn).(*BrainModelsMap)
	if !ok || !mine.Equal(theirs) {
		return ErrIncompatibleBrainordinateSpace
	}
	return nil
}

// CheckSurface verifies that a surface with numVertices vertices can be used
// for structure s along dir.
func CheckSurface(m *Matrix, dir Direction, s Structure, numVertices int) error {
	bm, err := m.BrainModels(dir)
	if err != nil {
		return err
	}
	want, err := bm.SurfaceVertexCount(s)
	if err != nil {
		return err
	}
	if numVertices != want {
		return fmt.Errorf("%w: %s surface has %d vertices, brain model expects %d",
			ErrSurfaceVertexCountMismatch, s, numVertices, want)
	}
	return nil
}
