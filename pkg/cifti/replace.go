package cifti

import "fmt"

// PlaceSurface writes a surface component into the segment of its structure
// along dir. Indices outside that segment are not touched.
func PlaceSurface(out *Matrix, dir Direction, comp *SurfaceComponent) error {
	bms, err := out.BrainModels(dir)
	if err != nil {
		return err
	}
	bm, ok := bms.Surface(comp.Structure)
	if !ok {
		return fmt.Errorf("%w: no surface model for %s along %s", ErrStructureNotFound, comp.Structure, dir)
	}
	if comp.NumVertices != bm.SurfaceVertices {
		return fmt.Errorf("%w: %s component has %d vertices, brain model expects %d",
			ErrComponentShape, comp.Structure, comp.NumVertices, bm.SurfaceVertices)
	}
	if err := checkMaps(out, dir, comp.Maps, comp.NumVertices); err != nil {
		return fmt.Errorf("%s: %w", comp.Structure, err)
	}
	for k, values := range comp.Maps {
		for i, v := range bm.Vertices {
			out.SetValue(dir, bm.Offset+i, k, values[v])
		}
	}
	return nil
}

// PlaceVolume writes a volume component into the segments of every structure
// it holds along dir.
func PlaceVolume(out *Matrix, dir Direction, comp *VolumeComponent) error {
	bms, err := out.BrainModels(dir)
	if err != nil {
		return err
	}
	if err := checkMaps(out, dir, comp.Maps, comp.Len()); err != nil {
		return err
	}
	for _, s := range comp.Structures {
		bm, ok := bms.Volume(s)
		if !ok {
			return fmt.Errorf("%w: no volume model for %s along %s", ErrStructureNotFound, s, dir)
		}
		for _, ijk := range bm.Voxels {
			for a := 0; a < 3; a++ {
				if l := ijk[a] - comp.Offset[a]; l < 0 || l >= comp.Dims[a] {
					return fmt.Errorf("%w: voxel %v of %s outside component at %v size %v",
						ErrComponentShape, ijk, s, comp.Offset, comp.Dims)
				}
			}
		}
		for k, values := range comp.Maps {
			for i, ijk := range bm.Voxels {
				idx := comp.Index(ijk[0]-comp.Offset[0], ijk[1]-comp.Offset[1], ijk[2]-comp.Offset[2])
				out.SetValue(dir, bm.Offset+i, k, values[idx])
			}
		}
	}
	return nil
}

func checkMaps(out *Matrix, dir Direction, maps [][]float64, length int) error {
	if len(maps) != out.NumMaps(dir) {
		return fmt.Errorf("%w: component has %d maps, matrix has %d", ErrComponentShape, len(maps), out.NumMaps(dir))
	}
	for k, values := range maps {
		if len(values) != length {
			return fmt.Errorf("%w: map %d has %d values, want %d", ErrComponentShape, k, len(values), length)
		}
	}
	return nil
}
