package cifti

import "fmt"

// SurfaceComponent is the data of one surface structure laid out in vertex order.
type SurfaceComponent struct {
	Structure   Structure
	NumVertices int
	// Maps holds one value per vertex for every map of the opposite direction.
	Maps [][]float64
	// Defined marks the vertices that carry a brainordinate; the rest are zero.
	Defined []bool
}

// VolumeComponent is a dense sub-grid holding one or more volume structures.
type VolumeComponent struct {
	Structures []Structure
	// Offset is the position of voxel (0,0,0) of the sub-grid in the shared grid.
	Offset [3]int
	Dims   [3]int
	// SForm maps sub-grid indices to millimeters.
	SForm [3][4]float64
	// Maps holds one grid per map, i varying fastest.
	Maps    [][]float64
	Defined []bool
}

// Index returns the linear index of voxel (i, j, k) of the sub-grid.
func (c *VolumeComponent) Index(i, j, k int) int {
	return i + c.Dims[0]*(j+c.Dims[1]*k)
}

// Len returns the number of voxels of the sub-grid.
func (c *VolumeComponent) Len() int {
	return c.Dims[0] * c.Dims[1] * c.Dims[2]
}

// ExtractSurface separates the surface structure s along dir.
func ExtractSurface(m *Matrix, dir Direction, s Structure) (*SurfaceComponent, error) {
	bms, err := m.BrainModels(dir)
	if err != nil {
		return nil, err
	}
	bm, ok := bms.Surface(s)
	if !ok {
		return nil, fmt.Errorf("%w: no surface model for %s along %s", ErrStructureNotFound, s, dir)
	}
	numMaps := m.NumMaps(dir)
	comp := &SurfaceComponent{
		Structure:   s,
		NumVertices: bm.SurfaceVertices,
		Maps:        make([][]float64, numMaps),
		Defined:     make([]bool, bm.SurfaceVertices),
	}
	for _, v := range bm.Vertices {
		comp.Defined[v] = true
	}
	for k := 0; k < numMaps; k++ {
		values := make([]float64, bm.SurfaceVertices)
		for i, v := range bm.Vertices {
			values[v] = m.Value(dir, bm.Offset+i, k)
		}
		comp.Maps[k] = values
	}
	return comp, nil
}

// ExtractVolume separates the volume structure s along dir into the smallest
// sub-grid that holds all of its voxels.
func ExtractVolume(m *Matrix, dir Direction, s Structure) (*VolumeComponent, error) {
	bms, err := m.BrainModels(dir)
	if err != nil {
		return nil, err
	}
	bm, ok := bms.Volume(s)
	if !ok {
		return nil, fmt.Errorf("%w: no volume model for %s along %s", ErrStructureNotFound, s, dir)
	}
	offset, dims, err := bms.VolumeExtent(s)
	if err != nil {
		return nil, err
	}
	return extractVolume(m, dir, bms, []BrainModel{bm}, offset, dims), nil
}

// ExtractMergedVolume separates every volume structure along dir into a single
// shared sub-grid, with zeros outside the structures.
func ExtractMergedVolume(m *Matrix, dir Direction) (*VolumeComponent, error) {
	bms, err := m.BrainModels(dir)
	if err != nil {
		return nil, err
	}
	offset, dims, err := bms.MergedVolumeExtent()
	if err != nil {
		return nil, err
	}
	var models []BrainModel
	for _, bm := range bms.Models() {
		if bm.Type == ModelVolume {
			models = append(models, bm)
		}
	}
	return extractVolume(m, dir, bms, models, offset, dims), nil
}

func extractVolume(m *Matrix, dir Direction, bms *BrainModelsMap, models []BrainModel, offset, dims [3]int) *VolumeComponent {
	space := bms.VolumeSpace()
	comp := &VolumeComponent{
		Offset: offset,
		Dims:   dims,
		SForm:  shiftSForm(space.SForm, offset),
	}
	n := comp.Len()
	comp.Defined = make([]bool, n)
	numMaps := m.NumMaps(dir)
	comp.Maps = make([][]float64, numMaps)
	for k := range comp.Maps {
		comp.Maps[k] = make([]float64, n)
	}
	for _, bm := range models {
		comp.Structures = append(comp.Structures, bm.Structure)
		for i, ijk := range bm.Voxels {
			idx := comp.Index(ijk[0]-offset[0], ijk[1]-offset[1], ijk[2]-offset[2])
			comp.Defined[idx] = true
			for k := 0; k < numMaps; k++ {
				comp.Maps[k][idx] = m.Value(dir, bm.Offset+i, k)
			}
		}
	}
	return comp
}

// shiftSForm moves the origin of sform to voxel offset.
func shiftSForm(sform [3][4]float64, offset [3]int) [3][4]float64 {
	out := sform
	for r := 0; r < 3; r++ {
		for a := 0; a < 3; a++ {
			out[r][3] += sform[r][a] * float64(offset[a])
		}
	}
	return out
}
