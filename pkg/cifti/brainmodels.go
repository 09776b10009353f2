package cifti

import (
	"fmt"
	"slices"
)

// ModelType tells whether a brain model lives on a surface or in the volume.
type ModelType int

const (
	ModelSurface ModelType = iota
	ModelVolume
)

func (t ModelType) String() string {
	if t == ModelSurface {
		return "SURFACE"
	}
	return "VOLUME"
}

// BrainModel is one contiguous segment of brainordinates belonging to a single
// structure. Offset and Count are assigned by NewBrainModelsMap.
type BrainModel struct {
	Structure Structure
	Type      ModelType
	Offset    int
	Count     int

	// SurfaceVertices is the vertex count of the surface the model was defined on.
	SurfaceVertices int
	// Vertices holds the surface vertex of each brainordinate.
	Vertices []int

	// Voxels holds the ijk index of each brainordinate within the map's VolumeSpace.
	Voxels [][3]int
}

// NewSurfaceModel describes a surface segment over the given vertices of a
// surface with numVertices vertices.
func NewSurfaceModel(s Structure, numVertices int, vertices []int) BrainModel {
	return BrainModel{Structure: s, Type: ModelSurface, SurfaceVertices: numVertices, Vertices: slices.Clone(vertices)}
}

// NewVolumeModel describes a volume segment over the given voxels.
func NewVolumeModel(s Structure, voxels [][3]int) BrainModel {
	return BrainModel{Structure: s, Type: ModelVolume, Voxels: slices.Clone(voxels)}
}

// End returns one past the last brainordinate index of the segment.
func (b BrainModel) End() int { return b.Offset + b.Count }

func (b BrainModel) equal(o BrainModel) bool {
	return b.Structure == o.Structure && b.Type == o.Type &&
		b.Offset == o.Offset && b.Count == o.Count &&
		b.SurfaceVertices == o.SurfaceVertices &&
		slices.Equal(b.Vertices, o.Vertices) && slices.Equal(b.Voxels, o.Voxels)
}

// VolumeSpace is the voxel grid shared by all volume models of a map.
type VolumeSpace struct {
	Dims [3]int
	// SForm maps ijk voxel indices to physical millimeter coordinates.
	SForm [3][4]float64
}

func (v VolumeSpace) contains(ijk [3]int) bool {
	for a := 0; a < 3; a++ {
		if ijk[a] < 0 || ijk[a] >= v.Dims[a] {
			return false
		}
	}
	return true
}

// BrainModelsMap maps indices to brainordinates partitioned into segments.
type BrainModelsMap struct {
	models []BrainModel
	space  *VolumeSpace
	length int
}

// NewBrainModelsMap lays the models out back to back in the order given. The
// volume space is required when any volume model is present.
func NewBrainModelsMap(space *VolumeSpace, models ...BrainModel) (*BrainModelsMap, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: brain models map needs at least one model", ErrInvalidIndexMap)
	}
	m := &BrainModelsMap{models: make([]BrainModel, len(models))}
	if space != nil {
		sp := *space
		m.space = &sp
	}

	type key struct {
		s Structure
		t ModelType
	}
	seen := make(map[key]bool, len(models))
	voxelOwner := make(map[[3]int]Structure)
	offset := 0
	for i, bm := range models {
		if bm.Structure == StructureInvalid {
			return nil, fmt.Errorf("%w: model %d has no structure", ErrInvalidIndexMap, i)
		}
		k := key{bm.Structure, bm.Type}
		if seen[k] {
			return nil, fmt.Errorf("%w: duplicate %s model for %s", ErrInvalidIndexMap, bm.Type, bm.Structure)
		}
		seen[k] = true

		switch bm.Type {
		case ModelSurface:
			if err := validateSurfaceModel(bm); err != nil {
				return nil, err
			}
			bm.Count = len(bm.Vertices)
			bm.Vertices = slices.Clone(bm.Vertices)
			bm.Voxels = nil
		case ModelVolume:
			if m.space == nil {
				return nil, fmt.Errorf("%w: volume model %s without a volume space", ErrInvalidIndexMap, bm.Structure)
			}
			if len(bm.Voxels) == 0 {
				return nil, fmt.Errorf("%w: volume model %s has no voxels", ErrInvalidIndexMap, bm.Structure)
			}
			for _, ijk := range bm.Voxels {
				if !m.space.contains(ijk) {
					return nil, fmt.Errorf("%w: voxel %v of %s outside volume dims %v",
						ErrInvalidIndexMap, ijk, bm.Structure, m.space.Dims)
				}
				if owner, dup := voxelOwner[ijk]; dup {
					return nil, fmt.Errorf("%w: voxel %v used by both %s and %s",
						ErrInvalidIndexMap, ijk, owner, bm.Structure)
				}
				voxelOwner[ijk] = bm.Structure
			}
			bm.Count = len(bm.Voxels)
			bm.Voxels = slices.Clone(bm.Voxels)
			bm.Vertices = nil
			bm.SurfaceVertices = 0
		default:
			return nil, fmt.Errorf("%w: model %d has unknown type %d", ErrInvalidIndexMap, i, int(bm.Type))
		}
		bm.Offset = offset
		offset += bm.Count
		m.models[i] = bm
	}
	m.length = offset
	return m, nil
}

func validateSurfaceModel(bm BrainModel) error {
	if bm.SurfaceVertices < 1 {
		return fmt.Errorf("%w: surface model %s has %d surface vertices",
			ErrInvalidIndexMap, bm.Structure, bm.SurfaceVertices)
	}
	if len(bm.Vertices) == 0 {
		return fmt.Errorf("%w: surface model %s has no vertices", ErrInvalidIndexMap, bm.Structure)
	}
	used := make([]bool, bm.SurfaceVertices)
	for _, v := range bm.Vertices {
		if v < 0 || v >= bm.SurfaceVertices {
			return fmt.Errorf("%w: vertex %d of %s outside [0,%d)",
				ErrInvalidIndexMap, v, bm.Structure, bm.SurfaceVertices)
		}
		if used[v] {
			return fmt.Errorf("%w: vertex %d of %s listed twice", ErrInvalidIndexMap, v, bm.Structure)
		}
		used[v] = true
	}
	return nil
}

func (m *BrainModelsMap) Type() MappingType { return BrainModels }
func (m *BrainModelsMap) Length() int        { return m.length }

// Models returns the segments in index order.
func (m *BrainModelsMap) Models() []BrainModel { return slices.Clone(m.models) }

// VolumeSpace returns the shared voxel grid, or nil when the map has no volume models.
func (m *BrainModelsMap) VolumeSpace() *VolumeSpace {
	if m.space == nil {
		return nil
	}
	sp := *m.space
	return &sp
}

// Surface returns the surface model of s.
func (m *BrainModelsMap) Surface(s Structure) (BrainModel, bool) {
	return m.find(s, ModelSurface)
}

// Volume returns the volume model of s.
func (m *BrainModelsMap) Volume(s Structure) (BrainModel, bool) {
	return m.find(s, ModelVolume)
}

func (m *BrainModelsMap) find(s Structure, t ModelType) (BrainModel, bool) {
	for _, bm := range m.models {
		if bm.Structure == s && bm.Type == t {
			return bm, true
		}
	}
	return BrainModel{}, false
}

// SurfaceStructures lists the surface structures in index order.
func (m *BrainModelsMap) SurfaceStructures() []Structure {
	return m.structures(ModelSurface)
}

// VolumeStructures lists the volume structures in index order.
func (m *BrainModelsMap) VolumeStructures() []Structure {
	return m.structures(ModelVolume)
}

func (m *BrainModelsMap) structures(t ModelType) []Structure {
	var out []Structure
	for _, bm := range m.models {
		if bm.Type == t {
			out = append(out, bm.Structure)
		}
	}
	return out
}

// HasVolumeData reports whether any volume model is present.
func (m *BrainModelsMap) HasVolumeData() bool {
	for _, bm := range m.models {
		if bm.Type == ModelVolume {
			return true
		}
	}
	return false
}

// SurfaceVertexCount returns the expected vertex count of the surface s was defined on.
func (m *BrainModelsMap) SurfaceVertexCount(s Structure) (int, error) {
	bm, ok := m.Surface(s)
	if !ok {
		return 0, fmt.Errorf("%w: no surface model for %s", ErrStructureNotFound, s)
	}
	return bm.SurfaceVertices, nil
}

// VolumeExtent returns the bounding box of the voxels of s within the shared grid.
func (m *BrainModelsMap) VolumeExtent(s Structure) (offset, dims [3]int, err error) {
	bm, ok := m.Volume(s)
	if !ok {
		return offset, dims, fmt.Errorf("%w: no volume model for %s", ErrStructureNotFound, s)
	}
	offset, dims = boundingBox(bm.Voxels)
	return offset, dims, nil
}

// MergedVolumeExtent returns the bounding box of all volume voxels.
func (m *BrainModelsMap) MergedVolumeExtent() (offset, dims [3]int, err error) {
	var all [][3]int
	for _, bm := range m.models {
		if bm.Type == ModelVolume {
			all = append(all, bm.Voxels...)
		}
	}
	if len(all) == 0 {
		return offset, dims, fmt.Errorf("%w: no volume models", ErrStructureNotFound)
	}
	offset, dims = boundingBox(all)
	return offset, dims, nil
}

func boundingBox(voxels [][3]int) (offset, dims [3]int) {
	lo, hi := voxels[0], voxels[0]
	for _, ijk := range voxels[1:] {
		for a := 0; a < 3; a++ {
			lo[a] = min(lo[a], ijk[a])
			hi[a] = max(hi[a], ijk[a])
		}
	}
	for a := 0; a < 3; a++ {
		offset[a] = lo[a]
		dims[a] = hi[a] - lo[a] + 1
	}
	return offset, dims
}

// Equal reports whether other describes exactly the same brainordinates.
func (m *BrainModelsMap) Equal(other IndexMap) bool {
	o, ok := other.(*BrainModelsMap)
	if !ok || m.length != o.length || len(m.models) != len(o.models) {
		return false
	}
	if (m.space == nil) != (o.space == nil) || (m.space != nil && *m.space != *o.space) {
		return false
	}
	for i := range m.models {
		if !m.models[i].equal(o.models[i]) {
			return false
		}
	}
	return true
}
