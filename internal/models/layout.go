// Package models holds the on-disk records of matrices and surfaces, and the
// plain volume record handed to the QC viewer.
package models

// Layout is the YAML header of a stored matrix. The values live in a separate
// binary file named by Data, relative to the header.
type Layout struct {
	AlongRow    IndexMap `yaml:"alongRow"`
	AlongColumn IndexMap `yaml:"alongColumn"`
	Data        string   `yaml:"data"`
}

// IndexMap describes one direction of a matrix. Which fields are used depends on Type.
type IndexMap struct {
	// Type is one of BRAIN_MODELS, SERIES, SCALARS or LABELS.
	Type string `yaml:"type"`

	// Series
	Length int     `yaml:"length,omitempty"`
	Start  float64 `yaml:"start,omitempty"`
	Step   float64 `yaml:"step,omitempty"`
	Unit   string  `yaml:"unit,omitempty"`

	// Scalars and labels
	Names       []string     `yaml:"names,omitempty"`
	LabelTables []LabelTable `yaml:"labelTables,omitempty"`

	// Brain models
	Volume *VolumeSpace  `yaml:"volume,omitempty"`
	Models []BrainModel `yaml:"models,omitempty"`
}

// LabelTable is the label list of one label map.
type LabelTable struct {
	Labels []Label `yaml:"labels"`
}

// Label is one label table entry.
type Label struct {
	Key  int32      `yaml:"key"`
	Name string     `yaml:"name"`
	RGBA [4]float64 `yaml:"rgba,flow"`
}

// VolumeSpace is the voxel grid of the volume models.
type VolumeSpace struct {
	Dims  [3]int        `yaml:"dims,flow"`
	SForm [3][4]float64 `yaml:"sform"`
}

// BrainModel is one structure segment, in the order it appears along the map.
type BrainModel struct {
	Structure string `yaml:"structure"`
	// Type is SURFACE or VOLUME.
	Type            string   `yaml:"type"`
	SurfaceVertices int      `yaml:"surfaceVertices,omitempty"`
	Vertices        []int    `yaml:"vertices,omitempty,flow"`
	Voxels          [][3]int `yaml:"voxels,omitempty"`
}

// Surface is a stored triangulated surface.
type Surface struct {
	Structure string       `yaml:"structure,omitempty"`
	Coords    [][3]float64 `yaml:"coords"`
	Triangles [][3]int     `yaml:"triangles"`
}

// Volume is a dense grid of values, i varying fastest.
type Volume struct {
	Data []float64

	Width  int
	Height int
	Depth  int

	// VoxelSize is the physical size of each voxel in mm
	VoxelSize struct {
		X, Y, Z float64
	}
}
