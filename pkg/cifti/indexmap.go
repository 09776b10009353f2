package cifti

import (
	"fmt"
	"slices"
)

// MappingType is the kind of an index map.
type MappingType int

const (
	BrainModels MappingType = iota
	Series
	Scalars
	Labels
)

func (t MappingType) String() string {
	switch t {
	case BrainModels:
		return "BRAIN_MODELS"
	case Series:
		return "SERIES"
	case Scalars:
		return "SCALARS"
	case Labels:
		return "LABELS"
	default:
		return fmt.Sprintf("MappingType(%d)", int(t))
	}
}

// IndexMap describes what the indices along one direction of a Matrix mean.
type IndexMap interface {
	Type() MappingType
	Length() int
	Equal(other IndexMap) bool
}

// SeriesMap maps indices to evenly spaced samples, e.g. time points.
type SeriesMap struct {
	length int
	Start  float64
	Step   float64
	Unit   string
}

// NewSeriesMap creates a series of length samples.
func NewSeriesMap(length int, start, step float64, unit string) (*SeriesMap, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: series length %d", ErrInvalidIndexMap, length)
	}
	return &SeriesMap{length: length, Start: start, Step: step, Unit: unit}, nil
}

func (m *SeriesMap) Type() MappingType { return Series }
func (m *SeriesMap) Length() int        { return m.length }

func (m *SeriesMap) Equal(other IndexMap) bool {
	o, ok := other.(*SeriesMap)
	return ok && *m == *o
}

// ScalarsMap maps indices to named scalar maps.
type ScalarsMap struct {
	names []string
}

// NewScalarsMap creates one scalar map per name.
func NewScalarsMap(names ...string) (*ScalarsMap, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: scalars map needs at least one name", ErrInvalidIndexMap)
	}
	return &ScalarsMap{names: slices.Clone(names)}, nil
}

func (m *ScalarsMap) Type() MappingType { return Scalars }
func (m *ScalarsMap) Length() int        { return len(m.names) }
func (m *ScalarsMap) Name(i int) string  { return m.names[i] }

func (m *ScalarsMap) Equal(other IndexMap) bool {
	o, ok := other.(*ScalarsMap)
	return ok && slices.Equal(m.names, o.names)
}

// LabelsMap maps indices to named label maps, each with its own label table.
type LabelsMap struct {
	names  []string
	tables []*LabelTable
}

// NewLabelsMap creates label maps; names and tables must have the same length.
func NewLabelsMap(names []string, tables []*LabelTable) (*LabelsMap, error) {
	if len(names) == 0 || len(names) != len(tables) {
		return nil, fmt.Errorf("%w: labels map needs one table per name (%d names, %d tables)",
			ErrInvalidIndexMap, len(names), len(tables))
	}
	for i, t := range tables {
		if t == nil {
			return nil, fmt.Errorf("%w: label table %d is nil", ErrInvalidIndexMap, i)
		}
	}
	return &LabelsMap{names: slices.Clone(names), tables: slices.Clone(tables)}, nil
}

func (m *LabelsMap) Type() MappingType           { return Labels }
func (m *LabelsMap) Length() int                  { return len(m.names) }
func (m *LabelsMap) Name(i int) string            { return m.names[i] }
func (m *LabelsMap) LabelTable(i int) *LabelTable { return m.tables[i] }

func (m *LabelsMap) Equal(other IndexMap) bool {
	o, ok := other.(*LabelsMap)
	if !ok || !slices.Equal(m.names, o.names) {
		return false
	}
	for i := range m.tables {
		if !m.tables[i].Equal(o.tables[i]) {
			return false
		}
	}
	return true
}
