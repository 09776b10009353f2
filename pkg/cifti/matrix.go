package cifti

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a composite brain-data container: a dense table whose row and
// column indices are each described by an IndexMap.
type Matrix struct {
	alongRow    IndexMap
	alongColumn IndexMap
	data        *mat.Dense
}

// NewMatrix allocates a zeroed matrix. alongRow describes the columns and
// alongColumn describes the rows.
func NewMatrix(alongRow, alongColumn IndexMap) (*Matrix, error) {
	if alongRow == nil || alongColumn == nil {
		return nil, fmt.Errorf("%w: both index maps are required", ErrInvalidIndexMap)
	}
	return &Matrix{
		alongRow:    alongRow,
		alongColumn: alongColumn,
		data:        mat.NewDense(alongColumn.Length(), alongRow.Length(), nil),
	}, nil
}

// NewMatrixFromDense wraps existing data; its shape must match the maps.
func NewMatrixFromDense(alongRow, alongColumn IndexMap, data *mat.Dense) (*Matrix, error) {
	if alongRow == nil || alongColumn == nil {
		return nil, fmt.Errorf("%w: both index maps are required", ErrInvalidIndexMap)
	}
	r, c := data.Dims()
	if r != alongColumn.Length() || c != alongRow.Length() {
		return nil, fmt.Errorf("%w: data is %dx%d but maps describe %dx%d",
			ErrInvalidIndexMap, r, c, alongColumn.Length(), alongRow.Length())
	}
	return &Matrix{alongRow: alongRow, alongColumn: alongColumn, data: data}, nil
}

// NewLike allocates a zeroed matrix with the same index maps.
func (m *Matrix) NewLike() *Matrix {
	r, c := m.data.Dims()
	return &Matrix{alongRow: m.alongRow, alongColumn: m.alongColumn, data: mat.NewDense(r, c, nil)}
}

// Map returns the index map for the given direction.
func (m *Matrix) Map(dir Direction) IndexMap {
	if dir == AlongRow {
		return m.alongRow
	}
	return m.alongColumn
}

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (rows, cols int) { return m.data.Dims() }

// At returns the value at row r, column c.
func (m *Matrix) At(r, c int) float64 { return m.data.At(r, c) }

// Set stores v at row r, column c.
func (m *Matrix) Set(r, c int, v float64) { m.data.Set(r, c, v) }

// Dense exposes the underlying storage.
func (m *Matrix) Dense() *mat.Dense { return m.data }

// Value reads the element at brainordinate index b of the dir map and index k
// of the opposite map.
func (m *Matrix) Value(dir Direction, b, k int) float64 {
	if dir == AlongRow {
		return m.data.At(k, b)
	}
	return m.data.At(b, k)
}

// SetValue is the write counterpart of Value.
func (m *Matrix) SetValue(dir Direction, b, k int, v float64) {
	if dir == AlongRow {
		m.data.Set(k, b, v)
		return
	}
	m.data.Set(b, k, v)
}

// NumMaps returns the length of the map opposite to dir.
func (m *Matrix) NumMaps(dir Direction) int {
	return m.Map(dir.Other()).Length()
}

// BrainModels returns the brain models map along dir.
func (m *Matrix) BrainModels(dir Direction) (*BrainModelsMap, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAxis, dir)
	}
	bm, ok := m.Map(dir).(*BrainModelsMap)
	if !ok {
		return nil, fmt.Errorf("%w: %s map is %s", ErrUnsupportedAxis, dir, m.Map(dir).Type())
	}
	return bm, nil
}

// IsLabel reports whether the map opposite to dir carries label data.
func (m *Matrix) IsLabel(dir Direction) bool {
	return m.Map(dir.Other()).Type() == Labels
}

// UnassignedKey returns the background label key of map k when the opposite
// map is a labels map, otherwise 0.
func (m *Matrix) UnassignedKey(dir Direction, k int) int32 {
	if lm, ok := m.Map(dir.Other()).(*LabelsMap); ok {
		return lm.LabelTable(k).UnassignedKey()
	}
	return 0
}
