// Package ciftiio stores matrices and surfaces on disk. A matrix is a YAML
// layout header describing both index maps plus a binary payload holding the
// values in gonum's matrix encoding. Surfaces are YAML coordinate and
// triangle lists.
package ciftiio

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"ciftidilate/internal/models"
	"ciftidilate/pkg/cifti"
)

// ErrFormat indicates a header that cannot be turned into index maps.
var ErrFormat = errors.New("ciftiio: invalid file")

// DataPath returns the payload path used for a header written to path.
func DataPath(path string) string {
	return path + ".bin"
}

// WriteMatrix writes the layout header to path and the values next to it.
func WriteMatrix(path string, m *cifti.Matrix) error {
	alongRow, err := encodeMap(m.Map(cifti.AlongRow))
	if err != nil {
		return fmt.Errorf("encoding row map: %w", err)
	}
	alongColumn, err := encodeMap(m.Map(cifti.AlongColumn))
	if err != nil {
		return fmt.Errorf("encoding column map: %w", err)
	}
	layout := models.Layout{
		AlongRow:    alongRow,
		AlongColumn: alongColumn,
		Data:        filepath.Base(DataPath(path)),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}
	header, err := yaml.Marshal(&layout)
	if err != nil {
		return fmt.Errorf("error marshaling layout: %w", err)
	}
	if err := os.WriteFile(path, header, 0644); err != nil {
		return fmt.Errorf("error writing layout: %w", err)
	}

	f, err := os.Create(DataPath(path))
	if err != nil {
		return fmt.Errorf("error creating data file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if _, err := m.Dense().MarshalBinaryTo(w); err != nil {
		return fmt.Errorf("error writing data: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("error writing data: %w", err)
	}
	return f.Close()
}

// ReadMatrix reads a matrix written by WriteMatrix.
func ReadMatrix(path string) (*cifti.Matrix, error) {
	header, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading layout: %w", err)
	}
	var layout models.Layout
	if err := yaml.Unmarshal(header, &layout); err != nil {
		return nil, fmt.Errorf("error parsing layout: %w", err)
	}
	alongRow, err := decodeMap(layout.AlongRow)
	if err != nil {
		return nil, fmt.Errorf("row map: %w", err)
	}
	alongColumn, err := decodeMap(layout.AlongColumn)
	if err != nil {
		return nil, fmt.Errorf("column map: %w", err)
	}
	if layout.Data == "" {
		return nil, fmt.Errorf("%w: layout names no data file", ErrFormat)
	}

	f, err := os.Open(filepath.Join(filepath.Dir(path), layout.Data))
	if err != nil {
		return nil, fmt.Errorf("error opening data file: %w", err)
	}
	defer f.Close()
	var data mat.Dense
	if _, err := data.UnmarshalBinaryFrom(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("error reading data: %w", err)
	}
	return cifti.NewMatrixFromDense(alongRow, alongColumn, &data)
}

func encodeMap(m cifti.IndexMap) (models.IndexMap, error) {
	rec := models.IndexMap{Type: m.Type().String()}
	switch im := m.(type) {
	case *cifti.SeriesMap:
		rec.Length = im.Length()
		rec.Start, rec.Step, rec.Unit = im.Start, im.Step, im.Unit
	case *cifti.ScalarsMap:
		for i := 0; i < im.Length(); i++ {
			rec.Names = append(rec.Names, im.Name(i))
		}
	case *cifti.LabelsMap:
		for i := 0; i < im.Length(); i++ {
			rec.Names = append(rec.Names, im.Name(i))
			rec.LabelTables = append(rec.LabelTables, encodeLabelTable(im.LabelTable(i)))
		}
	case *cifti.BrainModelsMap:
		if vs := im.VolumeSpace(); vs != nil {
			rec.Volume = &models.VolumeSpace{Dims: vs.Dims, SForm: vs.SForm}
		}
		for _, bm := range im.Models() {
			rec.Models = append(rec.Models, models.BrainModel{
				Structure:       bm.Structure.String(),
				Type:            bm.Type.String(),
				SurfaceVertices: bm.SurfaceVertices,
				Vertices:        bm.Vertices,
				Voxels:          bm.Voxels,
			})
		}
	default:
		return rec, fmt.Errorf("%w: unsupported index map %T", ErrFormat, m)
	}
	return rec, nil
}

func encodeLabelTable(t *cifti.LabelTable) models.LabelTable {
	var rec models.LabelTable
	for _, k := range t.Keys() {
		l, _ := t.Get(k)
		rec.Labels = append(rec.Labels, models.Label{
			Key:  k,
			Name: l.Name,
			RGBA: [4]float64{l.Red, l.Green, l.Blue, l.Alpha},
		})
	}
	return rec
}

func decodeMap(rec models.IndexMap) (cifti.IndexMap, error) {
	switch rec.Type {
	case cifti.Series.String():
		return cifti.NewSeriesMap(rec.Length, rec.Start, rec.Step, rec.Unit)
	case cifti.Scalars.String():
		return cifti.NewScalarsMap(rec.Names...)
	case cifti.Labels.String():
		tables := make([]*cifti.LabelTable, len(rec.LabelTables))
		for i, lt := range rec.LabelTables {
			tables[i] = decodeLabelTable(lt)
		}
		return cifti.NewLabelsMap(rec.Names, tables)
	case cifti.BrainModels.String():
		return decodeBrainModels(rec)
	default:
		return nil, fmt.Errorf("%w: unknown map type %q", ErrFormat, rec.Type)
	}
}

func decodeLabelTable(rec models.LabelTable) *cifti.LabelTable {
	t := &cifti.LabelTable{}
	for _, l := range rec.Labels {
		t.Set(l.Key, cifti.Label{Name: l.Name, Red: l.RGBA[0], Green: l.RGBA[1], Blue: l.RGBA[2], Alpha: l.RGBA[3]})
	}
	return t
}

func decodeBrainModels(rec models.IndexMap) (*cifti.BrainModelsMap, error) {
	var space *cifti.VolumeSpace
	if rec.Volume != nil {
		space = &cifti.VolumeSpace{Dims: rec.Volume.Dims, SForm: rec.Volume.SForm}
	}
	bms := make([]cifti.BrainModel, 0, len(rec.Models))
	for i, bm := range rec.Models {
		s, err := cifti.ParseStructure(bm.Structure)
		if err != nil {
			return nil, fmt.Errorf("model %d: %w", i, err)
		}
		switch bm.Type {
		case cifti.ModelSurface.String():
			bms = append(bms, cifti.NewSurfaceModel(s, bm.SurfaceVertices, bm.Vertices))
		case cifti.ModelVolume.String():
			bms = append(bms, cifti.NewVolumeModel(s, bm.Voxels))
		default:
			return nil, fmt.Errorf("%w: model %d has type %q", ErrFormat, i, bm.Type)
		}
	}
	return cifti.NewBrainModelsMap(space, bms...)
}
