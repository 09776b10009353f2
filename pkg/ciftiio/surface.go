package ciftiio

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"ciftidilate/internal/models"
	"ciftidilate/pkg/cifti"
	"ciftidilate/pkg/surface"
)

// ReadSurface loads a surface and the structure it was written for, which is
// StructureInvalid when the file names none.
func ReadSurface(path string) (*surface.Mesh, cifti.Structure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cifti.StructureInvalid, fmt.Errorf("error reading surface: %w", err)
	}
	var rec models.Surface
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, cifti.StructureInvalid, fmt.Errorf("error parsing surface: %w", err)
	}
	s := cifti.StructureInvalid
	if rec.Structure != "" {
		if s, err = cifti.ParseStructure(rec.Structure); err != nil {
			return nil, cifti.StructureInvalid, err
		}
	}
	coords := make([]r3.Vec, len(rec.Coords))
	for i, c := range rec.Coords {
		coords[i] = r3.Vec{X: c[0], Y: c[1], Z: c[2]}
	}
	mesh, err := surface.NewMesh(coords, rec.Triangles)
	if err != nil {
		return nil, cifti.StructureInvalid, fmt.Errorf("%s: %w", path, err)
	}
	return mesh, s, nil
}

// WriteSurface stores mesh, tagged with structure s unless it is StructureInvalid.
func WriteSurface(path string, mesh *surface.Mesh, s cifti.Structure) error {
	rec := models.Surface{
		Coords:    make([][3]float64, mesh.NumVertices()),
		Triangles: mesh.Triangles(),
	}
	if s != cifti.StructureInvalid {
		rec.Structure = s.String()
	}
	for i := range rec.Coords {
		p := mesh.Position(i)
		rec.Coords[i] = [3]float64{p.X, p.Y, p.Z}
	}
	data, err := yaml.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("error marshaling surface: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating surface directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing surface: %w", err)
	}
	return nil
}
