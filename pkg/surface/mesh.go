// Package surface provides triangulated surface meshes: per-vertex positions
// and the adjacency derived from the triangles.
package surface

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidMesh indicates a triangle or edge that refers to a missing vertex or repeats one.
var ErrInvalidMesh = errors.New("surface: invalid mesh")

// Mesh is an immutable surface: vertex coordinates plus adjacency.
type Mesh struct {
	coords    []r3.Vec
	triangles [][3]int
	neighbors [][]int
}

// NewMesh builds a mesh and its vertex adjacency from triangles.
func NewMesh(coords []r3.Vec, triangles [][3]int) (*Mesh, error) {
	n := len(coords)
	if n == 0 {
		return nil, fmt.Errorf("%w: no vertices", ErrInvalidMesh)
	}
	edges := make([][2]int, 0, 3*len(triangles))
	for t, tri := range triangles {
		for _, v := range tri {
			if v < 0 || v >= n {
				return nil, fmt.Errorf("%w: triangle %d uses vertex %d of %d", ErrInvalidMesh, t, v, n)
			}
		}
		if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
			return nil, fmt.Errorf("%w: triangle %d repeats a vertex %v", ErrInvalidMesh, t, tri)
		}
		edges = append(edges, [2]int{tri[0], tri[1]}, [2]int{tri[1], tri[2]}, [2]int{tri[2], tri[0]})
	}
	m := &Mesh{
		coords:    append([]r3.Vec(nil), coords...),
		triangles: append([][3]int(nil), triangles...),
	}
	m.neighbors = adjacency(n, edges)
	return m, nil
}

// NewMeshFromEdges builds a mesh without triangles from an explicit edge list,
// for line and graph topologies.
func NewMeshFromEdges(coords []r3.Vec, edges [][2]int) (*Mesh, error) {
	n := len(coords)
	if n == 0 {
		return nil, fmt.Errorf("%w: no vertices", ErrInvalidMesh)
	}
	for e, ed := range edges {
		if ed[0] < 0 || ed[0] >= n || ed[1] < 0 || ed[1] >= n || ed[0] == ed[1] {
			return nil, fmt.Errorf("%w: edge %d is %v with %d vertices", ErrInvalidMesh, e, ed, n)
		}
	}
	return &Mesh{coords: append([]r3.Vec(nil), coords...), neighbors: adjacency(n, edges)}, nil
}

// adjacency returns the sorted, duplicate free neighbor list of every vertex.
func adjacency(n int, edges [][2]int) [][]int {
	sets := make([]map[int]struct{}, n)
	link := func(a, b int) {
		if sets[a] == nil {
			sets[a] = make(map[int]struct{}, 6)
		}
		sets[a][b] = struct{}{}
	}
	for _, e := range edges {
		link(e[0], e[1])
		link(e[1], e[0])
	}
	out := make([][]int, n)
	for v, set := range sets {
		list := make([]int, 0, len(set))
		for w := range set {
			list = append(list, w)
		}
		sort.Ints(list)
		out[v] = list
	}
	return out
}

// NumVertices returns the vertex count.
func (m *Mesh) NumVertices() int { return len(m.coords) }

// Position returns the coordinates of vertex i in millimeters.
func (m *Mesh) Position(i int) r3.Vec { return m.coords[i] }

// Neighbors returns the vertices sharing an edge with i, in ascending order.
func (m *Mesh) Neighbors(i int) []int { return m.neighbors[i] }

// Triangles returns the triangles of the mesh; nil for edge-built meshes.
func (m *Mesh) Triangles() [][3]int { return m.triangles }

// EdgeLength returns the straight-line distance between vertices i and j.
func (m *Mesh) EdgeLength(i, j int) float64 {
	return r3.Norm(r3.Sub(m.coords[i], m.coords[j]))
}
