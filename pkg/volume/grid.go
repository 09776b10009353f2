// Package volume describes regular voxel grids placed in physical space by an
// sform affine, and their voxel neighborhoods.
package volume

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Sentinel errors for grid construction.
var (
	// ErrEmptyGrid indicates a grid with a zero or negative dimension.
	ErrEmptyGrid = errors.New("volume: grid dimensions must be positive")
	// ErrBadConnectivity indicates a connectivity other than 6, 18 or 26.
	ErrBadConnectivity = errors.New("volume: connectivity must be 6, 18 or 26")
	// ErrSingularSForm indicates an sform whose voxel axes do not span 3-D space.
	ErrSingularSForm = errors.New("volume: sform is singular")
)

// Connectivity selects which voxels count as direct neighbors.
type Connectivity int

const (
	// Conn6 links voxels sharing a face.
	Conn6 Connectivity = 6
	// Conn18 links voxels sharing a face or an edge.
	Conn18 Connectivity = 18
	// Conn26 links voxels sharing a face, an edge or a corner.
	Conn26 Connectivity = 26
)

// ParseConnectivity validates a neighbor count.
func ParseConnectivity(n int) (Connectivity, error) {
	switch c := Connectivity(n); c {
	case Conn6, Conn18, Conn26:
		return c, nil
	default:
		return 0, fmt.Errorf("%w: got %d", ErrBadConnectivity, n)
	}
}

// Offsets returns the index offsets of the direct neighbors.
func (c Connectivity) Offsets() [][3]int {
	maxNonZero := map[Connectivity]int{Conn6: 1, Conn18: 2, Conn26: 3}[c]
	var out [][3]int
	for dk := -1; dk <= 1; dk++ {
		for dj := -1; dj <= 1; dj++ {
			for di := -1; di <= 1; di++ {
				nz := abs(di) + abs(dj) + abs(dk)
				if nz == 0 || nz > maxNonZero {
					continue
				}
				out = append(out, [3]int{di, dj, dk})
			}
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Grid is the geometry of a voxel grid. Voxel (i, j, k) has linear index
// i + Dims[0]*(j + Dims[1]*k).
type Grid struct {
	Dims  [3]int
	SForm [3][4]float64

	conn    Connectivity
	offsets [][3]int
	// axes holds the physical step of one voxel along i, j and k.
	axes [3]r3.Vec
}

// NewGrid validates the geometry and precomputes the neighbor offsets.
func NewGrid(dims [3]int, sform [3][4]float64, conn Connectivity) (*Grid, error) {
	for _, d := range dims {
		if d < 1 {
			return nil, fmt.Errorf("%w: %v", ErrEmptyGrid, dims)
		}
	}
	if _, err := ParseConnectivity(int(conn)); err != nil {
		return nil, err
	}
	g := &Grid{Dims: dims, SForm: sform, conn: conn, offsets: conn.Offsets()}
	for a := 0; a < 3; a++ {
		g.axes[a] = r3.Vec{X: sform[0][a], Y: sform[1][a], Z: sform[2][a]}
	}
	if r3.Dot(g.axes[0], r3.Cross(g.axes[1], g.axes[2])) == 0 {
		return nil, ErrSingularSForm
	}
	return g, nil
}

// Connectivity returns the neighbor policy of the grid.
func (g *Grid) Connectivity() Connectivity { return g.conn }

// Len returns the number of voxels.
func (g *Grid) Len() int { return g.Dims[0] * g.Dims[1] * g.Dims[2] }

// Index returns the linear index of voxel (i, j, k).
func (g *Grid) Index(i, j, k int) int { return i + g.Dims[0]*(j+g.Dims[1]*k) }

// Coords is the inverse of Index.
func (g *Grid) Coords(idx int) (i, j, k int) {
	i = idx % g.Dims[0]
	idx /= g.Dims[0]
	return i, idx % g.Dims[1], idx / g.Dims[1]
}

// InBounds reports whether (i, j, k) lies inside the grid.
func (g *Grid) InBounds(i, j, k int) bool {
	return i >= 0 && j >= 0 && k >= 0 && i < g.Dims[0] && j < g.Dims[1] && k < g.Dims[2]
}

// Position returns the physical coordinates of voxel idx.
func (g *Grid) Position(idx int) r3.Vec {
	i, j, k := g.Coords(idx)
	origin := r3.Vec{X: g.SForm[0][3], Y: g.SForm[1][3], Z: g.SForm[2][3]}
	return r3.Add(origin, g.step(i, j, k))
}

// step maps an index offset to a physical offset.
func (g *Grid) step(di, dj, dk int) r3.Vec {
	v := r3.Scale(float64(di), g.axes[0])
	v = r3.Add(v, r3.Scale(float64(dj), g.axes[1]))
	return r3.Add(v, r3.Scale(float64(dk), g.axes[2]))
}

// Expand calls fn for every in-bounds direct neighbor of voxel idx.
func (g *Grid) Expand(idx int, fn func(j int)) {
	i, j, k := g.Coords(idx)
	for _, o := range g.offsets {
		ni, nj, nk := i+o[0], j+o[1], k+o[2]
		if g.InBounds(ni, nj, nk) {
			fn(g.Index(ni, nj, nk))
		}
	}
}

// Distance returns the straight-line physical distance between source and
// to; the voxel it was reached from does not matter.
func (g *Grid) Distance(source, _, to int, _ float64) float64 {
	si, sj, sk := g.Coords(source)
	ti, tj, tk := g.Coords(to)
	return r3.Norm(g.step(ti-si, tj-sj, tk-sk))
}
