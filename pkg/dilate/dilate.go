// Package dilate repairs bad values in surface and volume data by filling them
// from good values found within a distance.
//
// Three variants exist: Surface for scalar per-vertex data, Labels for
// per-vertex label keys and Volume for per-voxel data. All of them share the
// bounded search from package neighbors and differ only in the space searched
// and the reduction applied to the candidates.
package dilate

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"ciftidilate/pkg/neighbors"
	"ciftidilate/pkg/volume"
)

// ErrBadInput indicates arrays whose lengths do not match the topology, or a negative distance.
var ErrBadInput = errors.New("dilate: invalid input")

// Method selects how the candidates of a bad element are reduced.
type Method int

const (
	// Weighted averages the candidates with weights 1/distance.
	Weighted Method = iota
	// Nearest copies the closest candidate, lowest index first on ties.
	Nearest
)

func (m Method) String() string {
	if m == Nearest {
		return "NEAREST"
	}
	return "WEIGHTED"
}

// Topology is a surface the dilation walks over.
type Topology interface {
	NumVertices() int
	Position(i int) r3.Vec
	Neighbors(i int) []int
}

// Stats counts what a dilation did.
type Stats struct {
	Bad         int
	Filled      int
	Unreachable int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Bad += o.Bad
	s.Filled += o.Filled
	s.Unreachable += o.Unreachable
}

// BadMask marks the elements to be replaced. Without an ROI an element is bad
// when its value equals badValue; with an ROI it is bad exactly when its ROI
// value is positive. Elements outside defined are never bad; a nil defined
// means every element is defined.
func BadMask(values, roi []float64, defined []bool, badValue float64) []bool {
	bad := make([]bool, len(values))
	for i, v := range values {
		if defined != nil && !defined[i] {
			continue
		}
		if roi != nil {
			bad[i] = roi[i] > 0
		} else {
			bad[i] = v == badValue
		}
	}
	return bad
}

// surfaceSpace measures geodesic distance as the summed edge lengths of the
// path walked from the source.
type surfaceSpace struct {
	topo Topology
}

func (s surfaceSpace) Len() int { return s.topo.NumVertices() }

func (s surfaceSpace) Expand(i int, fn func(j int)) {
	for _, j := range s.topo.Neighbors(i) {
		fn(j)
	}
}

func (s surfaceSpace) Distance(_, i, j int, di float64) float64 {
	return di + r3.Norm(r3.Sub(s.topo.Position(j), s.topo.Position(i)))
}

// Surface fills the bad vertices of a scalar array. Good vertices within
// maxDist along the surface are averaged by inverse distance, or the nearest
// one is copied when nearest is set. Bad vertices without candidates become 0.
func Surface(values []float64, topo Topology, maxDist float64, bad []bool, nearest bool, defined []bool) ([]float64, Stats, error) {
	if err := checkInput(len(values), topo.NumVertices(), maxDist, bad, defined); err != nil {
		return nil, Stats{}, err
	}
	method := Weighted
	if nearest {
		method = Nearest
	}
	return fill(values, neighbors.NewSearcher(surfaceSpace{topo}), maxDist, method, bad, defined)
}

// Labels fills the bad vertices of a label array with the key held by most
// good vertices within maxDist, smallest key on ties. Bad vertices without
// candidates become unassigned.
func Labels(keys []float64, topo Topology, maxDist float64, bad []bool, defined []bool, unassigned int32) ([]float64, Stats, error) {
	if err := checkInput(len(keys), topo.NumVertices(), maxDist, bad, defined); err != nil {
		return nil, Stats{}, err
	}
	searcher := neighbors.NewSearcher(surfaceSpace{topo})
	accept := candidateFilter(bad, defined)
	key := func(i int) int32 { return int32(math.Round(keys[i])) }

	out := make([]float64, len(keys))
	copy(out, keys)
	var st Stats
	for i := range keys {
		if !bad[i] {
			continue
		}
		st.Bad++
		cands := searcher.Within(i, maxDist, accept)
		k, ok := neighbors.Vote(cands, key)
		if !ok {
			st.Unreachable++
			out[i] = float64(unassigned)
			continue
		}
		st.Filled++
		out[i] = float64(k)
	}
	return out, st, nil
}

// Volume fills the bad voxels of a grid. Candidates are good, defined voxels
// whose physical distance from the bad voxel is at most maxDist, found by
// expanding over the grid's connectivity. Bad voxels without candidates become 0.
func Volume(g *volume.Grid, values []float64, maxDist float64, method Method, bad []bool, defined []bool) ([]float64, Stats, error) {
	if err := checkInput(len(values), g.Len(), maxDist, bad, defined); err != nil {
		return nil, Stats{}, err
	}
	return fill(values, neighbors.NewSearcher(g), maxDist, method, bad, defined)
}

func fill(values []float64, searcher *neighbors.Searcher, maxDist float64, method Method, bad, defined []bool) ([]float64, Stats, error) {
	accept := candidateFilter(bad, defined)
	value := func(i int) float64 { return values[i] }
	reduce := neighbors.InverseDistance
	if method == Nearest {
		reduce = neighbors.Nearest
	}

	out := make([]float64, len(values))
	copy(out, values)
	var st Stats
	for i := range values {
		if !bad[i] {
			continue
		}
		st.Bad++
		v, ok := reduce(searcher.Within(i, maxDist, accept), value)
		if !ok {
			st.Unreachable++
			out[i] = 0
			continue
		}
		st.Filled++
		out[i] = v
	}
	return out, st, nil
}

// candidateFilter accepts good elements that are defined.
func candidateFilter(bad, defined []bool) func(int) bool {
	return func(i int) bool {
		return !bad[i] && (defined == nil || defined[i])
	}
}

func checkInput(n, want int, maxDist float64, bad, defined []bool) error {
	switch {
	case n != want:
		return fmt.Errorf("%w: %d values for %d elements", ErrBadInput, n, want)
	case len(bad) != n:
		return fmt.Errorf("%w: bad mask has %d entries, want %d", ErrBadInput, len(bad), n)
	case defined != nil && len(defined) != n:
		return fmt.Errorf("%w: defined mask has %d entries, want %d", ErrBadInput, len(defined), n)
	case maxDist < 0 || math.IsNaN(maxDist):
		return fmt.Errorf("%w: distance %v", ErrBadInput, maxDist)
	}
	return nil
}
