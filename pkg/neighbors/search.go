package neighbors

import (
	"container/heap"
	"math"
	"sort"
)

// Space is a neighborhood structure the search expands over.
type Space interface {
	// Len returns the number of elements.
	Len() int
	// Expand calls fn for every direct neighbor of i.
	Expand(i int, fn func(j int))
	// Distance returns the distance of j from source when j is reached from i,
	// whose own distance from source is di.
	Distance(source, i, j int, di float64) float64
}

// Candidate is an element found within range of the search source.
type Candidate struct {
	Index    int
	Distance float64
}

// Searcher runs bounded searches over one Space. It reuses its scratch
// buffers between calls and is not safe for concurrent use.
type Searcher struct {
	space   Space
	dist    []float64
	visited []bool
	touched []int
	pq      itemPQ
}

// NewSearcher allocates the scratch state for searches over space.
func NewSearcher(space Space) *Searcher {
	n := space.Len()
	s := &Searcher{
		space:   space,
		dist:    make([]float64, n),
		visited: make([]bool, n),
	}
	for i := range s.dist {
		s.dist[i] = math.Inf(1)
	}
	return s
}

// Within returns every element accepted by accept whose distance from source
// is at most maxDist. The source itself is never returned. The result is
// ordered by distance, then by index.
func (s *Searcher) Within(source int, maxDist float64, accept func(i int) bool) []Candidate {
	defer s.reset()

	var found []Candidate
	s.touch(source, 0)
	heap.Push(&s.pq, item{index: source, dist: 0})
	for s.pq.Len() > 0 {
		it := heap.Pop(&s.pq).(item)
		u := it.index
		if s.visited[u] {
			continue
		}
		s.visited[u] = true
		if u != source && accept(u) {
			found = append(found, Candidate{Index: u, Distance: it.dist})
		}
		du := it.dist
		s.space.Expand(u, func(v int) {
			if s.visited[v] {
				return
			}
			dv := s.space.Distance(source, u, v, du)
			if dv > maxDist || dv >= s.dist[v] {
				return
			}
			s.touch(v, dv)
			heap.Push(&s.pq, item{index: v, dist: dv})
		})
	}
	sort.Slice(found, func(a, b int) bool {
		if found[a].Distance != found[b].Distance {
			return found[a].Distance < found[b].Distance
		}
		return found[a].Index < found[b].Index
	})
	return found
}

func (s *Searcher) touch(i int, d float64) {
	if math.IsInf(s.dist[i], 1) {
		s.touched = append(s.touched, i)
	}
	s.dist[i] = d
}

func (s *Searcher) reset() {
	for _, i := range s.touched {
		s.dist[i] = math.Inf(1)
		s.visited[i] = false
	}
	s.touched = s.touched[:0]
	s.pq = s.pq[:0]
}

// item is a heap entry; stale entries are skipped when popped.
type item struct {
	index int
	dist  float64
}

// itemPQ is a min-heap ordered by distance, then index.
type itemPQ []item

func (pq itemPQ) Len() int { return len(pq) }

func (pq itemPQ) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].index < pq[j].index
}

func (pq itemPQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *itemPQ) Push(x any) { *pq = append(*pq, x.(item)) }

func (pq *itemPQ) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	*pq = old[:n-1]
	return it
}
