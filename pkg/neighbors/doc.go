// Package neighbors implements the bounded neighborhood search shared by the
// surface and volume dilation algorithms, together with the reductions that
// turn a set of candidates into a single repaired value.
//
// A Space describes both the adjacency (which elements are expanded next) and
// the distance model (how far an element is from the search source). Surfaces
// use graph edges with geodesic path distance; volumes use grid offsets with
// the straight-line physical distance from the source voxel.
//
// The search is a best-first expansion on a min-heap with lazy decrease-key,
// stopping at a maximum distance. Candidates are returned ordered by distance
// and then by index, so ties are always resolved toward the lowest index.
package neighbors
