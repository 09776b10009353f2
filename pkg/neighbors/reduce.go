package neighbors

// InverseDistance returns the average of the candidate values weighted by the
// inverse of their distance. A candidate at distance zero has infinite weight,
// so the first such candidate's value is returned as is. ok is false when there
// are no candidates.
func InverseDistance(cands []Candidate, value func(i int) float64) (v float64, ok bool) {
	if len(cands) == 0 {
		return 0, false
	}
	var sum, weights float64
	for _, c := range cands {
		if c.Distance == 0 {
			return value(c.Index), true
		}
		w := 1 / c.Distance
		sum += w * value(c.Index)
		weights += w
	}
	return sum / weights, true
}

// Nearest returns the value of the first candidate, which is the closest one
// with the lowest index when candidates are ordered as Searcher returns them.
func Nearest(cands []Candidate, value func(i int) float64) (v float64, ok bool) {
	if len(cands) == 0 {
		return 0, false
	}
	return value(cands[0].Index), true
}

// Vote returns the key held by the most candidates. Ties go to the smallest key.
func Vote(cands []Candidate, key func(i int) int32) (k int32, ok bool) {
	if len(cands) == 0 {
		return 0, false
	}
	counts := make(map[int32]int, len(cands))
	for _, c := range cands {
		counts[key(c.Index)]++
	}
	best, bestCount := int32(0), 0
	for k, n := range counts {
		if n > bestCount || (n == bestCount && k < best) {
			best, bestCount = k, n
		}
	}
	return best, true
}
