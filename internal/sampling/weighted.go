package sampling

import (
	"math"
	"sort"

	"retailsynth/pkg/domain"
)

// Weighted draws indices with probability proportional to fixed weights,
// with replacement. The cumulative table is built once; each pick is one
// uniform draw plus a binary search.
type Weighted struct {
	cum   []float64
	total float64
	last  int
}

// NewWeighted builds a sampler over weights. Weights must be finite and
// non-negative with a positive sum.
func NewWeighted(weights []float64) (*Weighted, error) {
	if len(weights) == 0 {
		return nil, domain.InvalidConfigurationf("weighted sampler needs at least one weight")
	}
	cum := make([]float64, len(weights))
	total := 0.0
	last := -1
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, domain.InvalidConfigurationf("weight %d is %v", i, w)
		}
		total += w
		cum[i] = total
		if w > 0 {
			last = i
		}
	}
	if last < 0 {
		return nil, domain.InvalidConfigurationf("weights sum to zero")
	}
	return &Weighted{cum: cum, total: total, last: last}, nil
}

// Len returns the number of weighted entries.
func (w *Weighted) Len() int { return len(w.cum) }

// Pick returns one index.
func (w *Weighted) Pick(src *Source) int {
	u := src.Float64() * w.total
	i := sort.Search(len(w.cum), func(i int) bool { return w.cum[i] > u })
	if i > w.last {
		return w.last
	}
	return i
}

// PickN returns k indices drawn independently, in draw order.
func (w *Weighted) PickN(src *Source, k int) []int {
	out := make([]int, k)
	for i := range out {
		out[i] = w.Pick(src)
	}
	return out
}
