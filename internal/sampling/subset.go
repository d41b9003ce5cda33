package sampling

import "retailsynth/pkg/domain"

// Subset draws k distinct indices from [0, n) without replacement using a
// partial Fisher-Yates shuffle. The result is in selection order.
func Subset(src *Source, n, k int) ([]int, error) {
	if n < 0 || k < 0 || k > n {
		return nil, domain.InvalidConfigurationf("cannot draw %d of %d without replacement", k, n)
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + src.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k:k], nil
}

// Choose returns k distinct elements of items in selection order.
func Choose[T any](src *Source, items []T, k int) ([]T, error) {
	picked, err := Subset(src, len(items), k)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(picked))
	for i, p := range picked {
		out[i] = items[p]
	}
	return out, nil
}

// OneOf returns a uniformly chosen element of items. It panics on an empty slice.
func OneOf[T any](src *Source, items []T) T {
	return items[src.IntN(len(items))]
}
