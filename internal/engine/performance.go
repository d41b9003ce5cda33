package engine

import (
	"fmt"

	"retailsynth/pkg/domain"
)

// PerformanceModel holds the per-store performance multiplier, computed once
// from the store's format and region.
type PerformanceModel struct {
	weights map[int]float64
}

// NewPerformanceModel computes format_base × region_multiplier for every store.
func NewPerformanceModel(stores []domain.Store, tables Tables) (*PerformanceModel, error) {
	weights := make(map[int]float64, len(stores))
	for _, st := range stores {
		f, err := tables.format(st.Format)
		if err != nil {
			return nil, fmt.Errorf("store %d: %w", st.ID, err)
		}
		r, err := tables.region(st.Region)
		if err != nil {
			return nil, fmt.Errorf("store %d: %w", st.ID, err)
		}
		weights[st.ID] = f.Performance * r
	}
	return &PerformanceModel{weights: weights}, nil
}

// Weight returns the multiplier for storeID, or 0 for an unknown store.
func (m *PerformanceModel) Weight(storeID int) float64 {
	return m.weights[storeID]
}

// Len returns the number of stores modelled.
func (m *PerformanceModel) Len() int { return len(m.weights) }
