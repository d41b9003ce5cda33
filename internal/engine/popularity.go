package engine

import (
	"fmt"

	"retailsynth/internal/sampling"
	"retailsynth/pkg/domain"
)

const (
	// ParetoShape is the popularity tail index; 0.5 concentrates most
	// weighted draws on a small subset of products.
	ParetoShape = 0.5
	// MaxPopularity caps a single product's weight.
	MaxPopularity = 5.0
	// minPopularity keeps zero draws sampleable.
	minPopularity = 1e-9
)

// PopularityModel holds one weight per product, drawn once in catalog order.
type PopularityModel struct {
	byIndex []float64
	byID    map[int]float64
}

// NewPopularityModel draws Pareto(ParetoShape) × category multiplier for each
// product and clamps the result to (0, MaxPopularity].
func NewPopularityModel(src *sampling.Source, products []domain.Product, tables Tables) (*PopularityModel, error) {
	m := &PopularityModel{
		byIndex: make([]float64, len(products)),
		byID:    make(map[int]float64, len(products)),
	}
	for i, p := range products {
		c, err := tables.category(p.Category)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", p.ID, err)
		}
		w := min(src.Pareto(ParetoShape)*c.Popularity, MaxPopularity)
		w = max(w, minPopularity)
		m.byIndex[i] = w
		m.byID[p.ID] = w
	}
	return m, nil
}

// Weight returns the popularity of productID, or 0 for an unknown product.
func (m *PopularityModel) Weight(productID int) float64 {
	return m.byID[productID]
}

// Weights returns a copy of the weights aligned with the catalog order.
func (m *PopularityModel) Weights() []float64 {
	out := make([]float64, len(m.byIndex))
	copy(out, m.byIndex)
	return out
}
