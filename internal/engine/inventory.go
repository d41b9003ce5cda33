package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"retailsynth/internal/sampling"
	"retailsynth/pkg/domain"
)

// InventoryParams configures the monthly inventory simulation.
type InventoryParams struct {
	// StoreShare of all stores report each month.
	StoreShare float64
	// ProductShare of all products is carried by each reporting store.
	ProductShare float64
	CostMin      float64
	CostMax      float64
}

// DefaultInventoryParams returns the reference inventory parameters.
func DefaultInventoryParams() InventoryParams {
	return InventoryParams{StoreShare: 0.7, ProductShare: 0.6, CostMin: 0.6, CostMax: 0.8}
}

// Validate rejects shares outside (0, 1] and inverted cost ranges.
func (p InventoryParams) Validate() error {
	if p.StoreShare <= 0 || p.StoreShare > 1 || p.ProductShare <= 0 || p.ProductShare > 1 {
		return domain.InvalidConfigurationf("inventory shares stores=%v products=%v", p.StoreShare, p.ProductShare)
	}
	if p.CostMin <= 0 || p.CostMax < p.CostMin {
		return domain.InvalidConfigurationf("unit cost range [%v, %v]", p.CostMin, p.CostMax)
	}
	return nil
}

// InventorySimulator produces monthly stock-flow snapshots. It shares only
// the catalogs and the random source with the sales path.
type InventorySimulator struct {
	src      *sampling.Source
	params   InventoryParams
	tables   Tables
	stores   []domain.Store
	products []domain.Product
}

// NewInventorySimulator validates params and tables against the catalogs.
func NewInventorySimulator(src *sampling.Source, stores []domain.Store, products []domain.Product, tables Tables, params InventoryParams) (*InventorySimulator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	for _, st := range stores {
		if _, err := tables.format(st.Format); err != nil {
			return nil, fmt.Errorf("store %d: %w", st.ID, err)
		}
	}
	for _, p := range products {
		if _, err := tables.category(p.Category); err != nil {
			return nil, fmt.Errorf("product %d: %w", p.ID, err)
		}
	}
	return &InventorySimulator{src: src, params: params, tables: tables, stores: stores, products: products}, nil
}

// Simulate emits snapshots for every month of the years from..to.
func (s *InventorySimulator) Simulate(ctx context.Context, from, to int, emit func(domain.InventorySnapshot) error) error {
	if to < from {
		return domain.InvalidConfigurationf("year range %d-%d", from, to)
	}
	for year := from; year <= to; year++ {
		for month := time.January; month <= time.December; month++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			date := domain.Date(year, month, 1)
			if err := s.SimulateMonth(date, emit); err != nil {
				return fmt.Errorf("inventory %s: %w", date.Format("2006-01"), err)
			}
		}
	}
	return nil
}

// SimulateMonth emits the snapshots dated on the first day of date's month.
func (s *InventorySimulator) SimulateMonth(date time.Time, emit func(domain.InventorySnapshot) error) error {
	date = domain.Date(date.Year(), date.Month(), 1)
	reporting, err := sampling.Choose(s.src, s.stores, int(float64(len(s.stores))*s.params.StoreShare))
	if err != nil {
		return fmt.Errorf("reporting stores: %w", err)
	}
	carried := int(float64(len(s.products)) * s.params.ProductShare)
	for _, st := range reporting {
		format, err := s.tables.format(st.Format)
		if err != nil {
			return err
		}
		lines, err := sampling.Choose(s.src, s.products, carried)
		if err != nil {
			return fmt.Errorf("store %d products: %w", st.ID, err)
		}
		for _, p := range lines {
			snap, err := s.snapshot(date, st, p, format)
			if err != nil {
				return err
			}
			if err := emit(snap); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *InventorySimulator) snapshot(date time.Time, st domain.Store, p domain.Product, format FormatParams) (domain.InventorySnapshot, error) {
	cat, err := s.tables.category(p.Category)
	if err != nil {
		return domain.InventorySnapshot{}, err
	}
	minStock := int(float64(cat.StockMin) * format.StockScale)
	maxStock := int(float64(cat.StockMax) * format.StockScale)

	opening := s.src.IntBetween(minStock, maxStock)
	incoming := s.src.IntBetween(0, maxStock/2)
	outgoing := s.src.IntBetween(0, min(opening+incoming, maxStock/3))
	cost := decimal.NewFromFloat(p.SuggestedPrice.InexactFloat64() * s.src.Uniform(s.params.CostMin, s.params.CostMax)).Round(2)

	return domain.InventorySnapshot{
		ProductID:    p.ID,
		StoreID:      st.ID,
		Date:         date,
		OpeningStock: opening,
		ClosingStock: domain.ClosingStockFor(opening, incoming, outgoing),
		Incoming:     incoming,
		Outgoing:     outgoing,
		UnitCost:     cost,
	}, nil
}
