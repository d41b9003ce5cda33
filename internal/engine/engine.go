package engine

import (
	"fmt"

	"retailsynth/internal/sampling"
	"retailsynth/pkg/domain"
)

// Options bundles the engine's parameter tables.
type Options struct {
	Tables    Tables
	Sales     SalesParams
	Inventory InventoryParams
}

// DefaultOptions returns the reference parameters.
func DefaultOptions() Options {
	return Options{
		Tables:    DefaultTables(),
		Sales:     DefaultSalesParams(),
		Inventory: DefaultInventoryParams(),
	}
}

// Engine is the assembled generation core for one catalog.
type Engine struct {
	Performance *PerformanceModel
	Popularity  *PopularityModel
	Sales       *TransactionSampler
	Inventory   *InventorySimulator
}

// New validates opts and precomputes the weight models. Popularity is the
// first consumer of src after the catalogs, so construction order is part of
// the reproducibility contract.
func New(src *sampling.Source, products []domain.Product, stores []domain.Store, opts Options) (*Engine, error) {
	if err := opts.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("validate tables: %w", err)
	}
	perf, err := NewPerformanceModel(stores, opts.Tables)
	if err != nil {
		return nil, fmt.Errorf("store performance: %w", err)
	}
	pop, err := NewPopularityModel(src, products, opts.Tables)
	if err != nil {
		return nil, fmt.Errorf("product popularity: %w", err)
	}
	sales, err := NewTransactionSampler(src, stores, products, perf, pop, opts.Sales)
	if err != nil {
		return nil, fmt.Errorf("transaction sampler: %w", err)
	}
	inv, err := NewInventorySimulator(src, stores, products, opts.Tables, opts.Inventory)
	if err != nil {
		return nil, fmt.Errorf("inventory simulator: %w", err)
	}
	return &Engine{Performance: perf, Popularity: pop, Sales: sales, Inventory: inv}, nil
}
