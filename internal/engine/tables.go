// Package engine implements the stochastic retail generation core: the
// calendar demand modulator, the store performance and product popularity
// models, the daily transaction sampler and the monthly inventory simulator.
//
// The engine is pure computation over in-memory catalogs. It draws every
// random value from the *sampling.Source it is given and never touches
// storage; sinks receive its output through small callback interfaces.
package engine

import (
	"fmt"

	"retailsynth/pkg/domain"
)

// CategoryParams holds the per-category numeric parameters.
type CategoryParams struct {
	// Popularity scales the Pareto popularity draw.
	Popularity float64
	// StockMin and StockMax bound the base monthly opening stock.
	StockMin int
	StockMax int
}

// FormatParams holds the per-format numeric parameters.
type FormatParams struct {
	// Performance is the base store performance multiplier.
	Performance float64
	// StockScale multiplies both category stock bounds.
	StockScale float64
}

// Tables maps every member of the closed enums to its parameters.
type Tables struct {
	Categories map[domain.Category]CategoryParams
	Formats    map[domain.Format]FormatParams
	Regions    map[domain.Region]float64
}

// DefaultTables returns the reference parameter tables.
func DefaultTables() Tables {
	return Tables{
		Categories: map[domain.Category]CategoryParams{
			domain.CategoryBebidas:   {Popularity: 1.3, StockMin: 20, StockMax: 200},
			domain.CategorySnacks:    {Popularity: 1.2, StockMin: 15, StockMax: 150},
			domain.CategoryLacteos:   {Popularity: 1.1, StockMin: 10, StockMax: 100},
			domain.CategoryPan:       {Popularity: 1.0, StockMin: 5, StockMax: 50},
			domain.CategoryAbarrotes: {Popularity: 0.9, StockMin: 8, StockMax: 80},
			domain.CategoryVerduras:  {Popularity: 0.8, StockMin: 5, StockMax: 40},
			domain.CategoryCarnes:    {Popularity: 0.7, StockMin: 3, StockMax: 30},
			domain.CategoryHigiene:   {Popularity: 0.6, StockMin: 10, StockMax: 60},
		},
		Formats: map[domain.Format]FormatParams{
			domain.FormatHiper:       {Performance: 1.5, StockScale: 3.0},
			domain.FormatSuper:       {Performance: 1.0, StockScale: 1.5},
			domain.FormatExpress:     {Performance: 0.7, StockScale: 1.0},
			domain.FormatConvenience: {Performance: 0.4, StockScale: 0.5},
		},
		Regions: map[domain.Region]float64{
			domain.RegionCentro: 1.2,
			domain.RegionNorte:  1.1,
			domain.RegionSur:    0.9,
			domain.RegionEste:   1.0,
			domain.RegionOeste:  0.95,
			domain.RegionBajio:  0.85,
		},
	}
}

// Validate checks that every enum member is mapped to usable parameters.
func (t Tables) Validate() error {
	for _, c := range domain.Categories {
		p, ok := t.Categories[c]
		if !ok {
			return fmt.Errorf("category table: %w: %q", domain.ErrUnknownCategory, c)
		}
		if p.Popularity <= 0 {
			return domain.InvalidConfigurationf("category %q popularity multiplier %v must be positive", c, p.Popularity)
		}
		if p.StockMin < 0 || p.StockMax < p.StockMin {
			return domain.InvalidConfigurationf("category %q stock range [%d, %d]", c, p.StockMin, p.StockMax)
		}
	}
	for _, f := range domain.Formats {
		p, ok := t.Formats[f]
		if !ok {
			return fmt.Errorf("format table: %w: %q", domain.ErrUnknownFormat, f)
		}
		if p.Performance <= 0 || p.StockScale <= 0 {
			return domain.InvalidConfigurationf("format %q parameters must be positive", f)
		}
	}
	for _, r := range domain.Regions {
		m, ok := t.Regions[r]
		if !ok {
			return fmt.Errorf("region table: %w: %q", domain.ErrUnknownRegion, r)
		}
		if m <= 0 {
			return domain.InvalidConfigurationf("region %q multiplier %v must be positive", r, m)
		}
	}
	return nil
}

func (t Tables) category(c domain.Category) (CategoryParams, error) {
	p, ok := t.Categories[c]
	if !ok {
		return CategoryParams{}, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, c)
	}
	return p, nil
}

func (t Tables) format(f domain.Format) (FormatParams, error) {
	p, ok := t.Formats[f]
	if !ok {
		return FormatParams{}, fmt.Errorf("%w: %q", domain.ErrUnknownFormat, f)
	}
	return p, nil
}

func (t Tables) region(r domain.Region) (float64, error) {
	m, ok := t.Regions[r]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownRegion, r)
	}
	return m, nil
}
