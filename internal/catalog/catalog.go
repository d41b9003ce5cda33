// Package catalog enumerates the product and store master data. Generation
// is deterministic for a given source: every draw happens in catalog order.
package catalog

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"retailsynth/internal/sampling"
	"retailsynth/pkg/domain"
)

// Config sizes the catalogs.
type Config struct {
	Products int
	Stores   int
	// AsOf anchors store opening dates, which fall between ten years and one
	// year before it.
	AsOf time.Time
}

// DefaultConfig returns the reference catalog sizes.
func DefaultConfig() Config {
	return Config{Products: 125, Stores: 325, AsOf: domain.Date(2025, time.December, 31)}
}

// Catalog is the immutable master data of a run.
type Catalog struct {
	Products []domain.Product
	Stores   []domain.Store
}

// Generate builds products first, then stores.
func Generate(src *sampling.Source, cfg Config) (Catalog, error) {
	products, err := GenerateProducts(src, cfg.Products)
	if err != nil {
		return Catalog{}, fmt.Errorf("generate products: %w", err)
	}
	stores, err := GenerateStores(src, cfg.Stores, cfg.AsOf)
	if err != nil {
		return Catalog{}, fmt.Errorf("generate stores: %w", err)
	}
	return Catalog{Products: products, Stores: stores}, nil
}

// GenerateProducts returns n products: an equal share per category followed
// by extra products with a random category until n is reached.
func GenerateProducts(src *sampling.Source, n int) ([]domain.Product, error) {
	if n <= 0 {
		return nil, domain.InvalidConfigurationf("product count %d", n)
	}
	products := make([]domain.Product, 0, n)
	perCategory := n / len(domain.Categories)
	for _, cat := range domain.Categories {
		profile, ok := categoryProfiles[cat]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, cat)
		}
		for i := 0; i < perCategory; i++ {
			sub := sampling.OneOf(src, profile.subcategories)
			brand := sampling.OneOf(src, profile.brands)
			suffix := "Premium"
			if len(profile.variants) > 0 {
				suffix = sampling.OneOf(src, profile.variants)
			}
			price := money(src.Uniform(profile.priceMin, profile.priceMax))
			products = append(products, newProduct(len(products)+1, cat, sub, brand, suffix, price))
		}
	}
	for len(products) < n {
		cat := sampling.OneOf(src, domain.Categories)
		profile := categoryProfiles[cat]
		sub := sampling.OneOf(src, profile.subcategories)
		brand := sampling.OneOf(src, profile.brands)
		price := money(src.Uniform(10, 100))
		products = append(products, newProduct(len(products)+1, cat, sub, brand, "Extra", price))
	}
	return products, nil
}

func newProduct(id int, cat domain.Category, sub, brand, suffix string, price decimal.Decimal) domain.Product {
	return domain.Product{
		ID:             id,
		SKU:            fmt.Sprintf("SKU%04d", 1000+id),
		Name:           truncate(fmt.Sprintf("%s %s %s", brand, sub, suffix), domain.MaxNameLength),
		Brand:          brand,
		Category:       cat,
		Subcategory:    sub,
		SuggestedPrice: price,
	}
}

// GenerateStores returns n stores with uniformly drawn attributes.
func GenerateStores(src *sampling.Source, n int, asOf time.Time) ([]domain.Store, error) {
	if n <= 0 {
		return nil, domain.InvalidConfigurationf("store count %d", n)
	}
	earliest := asOf.AddDate(-10, 0, 0)
	latest := asOf.AddDate(-1, 0, 0)
	span := int(latest.Sub(earliest).Hours() / 24)

	stores := make([]domain.Store, 0, n)
	for id := 1; id <= n; id++ {
		chain := sampling.OneOf(src, domain.Chains)
		format := sampling.OneOf(src, domain.Formats)
		region := sampling.OneOf(src, domain.Regions)
		state := sampling.OneOf(src, domain.States)
		city := sampling.OneOf(src, cities)
		area, ok := storeAreas[format]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFormat, format)
		}
		opened := earliest.AddDate(0, 0, src.IntBetween(0, span))
		stores = append(stores, domain.Store{
			ID:       id,
			Code:     fmt.Sprintf("T%04d", 1000+id),
			Name:     fmt.Sprintf("%s %s", chain, city),
			Chain:    chain,
			Format:   format,
			Region:   region,
			City:     city,
			State:    state,
			AreaM2:   src.IntBetween(area.min, area.max),
			OpenedOn: domain.Date(opened.Year(), opened.Month(), opened.Day()),
		})
	}
	return stores, nil
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
