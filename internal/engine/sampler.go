package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"retailsynth/internal/sampling"
	"retailsynth/pkg/domain"
)

// SalesParams configures the daily transaction sampler.
type SalesParams struct {
	MinActiveStores int
	ActiveShareMin  float64
	ActiveShareMax  float64

	// Per-store daily transaction draw before performance and calendar scaling.
	TransactionsMin float64
	TransactionsMax float64

	MeanItems float64
	MaxItems  int

	MeanQuantity float64
	MaxQuantity  int
	// Quantities above MaxQuantity are re-drawn uniformly in [1, OverflowQuantity].
	OverflowQuantity int

	PriceJitterMin float64
	PriceJitterMax float64

	DiscountProbability float64

	// OpenHour is the hour of HourWeights[0].
	OpenHour    int
	HourWeights []float64
	// ChannelWeights is aligned with domain.Channels.
	ChannelWeights []float64
}

// DefaultSalesParams returns the reference sampler parameters.
func DefaultSalesParams() SalesParams {
	return SalesParams{
		MinActiveStores:     50,
		ActiveShareMin:      0.6,
		ActiveShareMax:      0.9,
		TransactionsMin:     5,
		TransactionsMax:     25,
		MeanItems:           2,
		MaxItems:            8,
		MeanQuantity:        1.5,
		MaxQuantity:         10,
		OverflowQuantity:    3,
		PriceJitterMin:      0.9,
		PriceJitterMax:      1.1,
		DiscountProbability: 0.15,
		OpenHour:            8,
		HourWeights:         []float64{0.5, 0.7, 1.0, 1.2, 1.5, 1.8, 2.0, 1.8, 1.5, 1.2, 1.0, 0.8, 0.6, 0.4},
		ChannelWeights:      []float64{85, 12, 3},
	}
}

// Validate rejects parameters the sampler cannot honour.
func (p SalesParams) Validate() error {
	switch {
	case p.MinActiveStores < 0:
		return domain.InvalidConfigurationf("minimum active stores %d", p.MinActiveStores)
	case p.ActiveShareMin <= 0 || p.ActiveShareMax > 1 || p.ActiveShareMin > p.ActiveShareMax:
		return domain.InvalidConfigurationf("active share range [%v, %v]", p.ActiveShareMin, p.ActiveShareMax)
	case p.TransactionsMin < 0 || p.TransactionsMax < p.TransactionsMin:
		return domain.InvalidConfigurationf("transaction range [%v, %v]", p.TransactionsMin, p.TransactionsMax)
	case p.MaxItems < 1 || p.MeanItems <= 0:
		return domain.InvalidConfigurationf("items per transaction mean %v max %d", p.MeanItems, p.MaxItems)
	case p.MaxQuantity < 1 || p.MeanQuantity <= 0 || p.OverflowQuantity < 1 || p.OverflowQuantity > p.MaxQuantity:
		return domain.InvalidConfigurationf("quantity mean %v max %d overflow %d", p.MeanQuantity, p.MaxQuantity, p.OverflowQuantity)
	case p.PriceJitterMin <= 0 || p.PriceJitterMax < p.PriceJitterMin:
		return domain.InvalidConfigurationf("price jitter [%v, %v]", p.PriceJitterMin, p.PriceJitterMax)
	case p.DiscountProbability < 0 || p.DiscountProbability > 1:
		return domain.InvalidConfigurationf("discount probability %v", p.DiscountProbability)
	case p.OpenHour < 0 || p.OpenHour+len(p.HourWeights) > 24:
		return domain.InvalidConfigurationf("opening hours start %d span %d", p.OpenHour, len(p.HourWeights))
	case len(p.ChannelWeights) != len(domain.Channels):
		return domain.InvalidConfigurationf("%d channel weights for %d channels", len(p.ChannelWeights), len(domain.Channels))
	}
	return nil
}

// SalesSink receives transactions one calendar year at a time. BeginYear and
// EndYear bracket every year, including years that produced no transactions.
type SalesSink interface {
	BeginYear(year int) error
	Transaction(txn domain.Transaction) error
	EndYear(year int) error
}

// TransactionSampler draws the daily point-of-sale transactions.
type TransactionSampler struct {
	src      *sampling.Source
	params   SalesParams
	stores   []domain.Store
	products []domain.Product
	perf     *PerformanceModel
	picks    *sampling.Weighted
	hours    *sampling.Weighted
	channels *sampling.Weighted
}

// NewTransactionSampler wires the sampler to the catalogs and the
// precomputed weight models.
func NewTransactionSampler(src *sampling.Source, stores []domain.Store, products []domain.Product, perf *PerformanceModel, pop *PopularityModel, params SalesParams) (*TransactionSampler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(stores) < params.MinActiveStores {
		return nil, domain.InvalidConfigurationf("%d stores cannot cover %d active stores per day", len(stores), params.MinActiveStores)
	}
	if len(products) == 0 {
		return nil, domain.InvalidConfigurationf("product catalog is empty")
	}
	picks, err := sampling.NewWeighted(pop.Weights())
	if err != nil {
		return nil, fmt.Errorf("product popularity: %w", err)
	}
	hours, err := sampling.NewWeighted(params.HourWeights)
	if err != nil {
		return nil, fmt.Errorf("hour weights: %w", err)
	}
	channels, err := sampling.NewWeighted(params.ChannelWeights)
	if err != nil {
		return nil, fmt.Errorf("channel weights: %w", err)
	}
	return &TransactionSampler{
		src:      src,
		params:   params,
		stores:   stores,
		products: products,
		perf:     perf,
		picks:    picks,
		hours:    hours,
		channels: channels,
	}, nil
}

// SampleYears runs the daily loop from January 1 of from through December 31
// of to, delivering each year to sink before starting the next.
func (s *TransactionSampler) SampleYears(ctx context.Context, from, to int, sink SalesSink) error {
	if to < from {
		return domain.InvalidConfigurationf("year range %d-%d", from, to)
	}
	for year := from; year <= to; year++ {
		if err := sink.BeginYear(year); err != nil {
			return fmt.Errorf("begin year %d: %w", year, err)
		}
		end := domain.Date(year+1, time.January, 1)
		for day := domain.Date(year, time.January, 1); day.Before(end); day = day.AddDate(0, 0, 1) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.SampleDay(day, sink.Transaction); err != nil {
				return fmt.Errorf("sample day %s: %w", day.Format(time.DateOnly), err)
			}
		}
		if err := sink.EndYear(year); err != nil {
			return fmt.Errorf("end year %d: %w", year, err)
		}
	}
	return nil
}

// SampleDay emits every transaction of a single date.
func (s *TransactionSampler) SampleDay(date time.Time, emit func(domain.Transaction) error) error {
	share := s.src.Uniform(s.params.ActiveShareMin, s.params.ActiveShareMax)
	active := max(s.params.MinActiveStores, int(math.Round(float64(len(s.stores))*share)))
	open, err := sampling.Choose(s.src, s.stores, active)
	if err != nil {
		return fmt.Errorf("active stores: %w", err)
	}
	factor := Modulate(date)
	stamp := date.Format("20060102")
	for _, st := range open {
		count := int(math.Floor(s.perf.Weight(st.ID) * factor * s.src.Uniform(s.params.TransactionsMin, s.params.TransactionsMax)))
		for seq := 0; seq < count; seq++ {
			txn := s.transaction(date, st, fmt.Sprintf("T%s%03d%03d", stamp, st.ID, seq))
			if err := emit(txn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *TransactionSampler) transaction(date time.Time, st domain.Store, ticket string) domain.Transaction {
	items := int(math.Round(s.src.Exponential(s.params.MeanItems)))
	items = min(s.params.MaxItems, max(1, items))
	picked := s.picks.PickN(s.src, items)
	txn := domain.Transaction{
		TicketID: ticket,
		StoreID:  st.ID,
		Date:     date,
		Hour:     s.params.OpenHour + s.hours.Pick(s.src),
		Minute:   s.src.IntBetween(0, 59),
		Lines:    make([]domain.LineItem, 0, items),
	}
	for _, idx := range picked {
		txn.Lines = append(txn.Lines, s.lineItem(s.products[idx]))
	}
	return txn
}

func (s *TransactionSampler) lineItem(p domain.Product) domain.LineItem {
	qty := max(1, int(math.Round(s.src.Exponential(s.params.MeanQuantity))))
	if qty > s.params.MaxQuantity {
		qty = s.src.IntBetween(1, s.params.OverflowQuantity)
	}
	jitter := s.src.Uniform(s.params.PriceJitterMin, s.params.PriceJitterMax)
	price := decimal.NewFromFloat(p.SuggestedPrice.InexactFloat64() * jitter).Round(2)
	discount := 0
	if s.src.Bernoulli(s.params.DiscountProbability) {
		discount = sampling.OneOf(s.src, domain.DiscountTiers)
	}
	return domain.LineItem{
		ProductID:   p.ID,
		Quantity:    qty,
		UnitPrice:   price,
		DiscountPct: discount,
		Channel:     domain.Channels[s.channels.Pick(s.src)],
	}
}
