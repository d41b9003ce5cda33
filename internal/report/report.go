// Package report summarises a finished run for people: what was written and
// what the generated rows actually look like.
package report

import (
	"context"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"retailsynth/internal/export"
	"retailsynth/pkg/domain"
)

var _ domain.DatasetSink = (*Collector)(nil)

// Summary holds the figures observed while a run streamed past.
type Summary struct {
	Run          domain.RunInfo
	Products     int
	Categories   int
	Stores       int
	Chains       int
	Regions      int
	Transactions int
	Lines        int
	Units        int
	Discounted   int
	ByChannel    map[domain.Channel]int
	ByYear       map[int]int
	Snapshots    int
}

// ChannelShare returns the fraction of lines sold through ch.
func (s Summary) ChannelShare(ch domain.Channel) float64 {
	if s.Lines == 0 {
		return 0
	}
	return float64(s.ByChannel[ch]) / float64(s.Lines)
}

// DiscountRate returns the fraction of lines with a discount.
func (s Summary) DiscountRate() float64 {
	if s.Lines == 0 {
		return 0
	}
	return float64(s.Discounted) / float64(s.Lines)
}

// LinesPerTicket returns the mean basket size.
func (s Summary) LinesPerTicket() float64 {
	if s.Transactions == 0 {
		return 0
	}
	return float64(s.Lines) / float64(s.Transactions)
}

// Collector is a dataset sink that only observes.
type Collector struct {
	summary Summary
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{summary: Summary{ByChannel: map[domain.Channel]int{}, ByYear: map[int]int{}}}
}

// Summary returns the figures collected so far.
func (c *Collector) Summary() Summary { return c.summary }

// Begin implements domain.DatasetSink.
func (c *Collector) Begin(_ context.Context, run domain.RunInfo) error {
	c.summary.Run = run
	return nil
}

// WriteProducts counts products and distinct categories.
func (c *Collector) WriteProducts(_ context.Context, products []domain.Product) error {
	cats := map[domain.Category]struct{}{}
	for _, p := range products {
		cats[p.Category] = struct{}{}
	}
	c.summary.Products, c.summary.Categories = len(products), len(cats)
	return nil
}

// WriteStores counts stores, chains and regions.
func (c *Collector) WriteStores(_ context.Context, stores []domain.Store) error {
	chains := map[domain.Chain]struct{}{}
	regions := map[domain.Region]struct{}{}
	for _, s := range stores {
		chains[s.Chain] = struct{}{}
		regions[s.Region] = struct{}{}
	}
	c.summary.Stores, c.summary.Chains, c.summary.Regions = len(stores), len(chains), len(regions)
	return nil
}

// BeginSalesYear implements domain.DatasetSink.
func (c *Collector) BeginSalesYear(_ context.Context, year int) error {
	c.summary.ByYear[year] += 0
	return nil
}

// WriteTransaction tallies the ticket.
func (c *Collector) WriteTransaction(_ context.Context, txn domain.Transaction) error {
	c.summary.Transactions++
	c.summary.ByYear[txn.Year()]++
	for _, li := range txn.Lines {
		c.summary.Lines++
		c.summary.Units += li.Quantity
		c.summary.ByChannel[li.Channel]++
		if li.DiscountPct > 0 {
			c.summary.Discounted++
		}
	}
	return nil
}

// EndSalesYear implements domain.DatasetSink.
func (c *Collector) EndSalesYear(context.Context, int) error { return nil }

// BeginInventory implements domain.DatasetSink.
func (c *Collector) BeginInventory(context.Context) error { return nil }

// WriteSnapshot counts one snapshot.
func (c *Collector) WriteSnapshot(context.Context, domain.InventorySnapshot) error {
	c.summary.Snapshots++
	return nil
}

// EndInventory implements domain.DatasetSink.
func (c *Collector) EndInventory(context.Context) error { return nil }

// Commit implements domain.DatasetSink.
func (c *Collector) Commit(context.Context) error { return nil }

// Abort implements domain.DatasetSink.
func (c *Collector) Abort(context.Context) error { return nil }

// Write renders the summary and the artifact table.
func Write(w io.Writer, s Summary, artifacts []export.Artifact) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	p := func(format string, args ...any) {
		_, _ = fmt.Fprintf(tw, format, args...)
	}
	p("Run %s (seed %d), years %d-%d\n\n", s.Run.RunID, s.Run.Seed, s.Run.FromYear, s.Run.ToYear)

	p("ARTIFACT\tROWS\tSIZE\tSHA256\n")
	for _, a := range artifacts {
		p("%s\t%s\t%s\t%.12s\n", a.Key, humanize.Comma(int64(a.Rows)), humanize.Bytes(uint64(a.Bytes)), a.SHA256)
	}
	p("\n")

	p("Products\t%d in %d categories\n", s.Products, s.Categories)
	p("Stores\t%d across %d chains, %d regions\n", s.Stores, s.Chains, s.Regions)
	years := make([]int, 0, len(s.ByYear))
	for y := range s.ByYear {
		years = append(years, y)
	}
	slices.Sort(years)
	for _, y := range years {
		p("Tickets %d\t%s\n", y, humanize.Comma(int64(s.ByYear[y])))
	}
	p("Ticket lines\t%s (%.2f per ticket, %s units)\n", humanize.Comma(int64(s.Lines)), s.LinesPerTicket(), humanize.Comma(int64(s.Units)))
	for _, ch := range domain.Channels {
		p("Channel %s\t%.1f%%\n", ch, 100*s.ChannelShare(ch))
	}
	p("Discounted lines\t%.1f%%\n", 100*s.DiscountRate())
	p("Inventory snapshots\t%s\n", humanize.Comma(int64(s.Snapshots)))
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
