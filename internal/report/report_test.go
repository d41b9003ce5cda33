package report

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"retailsynth/internal/export"
	"retailsynth/pkg/domain"
)

func collect(t *testing.T) *Collector {
	t.Helper()
	ctx := context.Background()
	c := NewCollector()
	run := domain.RunInfo{RunID: "run-9", Seed: 9, FromYear: 2023, ToYear: 2024}
	if err := c.Begin(ctx, run); err != nil {
		t.Fatalf("begin: %v", err)
	}
	_ = c.WriteProducts(ctx, []domain.Product{{Category: domain.CategoryPan}, {Category: domain.CategoryPan}, {Category: domain.CategorySnacks}})
	_ = c.WriteStores(ctx, []domain.Store{{Chain: domain.ChainSuperMax, Region: domain.RegionSur}, {Chain: domain.ChainMercadoPlus, Region: domain.RegionSur}})
	_ = c.BeginSalesYear(ctx, 2023)
	_ = c.EndSalesYear(ctx, 2023)
	_ = c.BeginSalesYear(ctx, 2024)
	for i := range 4 {
		txn := domain.Transaction{
			Date: domain.Date(2024, time.May, 1+i),
			Lines: []domain.LineItem{
				{Quantity: 2, Channel: domain.ChannelInStore},
				{Quantity: 1, Channel: domain.ChannelOnline, DiscountPct: 5},
			},
		}
		if err := c.WriteTransaction(ctx, txn); err != nil {
			t.Fatalf("txn: %v", err)
		}
	}
	_ = c.WriteSnapshot(ctx, domain.InventorySnapshot{})
	return c
}

func TestCollectorSummary(t *testing.T) {
	s := collect(t).Summary()
	if s.Products != 3 || s.Categories != 2 || s.Stores != 2 || s.Chains != 2 || s.Regions != 1 {
		t.Fatalf("unexpected master data figures %+v", s)
	}
	if s.Transactions != 4 || s.Lines != 8 || s.Units != 12 || s.Discounted != 4 || s.Snapshots != 1 {
		t.Fatalf("unexpected sales figures %+v", s)
	}
	if s.ByYear[2023] != 0 || s.ByYear[2024] != 4 || len(s.ByYear) != 2 {
		t.Fatalf("unexpected per-year tickets %+v", s.ByYear)
	}
	if math.Abs(s.ChannelShare(domain.ChannelOnline)-0.5) > 1e-9 || s.ChannelShare(domain.ChannelMobile) != 0 {
		t.Fatalf("unexpected channel shares")
	}
	if s.DiscountRate() != 0.5 || s.LinesPerTicket() != 2 {
		t.Fatalf("unexpected rates %v %v", s.DiscountRate(), s.LinesPerTicket())
	}
}

func TestEmptySummaryRates(t *testing.T) {
	s := NewCollector().Summary()
	if s.ChannelShare(domain.ChannelOnline) != 0 || s.DiscountRate() != 0 || s.LinesPerTicket() != 0 {
		t.Fatalf("empty summary should report zero rates")
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	artifacts := []export.Artifact{{Name: "ventas_2024.csv", Key: "out/ventas_2024.csv", Rows: 1234567, Bytes: 2_500_000, SHA256: strings.Repeat("ab", 32)}}
	if err := Write(&buf, collect(t).Summary(), artifacts); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Run run-9 (seed 9), years 2023-2024",
		"out/ventas_2024.csv",
		"1,234,567",
		"2.5 MB",
		"abababababab\n",
		"Tickets 2023",
		"Channel online",
		"50.0%",
		"Inventory snapshots",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report lacks %q:\n%s", want, out)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteSurfacesWriterError(t *testing.T) {
	if err := Write(failingWriter{}, NewCollector().Summary(), nil); err == nil {
		t.Fatalf("expected writer error")
	}
}
