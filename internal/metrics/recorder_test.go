package metrics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"retailsynth/pkg/domain"
)

func TestRecorderCountsRows(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(false)
	if err := r.BeginSalesYear(ctx, 2023); err != nil {
		t.Fatalf("begin year: %v", err)
	}
	txn := domain.Transaction{
		TicketID: "T20240101001000", Date: domain.Date(2024, time.January, 1),
		Lines: []domain.LineItem{
			{Channel: domain.ChannelInStore},
			{Channel: domain.ChannelInStore, DiscountPct: 10},
			{Channel: domain.ChannelMobile},
		},
	}
	for range 3 {
		if err := r.WriteTransaction(ctx, txn); err != nil {
			t.Fatalf("txn: %v", err)
		}
	}
	if err := r.WriteSnapshot(ctx, domain.InventorySnapshot{}); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if got := promtest.ToFloat64(r.transactions.WithLabelValues("2024")); got != 3 {
		t.Fatalf("transactions 2024 = %v", got)
	}
	if got := promtest.ToFloat64(r.transactions.WithLabelValues("2023")); got != 0 {
		t.Fatalf("transactions 2023 = %v", got)
	}
	if got := promtest.ToFloat64(r.lineItems.WithLabelValues("in-store")); got != 6 {
		t.Fatalf("in-store lines = %v", got)
	}
	if got := promtest.ToFloat64(r.discounted); got != 3 {
		t.Fatalf("discounted lines = %v", got)
	}
	if got := promtest.ToFloat64(r.snapshots); got != 1 {
		t.Fatalf("snapshots = %v", got)
	}
}

func TestRecorderObserveAndArtifacts(t *testing.T) {
	r := NewRecorder(false)
	r.Observe(context.Background(), "sales", true, 1500*time.Millisecond)
	r.Observe(context.Background(), "sales", false, time.Second)
	r.Observe(context.Background(), "", true, time.Second)
	r.SetArtifactBytes("productos.csv", 2048)

	if n := promtest.CollectAndCount(r.stages); n != 2 {
		t.Fatalf("expected 2 stage series, got %d", n)
	}
	expected := `
# HELP retailgen_artifact_bytes Size of each published artifact.
# TYPE retailgen_artifact_bytes gauge
retailgen_artifact_bytes{artifact="productos.csv"} 2048
`
	if err := promtest.CollectAndCompare(r.artifacts, strings.NewReader(expected)); err != nil {
		t.Fatalf("artifact gauge: %v", err)
	}
}

func TestRecorderCommitStampsLastRun(t *testing.T) {
	r := NewRecorder(false)
	if err := r.Commit(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := promtest.ToFloat64(r.lastRun); got < float64(time.Now().Add(-time.Minute).Unix()) {
		t.Fatalf("last run timestamp not set: %v", got)
	}
}

func TestRecorderRetractRestoresLastRun(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(false)
	if err := r.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	first := promtest.ToFloat64(r.lastRun)
	if err := r.Begin(ctx, domain.RunInfo{}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := r.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := r.Abort(ctx); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if got := promtest.ToFloat64(r.lastRun); got != first {
		t.Fatalf("expected stamp %v after retract, got %v", first, got)
	}
	if err := r.Retract(ctx); err != nil {
		t.Fatalf("second retract: %v", err)
	}
	if got := promtest.ToFloat64(r.lastRun); got != first {
		t.Fatalf("repeated retract moved the stamp to %v", got)
	}

	fresh := NewRecorder(false)
	if err := fresh.Abort(ctx); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if got := promtest.ToFloat64(fresh.lastRun); got != 0 {
		t.Fatalf("abort without commit set the stamp to %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder(true)
	r.SetArtifactBytes("manifest.json", 10)
	path := filepath.Join(t.TempDir(), "retailgen.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(b)
	for _, want := range []string{`retailgen_artifact_bytes{artifact="manifest.json"} 10`, "go_goroutines"} {
		if !strings.Contains(out, want) {
			t.Fatalf("textfile lacks %q:\n%s", want, out)
		}
	}
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
