package pipeline_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"path"
	"strings"
	"testing"
	"time"

	"retailsynth/internal/blob"
	"retailsynth/internal/catalog"
	"retailsynth/internal/engine"
	"retailsynth/internal/export"
	"retailsynth/internal/metrics"
	"retailsynth/internal/pipeline"
	"retailsynth/internal/report"
	"retailsynth/internal/warehouse"
	"retailsynth/internal/warehouse/stubdb"
	"retailsynth/pkg/domain"
)

// smallConfig keeps a two-year run to tens of thousands of tickets.
func smallConfig(seed uint64) pipeline.Config {
	opts := engine.DefaultOptions()
	opts.Sales.TransactionsMin = 0.5
	opts.Sales.TransactionsMax = 2
	return pipeline.Config{
		Seed:     seed,
		FromYear: 2023,
		ToYear:   2024,
		Catalog:  catalog.Config{Products: 40, Stores: 60, AsOf: domain.Date(2024, time.December, 31)},
		Engine:   opts,
	}
}

var fixedClock = pipeline.ClockFunc(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) })

func newRunner(opts ...pipeline.Option) *pipeline.Runner {
	base := []pipeline.Option{
		pipeline.WithClock(fixedClock),
		pipeline.WithRunIDSource(func() string { return "run-test" }),
	}
	return pipeline.New(append(base, opts...)...)
}

func readAll(t *testing.T, store blob.Store, key string) []byte {
	t.Helper()
	_, rc, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return b
}

func TestRunIsReproducible(t *testing.T) {
	ctx := context.Background()
	first, second := blob.NewMemory(), blob.NewMemory()
	if _, err := newRunner().Run(ctx, smallConfig(7), export.NewPublisher(first)); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := newRunner().Run(ctx, smallConfig(7), export.NewPublisher(second)); err != nil {
		t.Fatalf("second run: %v", err)
	}
	infos, err := first.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 6 {
		t.Fatalf("expected 6 artifacts, got %d", len(infos))
	}
	for _, info := range infos {
		if !bytes.Equal(readAll(t, first, info.Key), readAll(t, second, info.Key)) {
			t.Fatalf("%s differs between runs with the same seed", info.Key)
		}
	}

	other := blob.NewMemory()
	if _, err := newRunner().Run(ctx, smallConfig(8), export.NewPublisher(other)); err != nil {
		t.Fatalf("third run: %v", err)
	}
	if bytes.Equal(readAll(t, first, export.SalesArtifact(2024)), readAll(t, other, export.SalesArtifact(2024))) {
		t.Fatalf("different seeds produced identical sales")
	}
}

func TestRunPartitionsSalesByYear(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	collector := report.NewCollector()
	run, err := newRunner().Run(ctx, smallConfig(11), export.NewPublisher(store), collector)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if run.RunID != "run-test" || run.Seed != 11 {
		t.Fatalf("unexpected run info %+v", run)
	}

	lines := 0
	for _, year := range run.Years() {
		records, err := csv.NewReader(bytes.NewReader(readAll(t, store, export.SalesArtifact(year)))).ReadAll()
		if err != nil {
			t.Fatalf("parse %d: %v", year, err)
		}
		if len(records) < 2 {
			t.Fatalf("ventas_%d has no rows", year)
		}
		for _, rec := range records[1:] {
			if !strings.HasPrefix(rec[2], time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")) {
				t.Fatalf("ventas_%d holds a row dated %s", year, rec[2])
			}
		}
		lines += len(records) - 1
	}
	if s := collector.Summary(); s.Lines != lines || s.Products != 40 || s.Stores != 60 {
		t.Fatalf("collector saw %d lines, files hold %d (%+v)", s.Lines, lines, s)
	}

	m, err := export.Verify(ctx, store, "")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if m.Run.RunID != "run-test" || !m.Run.GeneratedAt.Equal(fixedClock.Now()) {
		t.Fatalf("unexpected manifest run %+v", m.Run)
	}
	inv, ok := m.Artifact(export.InventoryArtifact)
	// 42 of 60 stores carry 24 of 40 products every month.
	if !ok || inv.Rows != 24*42*24 {
		t.Fatalf("unexpected inventory artifact %+v", inv)
	}
}

func TestRunLoadsWarehouseAndMetrics(t *testing.T) {
	ctx := context.Background()
	wh, err := warehouse.Open(ctx, warehouse.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("warehouse: %v", err)
	}
	defer func() { _ = wh.Close() }()
	rec := metrics.NewRecorder(false)
	store := blob.NewMemory()
	pub := export.NewPublisher(store)

	if _, err := newRunner(pipeline.WithMetrics(rec)).Run(ctx, smallConfig(3), rec, wh, pub); err != nil {
		t.Fatalf("run: %v", err)
	}
	sales, _ := func() (export.Artifact, bool) {
		m, err := export.ReadManifest(ctx, store, "")
		if err != nil {
			t.Fatalf("manifest: %v", err)
		}
		return m.Artifact(export.SalesArtifact(2023))
	}()
	var n int
	if err := wh.DB().QueryRow(`SELECT COUNT(*) FROM ventas WHERE fecha < '2024-01-01'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != sales.Rows {
		t.Fatalf("warehouse holds %d 2023 lines, csv holds %d", n, sales.Rows)
	}
	if wh.Counts().Snapshots != 24*42*24 {
		t.Fatalf("unexpected snapshot count %d", wh.Counts().Snapshots)
	}
	families, err := rec.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "retailgen_stage_duration_seconds" && len(f.GetMetric()) == 6 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected six successful stage series")
	}
}

type failingSink struct {
	report.Collector
	failOn  int
	written int
	aborted bool
}

func (f *failingSink) WriteTransaction(ctx context.Context, txn domain.Transaction) error {
	f.written++
	if f.written == f.failOn {
		return errors.New("sink full")
	}
	return f.Collector.WriteTransaction(ctx, txn)
}

func (f *failingSink) Abort(context.Context) error {
	f.aborted = true
	return nil
}

func TestRunAbortsAllSinksOnFailure(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	failing := &failingSink{Collector: *report.NewCollector(), failOn: 100}
	_, err := newRunner().Run(ctx, smallConfig(5), export.NewPublisher(store), failing)
	if err == nil || !strings.Contains(err.Error(), "sink full") || !strings.HasPrefix(err.Error(), pipeline.StageSales) {
		t.Fatalf("expected sales stage failure, got %v", err)
	}
	if !failing.aborted {
		t.Fatalf("failing sink was not aborted")
	}
	infos, _ := store.List(ctx, "")
	if len(infos) != 0 {
		t.Fatalf("aborted run left artifacts: %+v", infos)
	}
}

// quotaStore refuses the manifest the way a full bucket would.
type quotaStore struct {
	blob.Store
}

func (s quotaStore) Put(ctx context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	if path.Base(key) == export.ManifestArtifact {
		return blob.Info{}, errors.New("bucket quota exceeded")
	}
	return s.Store.Put(ctx, key, r, opts)
}

func lastSuccess(t *testing.T, rec *metrics.Recorder) float64 {
	t.Helper()
	families, err := rec.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "retailgen_last_success_timestamp_seconds" {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("last success gauge not registered")
	return 0
}

func TestRunManifestFailureRollsBackWarehouse(t *testing.T) {
	ctx := context.Background()
	wh, err := warehouse.Open(ctx, warehouse.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("warehouse: %v", err)
	}
	defer func() { _ = wh.Close() }()
	rec := metrics.NewRecorder(false)
	store := quotaStore{Store: blob.NewMemory()}

	_, err = newRunner().Run(ctx, smallConfig(3), wh, rec, export.NewPublisher(store))
	if err == nil || !strings.HasPrefix(err.Error(), pipeline.StageCommit) || !strings.Contains(err.Error(), "bucket quota exceeded") {
		t.Fatalf("expected commit stage failure, got %v", err)
	}
	for _, table := range []string{"productos", "tiendas", "ventas", "inventarios"} {
		var n int
		if err := wh.DB().QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Fatalf("warehouse kept %d %s rows of a failed run", n, table)
		}
	}
	if infos, _ := store.List(ctx, ""); len(infos) != 0 {
		t.Fatalf("failed run left artifacts: %+v", infos)
	}
	if got := lastSuccess(t, rec); got != 0 {
		t.Fatalf("failed run stamped last success %v", got)
	}
}

func TestRunWarehouseCommitFailureRetractsArtifacts(t *testing.T) {
	ctx := context.Background()
	db, conn := stubdb.NewDB()
	wh, err := warehouse.New(ctx, db, warehouse.DialectPostgres)
	if err != nil {
		t.Fatalf("warehouse: %v", err)
	}
	defer func() { _ = wh.Close() }()
	conn.FailCommit = true
	rec := metrics.NewRecorder(false)
	store := blob.NewMemory()
	cfg := smallConfig(3)
	cfg.FromYear = 2024

	_, err = newRunner().Run(ctx, cfg, wh, rec, export.NewPublisher(store))
	if err == nil || !strings.Contains(err.Error(), "commit fail") {
		t.Fatalf("expected warehouse commit failure, got %v", err)
	}
	if infos, _ := store.List(ctx, ""); len(infos) != 0 {
		t.Fatalf("published dataset survived a failed warehouse commit: %+v", infos)
	}
	if got := lastSuccess(t, rec); got != 0 {
		t.Fatalf("failed run stamped last success %v", got)
	}
	if conn.Commits != 0 {
		t.Fatalf("stub recorded %d commits", conn.Commits)
	}
}

func TestRunCancelledContextCleansUp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := blob.NewMemory()
	canceller := &failingSink{Collector: *report.NewCollector(), failOn: -1}
	sink := &cancelOnYear{DatasetSink: canceller, cancel: cancel}
	_, err := newRunner().Run(ctx, smallConfig(5), export.NewPublisher(store), sink)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	infos, _ := store.List(context.Background(), "")
	if len(infos) != 0 {
		t.Fatalf("cancelled run left artifacts: %+v", infos)
	}
}

type cancelOnYear struct {
	domain.DatasetSink
	cancel context.CancelFunc
}

func (c *cancelOnYear) BeginSalesYear(ctx context.Context, year int) error {
	if year == 2024 {
		c.cancel()
	}
	return c.DatasetSink.BeginSalesYear(ctx, year)
}

func TestRunRefusesExistingDataset(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	if _, err := newRunner().Run(ctx, smallConfig(1), export.NewPublisher(store)); err != nil {
		t.Fatalf("first run: %v", err)
	}
	before := readAll(t, store, export.ManifestArtifact)
	_, err := newRunner().Run(ctx, smallConfig(2), export.NewPublisher(store))
	if !errors.Is(err, export.ErrArtifactsExist) {
		t.Fatalf("expected ErrArtifactsExist, got %v", err)
	}
	if !bytes.Equal(before, readAll(t, store, export.ManifestArtifact)) {
		t.Fatalf("refused run modified the existing dataset")
	}
	if _, err := newRunner().Run(ctx, smallConfig(2), export.NewPublisher(store, export.WithOverwrite(true))); err != nil {
		t.Fatalf("overwrite run: %v", err)
	}
}

func TestRunRandomSeed(t *testing.T) {
	log := &captureLogger{}
	runner := newRunner(
		pipeline.WithLogger(log),
		pipeline.WithSeedSource(func() (uint64, error) { return 99, nil }),
	)
	run, err := runner.Run(context.Background(), smallConfig(0), report.NewCollector())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if run.Seed != 99 {
		t.Fatalf("expected seed from source, got %d", run.Seed)
	}
	if !log.saw("i:random seed selected") || !log.saw("i:run committed") {
		t.Fatalf("missing log lines: %v", log.calls)
	}

	failing := newRunner(pipeline.WithSeedSource(func() (uint64, error) { return 0, errors.New("no entropy") }))
	if _, err := failing.Run(context.Background(), smallConfig(0)); err == nil {
		t.Fatalf("expected seed source failure")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig(1)
	cfg.FromYear, cfg.ToYear = 2025, 2024
	if _, err := newRunner().Run(context.Background(), cfg); !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	cfg = smallConfig(1)
	cfg.Catalog.Stores = 10
	if _, err := newRunner().Run(context.Background(), cfg); !errors.Is(err, domain.ErrInvalidConfiguration) || !strings.HasPrefix(err.Error(), pipeline.StageCatalog) {
		t.Fatalf("expected catalog stage configuration error, got %v", err)
	}
}

func TestClockFuncNilFallsBackToUTC(t *testing.T) {
	got := pipeline.ClockFunc(nil).Now()
	if got.IsZero() || got.Location() != time.UTC {
		t.Fatalf("unexpected time %v", got)
	}
}

type captureLogger struct{ calls []string }

func (c *captureLogger) Debug(msg string, _ ...any) { c.calls = append(c.calls, "d:"+msg) }
func (c *captureLogger) Info(msg string, _ ...any)  { c.calls = append(c.calls, "i:"+msg) }
func (c *captureLogger) Warn(msg string, _ ...any)  { c.calls = append(c.calls, "w:"+msg) }
func (c *captureLogger) Error(msg string, _ ...any) { c.calls = append(c.calls, "e:"+msg) }

func (c *captureLogger) saw(call string) bool {
	for _, got := range c.calls {
		if got == call {
			return true
		}
	}
	return false
}
