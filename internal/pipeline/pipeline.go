// Package pipeline drives one generation run: master data, the daily sales
// loop and the monthly inventory simulation, fanned out to every sink in
// generation order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"retailsynth/internal/catalog"
	"retailsynth/internal/engine"
	"retailsynth/internal/sampling"
	"retailsynth/pkg/domain"
)

// Stage names reported to the metrics recorder.
const (
	StageCatalog   = "catalog"
	StageBegin     = "begin"
	StageMaster    = "master"
	StageSales     = "sales"
	StageInventory = "inventory"
	StageCommit    = "commit"
)

// Config describes one run. Seed 0 requests a random seed.
type Config struct {
	Seed     uint64
	FromYear int
	ToYear   int
	Catalog  catalog.Config
	Engine   engine.Options
}

// DefaultConfig returns the reference run: seed 42, years 2021-2025.
func DefaultConfig() Config {
	return Config{
		Seed:     42,
		FromYear: 2021,
		ToYear:   2025,
		Catalog:  catalog.DefaultConfig(),
		Engine:   engine.DefaultOptions(),
	}
}

// Runner executes runs. It is safe to reuse across runs but not for
// concurrent runs sharing sinks.
type Runner struct {
	opts options
}

// New builds a Runner.
func New(opts ...Option) *Runner {
	o := options{
		clock:   ClockFunc(nil),
		logger:  noopLogger{},
		metrics: noopMetrics{},
		seeds:   sampling.NewSeed,
		runIDs:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Runner{opts: o}
}

// Run generates the dataset described by cfg into sinks. Retractable sinks
// commit first and the others follow in the order given, so at most one sink
// whose commit cannot be undone (the warehouse) should be passed. On any failure,
// commit included, every sink is aborted and the run's error is returned.
func (r *Runner) Run(ctx context.Context, cfg Config, sinks ...domain.DatasetSink) (domain.RunInfo, error) {
	if cfg.ToYear < cfg.FromYear {
		return domain.RunInfo{}, domain.InvalidConfigurationf("year range %d-%d", cfg.FromYear, cfg.ToYear)
	}
	seed := cfg.Seed
	if seed == 0 {
		var err error
		if seed, err = r.opts.seeds(); err != nil {
			return domain.RunInfo{}, fmt.Errorf("choose seed: %w", err)
		}
		r.opts.logger.Info("random seed selected", "seed", seed)
	}
	run := domain.RunInfo{
		RunID:       r.opts.runIDs(),
		Seed:        seed,
		FromYear:    cfg.FromYear,
		ToYear:      cfg.ToYear,
		GeneratedAt: r.opts.clock.Now(),
	}
	log := r.opts.logger
	log.Info("run started", "run_id", run.RunID, "seed", seed, "from", cfg.FromYear, "to", cfg.ToYear)

	src := sampling.NewSource(seed)
	var (
		cat catalog.Catalog
		eng *engine.Engine
	)
	err := r.stage(ctx, StageCatalog, func() error {
		var err error
		if cat, err = catalog.Generate(src, cfg.Catalog); err != nil {
			return err
		}
		eng, err = engine.New(src, cat.Products, cat.Stores, cfg.Engine)
		return err
	})
	if err != nil {
		return run, err
	}
	log.Debug("catalog generated", "products", len(cat.Products), "stores", len(cat.Stores))

	out := fanout(sinks)
	if err := r.generate(ctx, run, cat, eng, out); err != nil {
		// Cleanup must run even when ctx is what failed the run.
		if abortErr := out.Abort(context.WithoutCancel(ctx)); abortErr != nil {
			log.Error("abort failed", "run_id", run.RunID, "error", abortErr)
			err = errors.Join(err, fmt.Errorf("abort: %w", abortErr))
		}
		log.Warn("run aborted", "run_id", run.RunID, "error", err)
		return run, err
	}
	log.Info("run committed", "run_id", run.RunID)
	return run, nil
}

func (r *Runner) generate(ctx context.Context, run domain.RunInfo, cat catalog.Catalog, eng *engine.Engine, out fanout) error {
	if err := r.stage(ctx, StageBegin, func() error { return out.Begin(ctx, run) }); err != nil {
		return err
	}
	err := r.stage(ctx, StageMaster, func() error {
		if err := out.WriteProducts(ctx, cat.Products); err != nil {
			return err
		}
		return out.WriteStores(ctx, cat.Stores)
	})
	if err != nil {
		return err
	}
	err = r.stage(ctx, StageSales, func() error {
		return eng.Sales.SampleYears(ctx, run.FromYear, run.ToYear, &salesAdapter{ctx: ctx, out: out, log: r.opts.logger})
	})
	if err != nil {
		return err
	}
	err = r.stage(ctx, StageInventory, func() error {
		if err := out.BeginInventory(ctx); err != nil {
			return err
		}
		n := 0
		err := eng.Inventory.Simulate(ctx, run.FromYear, run.ToYear, func(s domain.InventorySnapshot) error {
			n++
			return out.WriteSnapshot(ctx, s)
		})
		if err != nil {
			return err
		}
		r.opts.logger.Info("inventory complete", "snapshots", n)
		return out.EndInventory(ctx)
	})
	if err != nil {
		return err
	}
	return r.stage(ctx, StageCommit, func() error { return out.Commit(ctx) })
}

// stage times fn and reports its outcome.
func (r *Runner) stage(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.opts.metrics.Observe(ctx, name, err == nil, time.Since(start))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// salesAdapter feeds the sampler's yearly stream into the sinks.
type salesAdapter struct {
	ctx     context.Context
	out     fanout
	log     Logger
	tickets int
	lines   int
}

func (a *salesAdapter) BeginYear(year int) error {
	a.tickets, a.lines = 0, 0
	return a.out.BeginSalesYear(a.ctx, year)
}

func (a *salesAdapter) Transaction(txn domain.Transaction) error {
	a.tickets++
	a.lines += len(txn.Lines)
	return a.out.WriteTransaction(a.ctx, txn)
}

func (a *salesAdapter) EndYear(year int) error {
	if err := a.out.EndSalesYear(a.ctx, year); err != nil {
		return err
	}
	a.log.Info("sales year complete", "year", year, "tickets", a.tickets, "lines", a.lines)
	return nil
}
