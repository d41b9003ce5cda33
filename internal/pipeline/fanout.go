package pipeline

import (
	"context"
	"errors"

	"retailsynth/pkg/domain"
)

// fanout forwards every call to each sink in order and stops at the first
// error. Abort reaches every sink regardless of failures.
type fanout []domain.DatasetSink

var _ domain.DatasetSink = fanout(nil)

func (f fanout) each(fn func(domain.DatasetSink) error) error {
	for _, s := range f {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

func (f fanout) Begin(ctx context.Context, run domain.RunInfo) error {
	return f.each(func(s domain.DatasetSink) error { return s.Begin(ctx, run) })
}

func (f fanout) WriteProducts(ctx context.Context, products []domain.Product) error {
	return f.each(func(s domain.DatasetSink) error { return s.WriteProducts(ctx, products) })
}

func (f fanout) WriteStores(ctx context.Context, stores []domain.Store) error {
	return f.each(func(s domain.DatasetSink) error { return s.WriteStores(ctx, stores) })
}

func (f fanout) BeginSalesYear(ctx context.Context, year int) error {
	return f.each(func(s domain.DatasetSink) error { return s.BeginSalesYear(ctx, year) })
}

func (f fanout) WriteTransaction(ctx context.Context, txn domain.Transaction) error {
	for _, s := range f {
		if err := s.WriteTransaction(ctx, txn); err != nil {
			return err
		}
	}
	return nil
}

func (f fanout) EndSalesYear(ctx context.Context, year int) error {
	return f.each(func(s domain.DatasetSink) error { return s.EndSalesYear(ctx, year) })
}

func (f fanout) BeginInventory(ctx context.Context) error {
	return f.each(func(s domain.DatasetSink) error { return s.BeginInventory(ctx) })
}

func (f fanout) WriteSnapshot(ctx context.Context, snap domain.InventorySnapshot) error {
	for _, s := range f {
		if err := s.WriteSnapshot(ctx, snap); err != nil {
			return err
		}
	}
	return nil
}

func (f fanout) EndInventory(ctx context.Context) error {
	return f.each(func(s domain.DatasetSink) error { return s.EndInventory(ctx) })
}

// Commit commits retractable sinks first, then the rest in order. A failure
// leaves the retractable sinks committed; Abort withdraws them.
func (f fanout) Commit(ctx context.Context) error {
	var final fanout
	for _, s := range f {
		if _, ok := s.(domain.RetractableSink); !ok {
			final = append(final, s)
			continue
		}
		if err := s.Commit(ctx); err != nil {
			return err
		}
	}
	return final.each(func(s domain.DatasetSink) error { return s.Commit(ctx) })
}

func (f fanout) Abort(ctx context.Context) error {
	var errs []error
	for _, s := range f {
		if err := s.Abort(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
