package domain

import (
	"context"
	"time"
)

// RunInfo identifies one generation run. Only the seed influences the
// generated rows; RunID and GeneratedAt are bookkeeping for sinks.
type RunInfo struct {
	RunID       string    `json:"run_id"`
	Seed        uint64    `json:"seed"`
	FromYear    int       `json:"from_year"`
	ToYear      int       `json:"to_year"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Years returns the generated calendar years in ascending order.
func (r RunInfo) Years() []int {
	if r.ToYear < r.FromYear {
		return nil
	}
	years := make([]int, 0, r.ToYear-r.FromYear+1)
	for y := r.FromYear; y <= r.ToYear; y++ {
		years = append(years, y)
	}
	return years
}

// DatasetSink receives a run's output in generation order: Begin, master
// data, each sales year bracketed by BeginSalesYear/EndSalesYear, the
// inventory snapshots, and finally Commit. Abort is called instead of Commit
// when any stage fails and must discard everything the run wrote.
type DatasetSink interface {
	Begin(ctx context.Context, run RunInfo) error
	WriteProducts(ctx context.Context, products []Product) error
	WriteStores(ctx context.Context, stores []Store) error
	BeginSalesYear(ctx context.Context, year int) error
	WriteTransaction(ctx context.Context, txn Transaction) error
	EndSalesYear(ctx context.Context, year int) error
	BeginInventory(ctx context.Context) error
	WriteSnapshot(ctx context.Context, snap InventorySnapshot) error
	EndInventory(ctx context.Context) error
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
}

// RetractableSink is a DatasetSink whose Commit can be withdrawn. Retract
// undoes a successful Commit and Abort after Commit retracts. Runs commit
// these sinks before any other, so a sink whose commit is final only commits
// once they all succeeded, and a failure there still removes their output.
type RetractableSink interface {
	DatasetSink
	Retract(ctx context.Context) error
}
