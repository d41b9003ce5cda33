// Package metrics exposes generation counters and stage timings through a
// dedicated Prometheus registry.
package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"retailsynth/pkg/domain"
)

const namespace = "retailgen"

var _ domain.RetractableSink = (*Recorder)(nil)

// Recorder counts the rows of a run as a dataset sink and records stage
// outcomes. Every recorder owns its registry, so tests and concurrent runs
// never share series.
type Recorder struct {
	registry     *prometheus.Registry
	transactions *prometheus.CounterVec
	lineItems    *prometheus.CounterVec
	discounted   prometheus.Counter
	snapshots    prometheus.Counter
	artifacts    *prometheus.GaugeVec
	stages       *prometheus.HistogramVec
	lastRun      prometheus.Gauge

	// lastSuccess and previous back the lastRun gauge so Retract can restore it.
	lastSuccess float64
	previous    float64
	committed   bool
}

// NewRecorder builds a recorder with its own registry. withRuntime adds the
// Go and process collectors.
func NewRecorder(withRuntime bool) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Tickets generated, by calendar year.",
		}, []string{"year"}),
		lineItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "line_items_total",
			Help:      "Ticket lines generated, by sales channel.",
		}, []string{"channel"}),
		discounted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discounted_line_items_total",
			Help:      "Ticket lines carrying a non-zero discount.",
		}),
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_snapshots_total",
			Help:      "Monthly inventory snapshots generated.",
		}),
		artifacts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_bytes",
			Help:      "Size of each published artifact.",
		}, []string{"artifact"}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"stage", "status"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last committed run.",
		}),
	}
	r.registry.MustRegister(r.transactions, r.lineItems, r.discounted, r.snapshots, r.artifacts, r.stages, r.lastRun)
	if withRuntime {
		r.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return r
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Observe records a stage outcome.
func (r *Recorder) Observe(_ context.Context, stage string, success bool, duration time.Duration) {
	if stage == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.stages.WithLabelValues(stage, status).Observe(duration.Seconds())
}

// SetArtifactBytes records the size of a published artifact.
func (r *Recorder) SetArtifactBytes(artifact string, bytes int64) {
	r.artifacts.WithLabelValues(artifact).Set(float64(bytes))
}

// WriteTextfile writes the registry in the text exposition format for a
// node_exporter textfile collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

// Begin implements domain.DatasetSink.
func (r *Recorder) Begin(context.Context, domain.RunInfo) error {
	r.committed = false
	return nil
}

// WriteProducts implements domain.DatasetSink.
func (r *Recorder) WriteProducts(context.Context, []domain.Product) error { return nil }

// WriteStores implements domain.DatasetSink.
func (r *Recorder) WriteStores(context.Context, []domain.Store) error { return nil }

// BeginSalesYear initialises the year's series so empty years still report zero.
func (r *Recorder) BeginSalesYear(_ context.Context, year int) error {
	r.transactions.WithLabelValues(strconv.Itoa(year))
	return nil
}

// WriteTransaction counts the ticket and its lines.
func (r *Recorder) WriteTransaction(_ context.Context, txn domain.Transaction) error {
	r.transactions.WithLabelValues(strconv.Itoa(txn.Year())).Inc()
	for _, li := range txn.Lines {
		r.lineItems.WithLabelValues(string(li.Channel)).Inc()
		if li.DiscountPct > 0 {
			r.discounted.Inc()
		}
	}
	return nil
}

// EndSalesYear implements domain.DatasetSink.
func (r *Recorder) EndSalesYear(context.Context, int) error { return nil }

// BeginInventory implements domain.DatasetSink.
func (r *Recorder) BeginInventory(context.Context) error { return nil }

// WriteSnapshot counts one inventory snapshot.
func (r *Recorder) WriteSnapshot(context.Context, domain.InventorySnapshot) error {
	r.snapshots.Inc()
	return nil
}

// EndInventory implements domain.DatasetSink.
func (r *Recorder) EndInventory(context.Context) error { return nil }

// Commit stamps the last successful run.
func (r *Recorder) Commit(context.Context) error {
	r.previous = r.lastSuccess
	r.lastSuccess = float64(time.Now().UnixNano()) / 1e9
	r.lastRun.Set(r.lastSuccess)
	r.committed = true
	return nil
}

// Retract restores the stamp a later failing commit would otherwise leave
// behind.
func (r *Recorder) Retract(context.Context) error {
	if !r.committed {
		return nil
	}
	r.lastSuccess = r.previous
	r.lastRun.Set(r.lastSuccess)
	r.committed = false
	return nil
}

// Abort retracts a committed stamp. Counters keep what was generated.
func (r *Recorder) Abort(ctx context.Context) error { return r.Retract(ctx) }
