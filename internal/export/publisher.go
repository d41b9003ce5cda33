// Package export renders a run as CSV artifacts on a blob store. Each
// artifact is streamed to the store while it is generated; the manifest is
// written last and marks the dataset as complete.
package export

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"path"
	"strconv"
	"strings"

	"retailsynth/internal/blob"
	"retailsynth/pkg/domain"
)

var _ domain.RetractableSink = (*Publisher)(nil)

// ErrArtifactsExist is returned by Begin when the target prefix already holds
// a dataset and overwriting was not requested.
var ErrArtifactsExist = errors.New("artifacts already exist")

// errAborted is delivered to an in-flight upload when the run is abandoned.
var errAborted = errors.New("run aborted")

const csvContentType = "text/csv; charset=utf-8"

// Option configures a Publisher.
type Option func(*Publisher)

// WithPrefix places every artifact under prefix (e.g. "runs/2025").
func WithPrefix(prefix string) Option {
	return func(p *Publisher) { p.prefix = strings.Trim(prefix, "/") }
}

// WithOverwrite lets Begin delete an existing dataset under the prefix.
func WithOverwrite(overwrite bool) Option {
	return func(p *Publisher) { p.overwrite = overwrite }
}

// Publisher implements domain.DatasetSink on a blob.Store.
type Publisher struct {
	store     blob.Store
	prefix    string
	overwrite bool

	run       domain.RunInfo
	current   *artifactWriter
	written   []string
	artifacts []Artifact
}

// NewPublisher returns a Publisher writing to store.
func NewPublisher(store blob.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Key returns the blob key of an artifact name under the configured prefix.
func (p *Publisher) Key(name string) string {
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// Artifacts returns the artifacts published so far, in write order.
func (p *Publisher) Artifacts() []Artifact {
	return append([]Artifact(nil), p.artifacts...)
}

// Begin checks the prefix for a previous dataset. Without overwrite any
// existing artifact fails the run; with it the old files are removed,
// manifest first so readers never see a manifest for a partial dataset.
func (p *Publisher) Begin(ctx context.Context, run domain.RunInfo) error {
	p.run = run
	p.written, p.artifacts = nil, nil
	existing, err := p.existingArtifacts(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}
	if !p.overwrite {
		return fmt.Errorf("%w under %q: %s", ErrArtifactsExist, p.prefix, strings.Join(existing, ", "))
	}
	manifestKey := p.Key(ManifestArtifact)
	if _, err := p.store.Delete(ctx, manifestKey); err != nil {
		return fmt.Errorf("delete %s: %w", manifestKey, err)
	}
	for _, key := range existing {
		if key == manifestKey {
			continue
		}
		if _, err := p.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

func (p *Publisher) existingArtifacts(ctx context.Context) ([]string, error) {
	listPrefix := ""
	if p.prefix != "" {
		listPrefix = p.prefix + "/"
	}
	infos, err := p.store.List(ctx, listPrefix)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", p.prefix, err)
	}
	var keys []string
	for _, info := range infos {
		name := strings.TrimPrefix(info.Key, listPrefix)
		if !strings.Contains(name, "/") && IsArtifactName(name) {
			keys = append(keys, info.Key)
		}
	}
	return keys, nil
}

// WriteProducts publishes productos.csv.
func (p *Publisher) WriteProducts(ctx context.Context, products []domain.Product) error {
	if err := p.open(ctx, ProductsArtifact, productHeader); err != nil {
		return err
	}
	for _, prod := range products {
		if err := p.current.write(productRecord(prod)); err != nil {
			return err
		}
	}
	return p.close()
}

// WriteStores publishes tiendas.csv.
func (p *Publisher) WriteStores(ctx context.Context, stores []domain.Store) error {
	if err := p.open(ctx, StoresArtifact, storeHeader); err != nil {
		return err
	}
	for _, st := range stores {
		if err := p.current.write(storeRecord(st)); err != nil {
			return err
		}
	}
	return p.close()
}

// BeginSalesYear starts ventas_<year>.csv.
func (p *Publisher) BeginSalesYear(ctx context.Context, year int) error {
	if err := p.open(ctx, SalesArtifact(year), salesHeader); err != nil {
		return err
	}
	p.current.year = year
	return nil
}

// WriteTransaction appends one row per line item to the open sales year.
// A transaction from another year is rejected.
func (p *Publisher) WriteTransaction(_ context.Context, txn domain.Transaction) error {
	if p.current == nil || p.current.year == 0 {
		return fmt.Errorf("write transaction %s: no sales year open", txn.TicketID)
	}
	if txn.Year() != p.current.year {
		return fmt.Errorf("write transaction %s: dated %d in %s", txn.TicketID, txn.Year(), p.current.name)
	}
	for _, rec := range salesRecords(txn) {
		if err := p.current.write(rec); err != nil {
			return err
		}
	}
	return nil
}

// EndSalesYear completes ventas_<year>.csv.
func (p *Publisher) EndSalesYear(_ context.Context, year int) error {
	if p.current == nil || p.current.year != year {
		return fmt.Errorf("end sales year %d: not open", year)
	}
	return p.close()
}

// BeginInventory starts inventarios.csv.
func (p *Publisher) BeginInventory(ctx context.Context) error {
	return p.open(ctx, InventoryArtifact, stockHeader)
}

// WriteSnapshot appends one inventory row.
func (p *Publisher) WriteSnapshot(_ context.Context, snap domain.InventorySnapshot) error {
	if p.current == nil || p.current.name != InventoryArtifact {
		return fmt.Errorf("write snapshot: inventory not open")
	}
	return p.current.write(stockRecord(snap))
}

// EndInventory completes inventarios.csv.
func (p *Publisher) EndInventory(context.Context) error {
	if p.current == nil || p.current.name != InventoryArtifact {
		return fmt.Errorf("end inventory: not open")
	}
	return p.close()
}

// Commit writes manifest.json describing every published artifact.
func (p *Publisher) Commit(ctx context.Context) error {
	if p.current != nil {
		return fmt.Errorf("commit: %s still open", p.current.name)
	}
	m := Manifest{Run: p.run, Artifacts: p.Artifacts()}
	payload, err := m.Marshal()
	if err != nil {
		return err
	}
	key := p.Key(ManifestArtifact)
	if _, err := p.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    p.metadata(ManifestArtifact),
	}); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	p.written = append(p.written, key)
	return nil
}

// Abort cancels an in-flight artifact and deletes everything this run wrote.
// After Commit it retracts the published dataset.
func (p *Publisher) Abort(ctx context.Context) error {
	if p.current != nil {
		p.current.cancel(errAborted)
		p.current = nil
	}
	return p.Retract(ctx)
}

// Retract deletes every key this run wrote in reverse order, so a committed
// manifest disappears before the artifacts it lists.
func (p *Publisher) Retract(ctx context.Context) error {
	var errs []error
	for i := len(p.written) - 1; i >= 0; i-- {
		if _, err := p.store.Delete(ctx, p.written[i]); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", p.written[i], err))
		}
	}
	p.written, p.artifacts = nil, nil
	return errors.Join(errs...)
}

func (p *Publisher) metadata(name string) map[string]string {
	return map[string]string{
		"run-id":   p.run.RunID,
		"seed":     strconv.FormatUint(p.run.Seed, 10),
		"artifact": name,
	}
}

// open starts streaming a new artifact to the store. The upload runs in its
// own goroutine reading from a pipe fed by the CSV writer.
func (p *Publisher) open(ctx context.Context, name string, header []string) error {
	if p.current != nil {
		return fmt.Errorf("open %s: %s still open", name, p.current.name)
	}
	key := p.Key(name)
	pr, pw := io.Pipe()
	aw := &artifactWriter{name: name, key: key, pw: pw, digest: sha256.New(), done: make(chan uploadResult, 1)}
	aw.csv = csv.NewWriter(io.MultiWriter(pw, aw.digest, &aw.size))
	opts := blob.PutOptions{ContentType: csvContentType, Metadata: p.metadata(name)}
	go func() {
		info, err := p.store.Put(ctx, key, pr, opts)
		_ = pr.CloseWithError(err)
		aw.done <- uploadResult{info: info, err: err}
	}()
	p.current = aw
	if err := aw.write(header); err != nil {
		return err
	}
	aw.rows = 0
	return nil
}

// close flushes the open artifact, waits for the upload and records it.
func (p *Publisher) close() error {
	aw := p.current
	p.current = nil
	aw.csv.Flush()
	if err := aw.csv.Error(); err != nil {
		aw.cancel(err)
		return fmt.Errorf("write %s: %w", aw.name, err)
	}
	_ = aw.pw.Close()
	res := <-aw.done
	if res.err != nil {
		return fmt.Errorf("put %s: %w", aw.key, res.err)
	}
	p.written = append(p.written, aw.key)
	p.artifacts = append(p.artifacts, Artifact{
		Name:   aw.name,
		Key:    aw.key,
		Rows:   aw.rows,
		Bytes:  int64(aw.size),
		SHA256: hex.EncodeToString(aw.digest.Sum(nil)),
	})
	return nil
}

type uploadResult struct {
	info blob.Info
	err  error
}

type artifactWriter struct {
	name   string
	key    string
	year   int
	rows   int
	size   byteCounter
	digest hash.Hash
	csv    *csv.Writer
	pw     *io.PipeWriter
	done   chan uploadResult
}

func (w *artifactWriter) write(rec []string) error {
	if err := w.csv.Write(rec); err != nil {
		w.cancel(err)
		return fmt.Errorf("write %s: %w", w.name, err)
	}
	w.rows++
	return nil
}

// cancel fails the upload and waits for the store to give up on it.
func (w *artifactWriter) cancel(cause error) {
	_ = w.pw.CloseWithError(cause)
	<-w.done
	w.done <- uploadResult{err: cause}
}

type byteCounter int64

func (c *byteCounter) Write(b []byte) (int, error) {
	*c += byteCounter(len(b))
	return len(b), nil
}
