// Package warehouse loads a generated dataset into SQL tables. The whole run
// is applied in one transaction so a failed run leaves the previous load in
// place.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"retailsynth/pkg/domain"
)

var _ domain.DatasetSink = (*Loader)(nil)

// Dialect selects the SQL flavour and database/sql driver.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ErrUnknownDialect reports an unsupported warehouse dialect.
var ErrUnknownDialect = errors.New("unknown warehouse dialect")

const (
	defaultSQLitePath  = "retailgen.db"
	defaultPostgresDSN = "postgres://localhost/retailgen?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}

// Valid reports whether d is a supported dialect.
func (d Dialect) Valid() bool {
	return d == DialectSQLite || d == DialectPostgres
}

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

var clearOrder = []string{"inventarios", "ventas", "tiendas", "productos"}

const (
	insertProduct = `INSERT INTO productos (id_producto, sku, nombre_producto, marca, categoria, subcategoria, precio_sugerido) VALUES (?, ?, ?, ?, ?, ?, ?)`
	insertStore   = `INSERT INTO tiendas (id_tienda, codigo_tienda, nombre_tienda, cadena, formato, region, ciudad, estado, superficie_m2, fecha_apertura) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertSale    = `INSERT INTO ventas (ticket_id, linea, id_producto, id_tienda, fecha, hora, cantidad, precio_unitario, descuento_pct, canal) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertStock   = `INSERT INTO inventarios (id_producto, id_tienda, fecha, stock_inicial, stock_final, entradas, salidas, costo_unitario) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	insertRun     = `INSERT INTO retailgen_runs (run_id, seed, from_year, to_year, generated_at) VALUES (?, ?, ?, ?, ?)`
)

// Counts tallies the rows loaded by the current run.
type Counts struct {
	Products  int
	Stores    int
	SaleLines int
	Snapshots int
}

// Loader implements domain.DatasetSink on a SQL database.
type Loader struct {
	db      *sql.DB
	dialect Dialect

	tx     *sql.Tx
	stmts  map[string]*sql.Stmt
	year   int
	counts Counts
}

// Open connects to the warehouse and applies the schema. An empty dsn falls
// back to a local retailgen.db file for SQLite and a localhost database for
// Postgres.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Loader, error) {
	if !dialect.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}
	if dsn == "" {
		dsn = defaultSQLitePath
		if dialect == DialectPostgres {
			dsn = defaultPostgresDSN
		}
	}
	if dialect == DialectSQLite && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	openMu.Lock()
	db, err := sqlOpen(dialect.driverName(), dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// One connection keeps ":memory:" databases and the write lock on a
		// single handle.
		db.SetMaxOpenConns(1)
	}
	l, err := New(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// New wraps an open database and applies the schema.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Loader, error) {
	if !dialect.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	exec := func(ctx context.Context, stmt string) error {
		_, err := db.ExecContext(ctx, stmt)
		return err
	}
	if err := applyDDL(ctx, exec, dialect); err != nil {
		return nil, err
	}
	return &Loader{db: db, dialect: dialect}, nil
}

// DB exposes the underlying sql.DB.
func (l *Loader) DB() *sql.DB { return l.db }

// Dialect returns the loader's SQL dialect.
func (l *Loader) Dialect() Dialect { return l.dialect }

// Counts returns the rows inserted by the current or last committed run.
func (l *Loader) Counts() Counts { return l.counts }

// Close releases the database.
func (l *Loader) Close() error {
	if l.tx != nil {
		_ = l.rollback()
	}
	return l.db.Close()
}

// Begin opens the run transaction, clears the dataset tables and records the
// run.
func (l *Loader) Begin(ctx context.Context, run domain.RunInfo) error {
	if l.tx != nil {
		return fmt.Errorf("begin: run already in progress")
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	l.tx, l.counts, l.year = tx, Counts{}, 0
	l.stmts = make(map[string]*sql.Stmt)
	for _, table := range clearOrder {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := l.exec(ctx, insertRun, run.RunID, strconv.FormatUint(run.Seed, 10), run.FromYear, run.ToYear, run.GeneratedAt.UTC()); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// WriteProducts inserts the product catalog.
func (l *Loader) WriteProducts(ctx context.Context, products []domain.Product) error {
	for _, p := range products {
		if err := l.exec(ctx, insertProduct, p.ID, p.SKU, p.Name, p.Brand, string(p.Category), p.Subcategory, p.SuggestedPrice.StringFixed(2)); err != nil {
			return fmt.Errorf("insert product %d: %w", p.ID, err)
		}
		l.counts.Products++
	}
	return nil
}

// WriteStores inserts the store catalog.
func (l *Loader) WriteStores(ctx context.Context, stores []domain.Store) error {
	for _, s := range stores {
		if err := l.exec(ctx, insertStore, s.ID, s.Code, s.Name, string(s.Chain), string(s.Format), string(s.Region), s.City, string(s.State), s.AreaM2, s.OpenedOn.Format(dateLayout)); err != nil {
			return fmt.Errorf("insert store %d: %w", s.ID, err)
		}
		l.counts.Stores++
	}
	return nil
}

// BeginSalesYear marks the year whose transactions follow.
func (l *Loader) BeginSalesYear(_ context.Context, year int) error {
	if l.tx == nil {
		return fmt.Errorf("begin sales year %d: no run in progress", year)
	}
	l.year = year
	return nil
}

// WriteTransaction inserts one ventas row per line item, numbered from 1.
func (l *Loader) WriteTransaction(ctx context.Context, txn domain.Transaction) error {
	if l.year == 0 || txn.Year() != l.year {
		return fmt.Errorf("insert ticket %s: dated %d outside open year %d", txn.TicketID, txn.Year(), l.year)
	}
	fecha := txn.Date.Format(dateLayout)
	hora := fmt.Sprintf("%02d:%02d:00", txn.Hour, txn.Minute)
	for i, li := range txn.Lines {
		if err := l.exec(ctx, insertSale, txn.TicketID, i+1, li.ProductID, txn.StoreID, fecha, hora, li.Quantity, li.UnitPrice.StringFixed(2), li.DiscountPct, string(li.Channel)); err != nil {
			return fmt.Errorf("insert ticket %s line %d: %w", txn.TicketID, i+1, err)
		}
		l.counts.SaleLines++
	}
	return nil
}

// EndSalesYear closes the year.
func (l *Loader) EndSalesYear(_ context.Context, year int) error {
	if l.year != year {
		return fmt.Errorf("end sales year %d: not open", year)
	}
	l.year = 0
	return nil
}

// BeginInventory is a no-op; snapshots go straight to inventarios.
func (l *Loader) BeginInventory(context.Context) error { return nil }

// WriteSnapshot inserts one inventarios row.
func (l *Loader) WriteSnapshot(ctx context.Context, s domain.InventorySnapshot) error {
	if err := l.exec(ctx, insertStock, s.ProductID, s.StoreID, s.Date.Format(dateLayout), s.OpeningStock, s.ClosingStock, s.Incoming, s.Outgoing, s.UnitCost.StringFixed(2)); err != nil {
		return fmt.Errorf("insert snapshot %d/%d %s: %w", s.ProductID, s.StoreID, s.Date.Format(dateLayout), err)
	}
	l.counts.Snapshots++
	return nil
}

// EndInventory is a no-op.
func (l *Loader) EndInventory(context.Context) error { return nil }

// Commit commits the run transaction.
func (l *Loader) Commit(context.Context) error {
	if l.tx == nil {
		return fmt.Errorf("commit: no run in progress")
	}
	l.closeStmts()
	err := l.tx.Commit()
	l.tx = nil
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Abort rolls the run back, leaving the previous load untouched.
func (l *Loader) Abort(context.Context) error {
	if l.tx == nil {
		return nil
	}
	return l.rollback()
}

func (l *Loader) rollback() error {
	l.closeStmts()
	err := l.tx.Rollback()
	l.tx = nil
	l.counts = Counts{}
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// exec runs query through a statement prepared once per run.
func (l *Loader) exec(ctx context.Context, query string, args ...any) error {
	if l.tx == nil {
		return fmt.Errorf("no run in progress")
	}
	stmt, ok := l.stmts[query]
	if !ok {
		var err error
		stmt, err = l.tx.PrepareContext(ctx, rebind(l.dialect, query))
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		l.stmts[query] = stmt
	}
	_, err := stmt.ExecContext(ctx, args...)
	return err
}

func (l *Loader) closeStmts() {
	for _, stmt := range l.stmts {
		_ = stmt.Close()
	}
	l.stmts = nil
}

const dateLayout = "2006-01-02"
