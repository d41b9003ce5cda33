// Package config loads generator settings from RETAILGEN_* environment
// variables and lets command-line flags override them.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"retailsynth/internal/blob"
	"retailsynth/internal/engine"
	"retailsynth/internal/warehouse"
	"retailsynth/pkg/domain"
)

// EnvPrefix prefixes every variable read by Load.
const EnvPrefix = "RETAILGEN_"

// Config holds one run's settings.
type Config struct {
	// Seed 0 asks for a random seed, which is logged so the run can be repeated.
	Seed     uint64 `env:"SEED"      envDefault:"42"`
	FromYear int    `env:"FROM_YEAR" envDefault:"2021"`
	ToYear   int    `env:"TO_YEAR"   envDefault:"2025"`
	Products int    `env:"PRODUCTS"  envDefault:"125"`
	Stores   int    `env:"STORES"    envDefault:"325"`
	AsOf     Date   `env:"AS_OF"     envDefault:"2025-12-31"`

	BlobDriver blob.Driver       `env:"BLOB_DRIVER" envDefault:"fs"`
	BlobRoot   string            `env:"BLOB_ROOT"   envDefault:"./data"`
	S3         blob.S3Config     `envPrefix:"BLOB_S3_"`
	Prefix     string            `env:"PREFIX"`
	Overwrite  bool              `env:"OVERWRITE"`
	Verify     bool              `env:"VERIFY"`
	Warehouse  warehouse.Dialect `env:"WAREHOUSE"`
	DSN        string            `env:"WAREHOUSE_DSN"`

	MetricsFile string `env:"METRICS_FILE"`
	Verbose     bool   `env:"VERBOSE"`
	Quiet       bool   `env:"QUIET"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadFrom parses an explicit environment map instead of the process
// environment.
func LoadFrom(environment map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix, Environment: environment}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// BindFlags registers cfg's fields on fs using the current values as
// defaults, so flags override the environment.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "random seed (0 picks one and logs it)")
	fs.IntVar(&c.FromYear, "from", c.FromYear, "first calendar year of sales")
	fs.IntVar(&c.ToYear, "to", c.ToYear, "last calendar year of sales")
	fs.IntVar(&c.Products, "products", c.Products, "number of products")
	fs.IntVar(&c.Stores, "stores", c.Stores, "number of stores")
	fs.TextVar(&c.AsOf, "as-of", c.AsOf, "reference date for store opening dates (YYYY-MM-DD)")
	fs.StringVar((*string)(&c.BlobDriver), "blob", string(c.BlobDriver), "artifact store driver: fs, s3 or memory")
	fs.StringVar(&c.BlobRoot, "out", c.BlobRoot, "root directory of the fs driver")
	fs.StringVar(&c.S3.Bucket, "bucket", c.S3.Bucket, "bucket of the s3 driver")
	fs.StringVar(&c.Prefix, "prefix", c.Prefix, "key prefix for every artifact")
	fs.BoolVar(&c.Overwrite, "overwrite", c.Overwrite, "replace an existing dataset under the prefix")
	fs.BoolVar(&c.Verify, "verify", c.Verify, "re-read the artifacts after publishing and check their digests")
	fs.StringVar((*string)(&c.Warehouse), "warehouse", string(c.Warehouse), "also load the dataset into sqlite or postgres")
	fs.StringVar(&c.DSN, "dsn", c.DSN, "warehouse data source name")
	fs.StringVar(&c.MetricsFile, "metrics-file", c.MetricsFile, "write Prometheus metrics to this textfile")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "debug logging")
	fs.BoolVar(&c.Quiet, "quiet", c.Quiet, "suppress the summary report")
}

// Validate rejects settings that cannot produce a dataset.
func (c Config) Validate() error {
	switch {
	case c.FromYear < 1 || c.ToYear > 9999:
		return domain.InvalidConfigurationf("year range %d-%d outside 1-9999", c.FromYear, c.ToYear)
	case c.ToYear < c.FromYear:
		return domain.InvalidConfigurationf("year range %d-%d is inverted", c.FromYear, c.ToYear)
	case c.Products <= 0:
		return domain.InvalidConfigurationf("products must be positive, got %d", c.Products)
	case c.Stores <= 0:
		return domain.InvalidConfigurationf("stores must be positive, got %d", c.Stores)
	case c.Stores < engine.DefaultSalesParams().MinActiveStores:
		// Every day opens at least this many distinct stores.
		return domain.InvalidConfigurationf("stores must be at least %d, got %d", engine.DefaultSalesParams().MinActiveStores, c.Stores)
	case c.AsOf.IsZero():
		return domain.InvalidConfigurationf("as-of date is required")
	case !c.BlobDriver.Valid():
		return domain.InvalidConfigurationf("unknown blob driver %q", c.BlobDriver)
	case c.BlobDriver == blob.DriverS3 && c.S3.Bucket == "":
		return domain.InvalidConfigurationf("s3 driver requires a bucket")
	case c.Warehouse != "" && !c.Warehouse.Valid():
		return domain.InvalidConfigurationf("unknown warehouse %q", c.Warehouse)
	case c.Verbose && c.Quiet:
		return domain.InvalidConfigurationf("verbose and quiet are mutually exclusive")
	}
	return nil
}

// BlobConfig returns the artifact store settings.
func (c Config) BlobConfig() blob.Config {
	return blob.Config{Driver: c.BlobDriver, FSRoot: c.BlobRoot, S3: c.S3}
}

// Date is a calendar day in YYYY-MM-DD form.
type Date struct {
	time.Time
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.Format(time.DateOnly)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields the
// zero date.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(time.DateOnly, string(b))
	if err != nil {
		return fmt.Errorf("parse date %q: %w", b, err)
	}
	d.Time = t
	return nil
}
