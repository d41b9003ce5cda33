package blob

import (
	"context"
	"fmt"
)

// Config selects and configures a driver. The zero value is a filesystem
// store rooted at DefaultFSRoot.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// DefaultFSRoot is where the filesystem driver writes when no root is set.
const DefaultFSRoot = "./data"

// Open selects a Store implementation for cfg.Driver (default fs).
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
