package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration reports a parameter that cannot produce a
	// dataset, such as a sample larger than its population.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrUnknownCategory reports a category missing from a lookup table.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrUnknownFormat reports a store format missing from a lookup table.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrUnknownRegion reports a region missing from a lookup table.
	ErrUnknownRegion = errors.New("unknown region")
)

// InvalidConfigurationf wraps ErrInvalidConfiguration with a formatted detail.
func InvalidConfigurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
