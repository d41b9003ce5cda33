package blob

import (
	memorystore "retailsynth/internal/infra/blob/memory"
)

// NewMemory returns an in-memory Store. Artifacts vanish with the process.
func NewMemory() Store { return memorystore.New() }
