package blob

import (
	"retailsynth/internal/infra/blob/fs"
)

// NewFilesystem constructs a filesystem-backed Store rooted at root
// (DefaultFSRoot when empty).
func NewFilesystem(root string) (Store, error) {
	if root == "" {
		root = DefaultFSRoot
	}
	return fs.New(root)
}
