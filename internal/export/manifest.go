package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"retailsynth/internal/blob"
	"retailsynth/pkg/domain"
)

// ErrChecksumMismatch reports an artifact whose content no longer matches
// the manifest.
var ErrChecksumMismatch = errors.New("artifact checksum mismatch")

// Artifact describes one published file.
type Artifact struct {
	Name   string `json:"name"`
	Key    string `json:"key"`
	Rows   int    `json:"rows"`
	Bytes  int64  `json:"bytes"`
	SHA256 string `json:"sha256"`
}

// Manifest is the completion marker of a dataset.
type Manifest struct {
	Run       domain.RunInfo `json:"run"`
	Artifacts []Artifact     `json:"artifacts"`
}

// Marshal renders the manifest as indented JSON.
func (m Manifest) Marshal() ([]byte, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(b, '\n'), nil
}

// Artifact returns the entry named name.
func (m Manifest) Artifact(name string) (Artifact, bool) {
	for _, a := range m.Artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}

// ReadManifest loads the manifest stored under prefix. A missing manifest
// means the dataset is absent or incomplete.
func ReadManifest(ctx context.Context, store blob.Store, prefix string) (Manifest, error) {
	key := path.Join(strings.Trim(prefix, "/"), ManifestArtifact)
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return Manifest{}, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	var m Manifest
	if err := json.NewDecoder(rc).Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return m, nil
}

// Verify re-reads every artifact listed in the manifest under prefix and
// checks its size and SHA-256 digest.
func Verify(ctx context.Context, store blob.Store, prefix string) (Manifest, error) {
	m, err := ReadManifest(ctx, store, prefix)
	if err != nil {
		return Manifest{}, err
	}
	for _, a := range m.Artifacts {
		if err := verifyArtifact(ctx, store, a); err != nil {
			return m, err
		}
	}
	return m, nil
}

func verifyArtifact(ctx context.Context, store blob.Store, a Artifact) error {
	_, rc, err := store.Get(ctx, a.Key)
	if err != nil {
		return fmt.Errorf("get %s: %w", a.Key, err)
	}
	defer func() { _ = rc.Close() }()
	h := sha256.New()
	n, err := io.Copy(h, rc)
	if err != nil {
		return fmt.Errorf("read %s: %w", a.Key, err)
	}
	if sum := hex.EncodeToString(h.Sum(nil)); n != a.Bytes || sum != a.SHA256 {
		return fmt.Errorf("%w: %s has %d bytes sha256 %s, manifest says %d bytes sha256 %s", ErrChecksumMismatch, a.Key, n, sum, a.Bytes, a.SHA256)
	}
	return nil
}
