package store

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"lukechampine.com/blake3"

	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/types"
)

// LayerKind classifies a layer manifest by the stage of the build pipeline
// that produced it.
type LayerKind string

const (
	LayerBase   LayerKind = "base"
	LayerSystem LayerKind = "system"
	LayerGui    LayerKind = "gui"
	LayerPolicy LayerKind = "policy"
	LayerUser   LayerKind = "user"
)

// LayerManifest is a named, immutable group of object references.
type LayerManifest struct {
	Kind    LayerKind         `json:"kind"`
	Parent  *types.LayerHash  `json:"parent,omitempty"`
	Objects []types.ObjectHash `json:"objects"`
}

// LayerStore packs object hashes into content-addressed layer manifests and
// unpacks them back into their constituent object bytes.
type LayerStore struct {
	layout  *Layout
	objects *ObjectStore
}

func NewLayerStore(layout *Layout, objects *ObjectStore) *LayerStore {
	return &LayerStore{layout: layout, objects: objects}
}

// canonicalJSON serializes a manifest in field-declaration order, the same
// way manifest.Normalized does, so the hash is stable across hosts.
func (m *LayerManifest) canonicalJSON() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errs.Wrap(errs.ErrSerialization, "encoding layer manifest: %w", err)
	}
	return data, nil
}

func layerHash(data []byte) types.LayerHash {
	sum := blake3.Sum256(data)
	return types.LayerHash(hex.EncodeToString(sum[:]))
}

// Pack constructs a manifest from kind, optional parent, and an ordered set
// of object hashes, then writes it atomically under its own content hash.
// Packing is idempotent: identical (kind, parent, objects) always produce
// the same LayerHash and the write is skipped if that file already exists.
func (s *LayerStore) Pack(kind LayerKind, parent *types.LayerHash, objects []types.ObjectHash) (types.LayerHash, error) {
	manifest := &LayerManifest{Kind: kind, Parent: parent, Objects: objects}
	canon, err := manifest.canonicalJSON()
	if err != nil {
		return "", err
	}
	hash := layerHash(canon)

	dest := filepath.Join(s.layout.LayersDir(), string(hash))
	if _, err := os.Stat(dest); err == nil {
		return hash, nil
	}
	if err := atomicWrite(dest, canon); err != nil {
		return "", err
	}
	return hash, nil
}

// Unpack reads a layer manifest and streams its object bytes in order.
func (s *LayerStore) Unpack(hash types.LayerHash) (*LayerManifest, [][]byte, error) {
	manifest, err := s.Get(hash)
	if err != nil {
		return nil, nil, err
	}
	blobs := make([][]byte, len(manifest.Objects))
	for i, obj := range manifest.Objects {
		data, err := s.objects.Get(obj)
		if err != nil {
			return nil, nil, err
		}
		blobs[i] = data
	}
	return manifest, blobs, nil
}

// Get reads a layer manifest by hash without unpacking its objects.
func (s *LayerStore) Get(hash types.LayerHash) (*LayerManifest, error) {
	path := filepath.Join(s.layout.LayersDir(), string(hash))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrStore, "layer %s not found: %w", hash, err)
		}
		return nil, errs.Wrap(errs.ErrIO, "reading layer %s: %w", hash, err)
	}
	var manifest LayerManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errs.Wrap(errs.ErrSerialization, "decoding layer %s: %w", hash, err)
	}
	return &manifest, nil
}

// Exists checks layer manifest presence by filesystem stat.
func (s *LayerStore) Exists(hash types.LayerHash) bool {
	_, err := os.Stat(filepath.Join(s.layout.LayersDir(), string(hash)))
	return err == nil
}

// List returns every layer hash present in the store, sorted.
func (s *LayerStore) List() ([]types.LayerHash, error) {
	entries, err := os.ReadDir(s.layout.LayersDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.ErrIO, "listing layers: %w", err)
	}
	hashes := make([]types.LayerHash, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		hashes = append(hashes, types.LayerHash(e.Name()))
	}
	return hashes, nil
}

// Remove unlinks a layer manifest file; absence is not an error.
func (s *LayerStore) Remove(hash types.LayerHash) error {
	path := filepath.Join(s.layout.LayersDir(), string(hash))
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.ErrIO, "removing layer %s: %w", hash, err)
	}
	return nil
}
