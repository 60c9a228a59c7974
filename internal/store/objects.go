package store

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lukechampine.com/blake3"

	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/types"
)

// ObjectStore is a content-addressable blob store backed by blake3. Object
// filenames are their hex digest; writes go through the package's
// atomicWrite helper and reads re-verify the digest on every call.
type ObjectStore struct {
	layout *Layout
}

func NewObjectStore(layout *Layout) *ObjectStore {
	return &ObjectStore{layout: layout}
}

func hashBytes(data []byte) types.ObjectHash {
	sum := blake3.Sum256(data)
	return types.ObjectHash(hex.EncodeToString(sum[:]))
}

// Put writes data and returns its hash. Idempotent: an existing object with
// the same hash is left untouched and its hash is returned unchanged.
func (s *ObjectStore) Put(data []byte) (types.ObjectHash, error) {
	hash := hashBytes(data)
	dest := filepath.Join(s.layout.ObjectsDir(), string(hash))

	if _, err := os.Stat(dest); err == nil {
		return hash, nil
	}

	if err := atomicWrite(dest, data); err != nil {
		return "", err
	}
	return hash, nil
}

// Get retrieves data by hash and fails with ErrIntegrityFailure if the
// recomputed hash does not match, or ErrObjectNotFound if it is absent.
func (s *ObjectStore) Get(hash types.ObjectHash) ([]byte, error) {
	path := filepath.Join(s.layout.ObjectsDir(), string(hash))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrObjectNotFound, "object %s: %w", hash, err)
		}
		return nil, errs.Wrap(errs.ErrIO, "reading object %s: %w", hash, err)
	}

	actual := hashBytes(data)
	if actual != hash {
		return nil, errs.NewIntegrityFailure(string(hash), string(actual))
	}
	return data, nil
}

// Exists checks presence by filesystem stat only; it does not verify
// integrity.
func (s *ObjectStore) Exists(hash types.ObjectHash) bool {
	_, err := os.Stat(filepath.Join(s.layout.ObjectsDir(), string(hash)))
	return err == nil
}

// Remove best-effort unlinks an object; absence is not an error.
func (s *ObjectStore) Remove(hash types.ObjectHash) error {
	path := filepath.Join(s.layout.ObjectsDir(), string(hash))
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.ErrIO, "removing object %s: %w", hash, err)
	}
	return nil
}

// List returns every object hash present, sorted, skipping dot-files (temp
// files left behind by an interrupted Put).
func (s *ObjectStore) List() ([]types.ObjectHash, error) {
	dir := s.layout.ObjectsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.ErrIO, "listing objects: %w", err)
	}

	hashes := make([]types.ObjectHash, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		hashes = append(hashes, types.ObjectHash(name))
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	return hashes, nil
}
