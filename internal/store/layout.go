// Package store implements karapace's content-addressable object store,
// layer store, per-environment metadata store, write-ahead log, and advisory
// store lock, rooted at a single directory.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/types"
)

// FormatVersion is the store layout version this code understands. A store
// whose version file reports a lower value needs migration; a higher value
// is fatal (the binary is older than the store it's pointed at).
const FormatVersion = 2

const versionFile = "version"

// Layout resolves every path the store touches from a single root
// directory. All subdirectories are created lazily by Initialize.
type Layout struct {
	root string
}

// NewLayout returns a Layout rooted at root.
func NewLayout(root string) *Layout {
	return &Layout{root: root}
}

func (l *Layout) Root() string { return l.root }

func (l *Layout) storeDir() string    { return filepath.Join(l.root, "store") }
func (l *Layout) ObjectsDir() string  { return filepath.Join(l.storeDir(), "objects") }
func (l *Layout) LayersDir() string   { return filepath.Join(l.storeDir(), "layers") }
func (l *Layout) MetadataDir() string { return filepath.Join(l.storeDir(), "metadata") }
func (l *Layout) StagingDir() string  { return filepath.Join(l.storeDir(), "staging") }
func (l *Layout) LockFile() string    { return filepath.Join(l.storeDir(), ".lock") }
func (l *Layout) EnvDir() string      { return filepath.Join(l.root, "env") }

func (l *Layout) EnvPath(id types.EnvID) string {
	return filepath.Join(l.EnvDir(), string(id))
}

func (l *Layout) OverlayDir(id types.EnvID) string {
	return filepath.Join(l.EnvPath(id), "overlay")
}

// UpperDir is the overlay's writable top layer: where fuse-overlayfs stores
// runtime mutations. Drift detection, export, and commit all scan this tree.
func (l *Layout) UpperDir(id types.EnvID) string {
	return filepath.Join(l.EnvPath(id), "upper")
}

func (l *Layout) versionPath() string {
	return filepath.Join(l.storeDir(), versionFile)
}

type storeVersion struct {
	FormatVersion int `json:"format_version"`
}

// Initialize creates every store subdirectory (idempotent) and writes the
// version marker if absent, or verifies it if present.
func (l *Layout) Initialize() error {
	for _, dir := range []string{l.ObjectsDir(), l.LayersDir(), l.MetadataDir(), l.EnvDir(), l.StagingDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(errs.ErrIO, "creating %s: %w", dir, err)
		}
	}

	if _, err := os.Stat(l.versionPath()); err == nil {
		return l.VerifyVersion()
	} else if !os.IsNotExist(err) {
		return errs.Wrap(errs.ErrIO, "statting version file: %w", err)
	}

	data, err := json.MarshalIndent(storeVersion{FormatVersion: FormatVersion}, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrSerialization, "encoding version file: %w", err)
	}
	return atomicWrite(l.versionPath(), data)
}

// VerifyVersion reads the version file and fails with ErrVersionMismatch if
// it does not equal FormatVersion.
func (l *Layout) VerifyVersion() error {
	data, err := os.ReadFile(l.versionPath())
	if err != nil {
		return errs.Wrap(errs.ErrIO, "reading version file: %w", err)
	}
	var v storeVersion
	if err := json.Unmarshal(data, &v); err != nil {
		return errs.Wrap(errs.ErrSerialization, "decoding version file: %w", err)
	}
	if v.FormatVersion != FormatVersion {
		return errs.Wrap(errs.ErrVersionMismatch, "store is format version %d, code expects %d", v.FormatVersion, FormatVersion)
	}
	return nil
}
