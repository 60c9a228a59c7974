// Package engine is the public contract consumed by the CLI and D-Bus
// façades: build, enter, stop, freeze, archive, destroy, and status,
// orchestrating the manifest/identity/lockfile/store/lifecycle/drift/runtime
// subsystems behind a single surface.
package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/marcoallegretti/karapace/internal/concurrency"
	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/lockfile"
	"github.com/marcoallegretti/karapace/internal/manifest"
	"github.com/marcoallegretti/karapace/internal/runtime"
	"github.com/marcoallegretti/karapace/internal/store"
	"github.com/marcoallegretti/karapace/internal/types"
)

// Engine owns every store handle rooted at one store.Layout and dispatches
// to the runtime backend a normalized manifest selects.
type Engine struct {
	layout   *store.Layout
	objects  *store.ObjectStore
	layers   *store.LayerStore
	metadata *store.MetadataStore
	lock     *store.StoreLock
}

// New opens (initializing if necessary) the store rooted at root and
// recovers any WAL record left by a prior crash.
func New(root string) (*Engine, error) {
	layout := store.NewLayout(root)
	if err := layout.Initialize(); err != nil {
		return nil, err
	}
	if err := store.Recover(layout.StagingDir()); err != nil {
		return nil, err
	}

	objects := store.NewObjectStore(layout)
	layers := store.NewLayerStore(layout, objects)
	metadata := store.NewMetadataStore(layout)

	return &Engine{
		layout:   layout,
		objects:  objects,
		layers:   layers,
		metadata: metadata,
		lock:     store.NewStoreLock(layout),
	}, nil
}

// Status is the engine-level view of an environment combining persisted
// state with what the backend reports right now.
type Status struct {
	EnvID   types.EnvID
	State   store.EnvState
	Running bool
	PID     int
}

// resolveRef locates a metadata record by env_id, short_id, or name.
func (e *Engine) resolveRef(ref string) (*store.EnvMetadata, error) {
	if meta, err := e.metadata.Get(types.EnvID(ref)); err == nil {
		return meta, nil
	}
	all, err := e.metadata.List()
	if err != nil {
		return nil, err
	}
	for _, meta := range all {
		if meta.Name != nil && *meta.Name == ref {
			return meta, nil
		}
		if meta.EnvID.HasPrefix(ref) {
			return meta, nil
		}
	}
	return nil, errs.Wrap(errs.ErrEnvNotFound, "no environment matches %q", ref)
}

// Status reports an environment's persisted lifecycle state plus whatever
// its backend reports live (running, PID). It does not take the store lock:
// callers needing a consistent multi-read snapshot must acquire it
// themselves via Lock/Unlock.
func (e *Engine) Status(ref string) (Status, error) {
	meta, err := e.resolveRef(ref)
	if err != nil {
		return Status{}, err
	}

	n, err := e.loadManifestFile(meta.EnvID)
	if err != nil {
		return Status{EnvID: meta.EnvID, State: meta.State}, nil
	}
	backend, err := runtime.SelectBackend(n.Backend)
	if err != nil {
		return Status{EnvID: meta.EnvID, State: meta.State}, nil
	}
	rtStatus, err := backend.Status(e.runtimeSpec(meta, n))
	if err != nil {
		return Status{EnvID: meta.EnvID, State: meta.State}, nil
	}
	return Status{EnvID: meta.EnvID, State: meta.State, Running: rtStatus.Running, PID: rtStatus.PID}, nil
}

// manifestFilePath returns where a build persists the normalized manifest
// that produced an environment, so later operations (enter, stop, status,
// destroy) can reselect its backend without the original karapace.toml.
func (e *Engine) manifestFilePath(id types.EnvID) string {
	return filepath.Join(e.layout.EnvPath(id), "manifest.json")
}

func (e *Engine) saveManifestFile(id types.EnvID, n *manifest.Normalized) error {
	path := e.manifestFilePath(id)
	if err := ensureParentDir(path); err != nil {
		return err
	}
	data, err := n.CanonicalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (e *Engine) loadManifestFile(id types.EnvID) (*manifest.Normalized, error) {
	data, err := os.ReadFile(e.manifestFilePath(id))
	if err != nil {
		return nil, errs.Wrap(errs.ErrIO, "reading manifest record for %s: %w", id, err)
	}
	var n manifest.Normalized
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, errs.Wrap(errs.ErrSerialization, "decoding manifest record for %s: %w", id, err)
	}
	return &n, nil
}

func (e *Engine) runtimeSpec(meta *store.EnvMetadata, n *manifest.Normalized) runtime.RuntimeSpec {
	return runtime.RuntimeSpec{
		EnvID:      meta.EnvID,
		Root:       e.layout.EnvPath(meta.EnvID),
		OverlayDir: e.layout.OverlayDir(meta.EnvID),
		UpperDir:   e.layout.UpperDir(meta.EnvID),
		StoreRoot:  e.layout.Root(),
		Manifest:   n,
	}
}

// Lock acquires the store's advisory cross-process lock for the duration of
// a mutating operation.
func (e *Engine) Lock() error { return e.lock.Acquire() }

// Unlock releases it.
func (e *Engine) Unlock() error { return e.lock.Release() }

func checkCancelled() error {
	if concurrency.ShutdownRequested() {
		return errs.ErrCancelled
	}
	return nil
}

var now = func() time.Time { return time.Now().UTC() }

func ensureParentDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.ErrIO, "creating directory for %s: %w", path, err)
	}
	return nil
}

// lockFilePath returns where an environment's reproducibility lock file is
// stored, alongside its metadata record.
func (e *Engine) lockFilePath(id types.EnvID) string {
	return filepath.Join(e.layout.EnvPath(id), "lock.json")
}

func (e *Engine) loadLockFile(id types.EnvID) (*lockfile.LockFile, error) {
	data, err := os.ReadFile(e.lockFilePath(id))
	if err != nil {
		return nil, errs.Wrap(errs.ErrIO, "reading lock file for %s: %w", id, err)
	}
	return lockfile.Load(data)
}

// LockFile returns the reproducibility record for a built environment, the
// surface `karapace pin` reads to report or rewrite the pinned base image.
func (e *Engine) LockFile(ref string) (*lockfile.LockFile, error) {
	meta, err := e.resolveRef(ref)
	if err != nil {
		return nil, err
	}
	return e.loadLockFile(meta.EnvID)
}

func (e *Engine) saveLockFile(lf *lockfile.LockFile) error {
	path := e.lockFilePath(lf.EnvID)
	if err := ensureParentDir(path); err != nil {
		return err
	}
	data, err := lf.Save()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
