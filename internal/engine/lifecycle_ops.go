package engine

import (
	"os"

	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/lifecycle"
	"github.com/marcoallegretti/karapace/internal/runtime"
	"github.com/marcoallegretti/karapace/internal/store"
)

func (e *Engine) transition(id store.EnvMetadata, to store.EnvState) (*store.EnvMetadata, error) {
	return e.metadata.Update(id.EnvID, func(m *store.EnvMetadata) error {
		if err := lifecycle.ValidateTransition(m.State, to); err != nil {
			return err
		}
		m.State = to
		if to == store.StateRunning {
			entered := now()
			m.LastEnteredAt = &entered
		}
		return nil
	})
}

// Enter requires ref to be Built, transitions it to Running, invokes the
// backend's foreground Enter, and transitions back to Built once that
// returns — whether it exited cleanly or not, so a crashed or killed
// session never leaves the environment stuck in Running.
func (e *Engine) Enter(ref string) error {
	if err := e.Lock(); err != nil {
		return err
	}
	defer e.Unlock()

	meta, err := e.resolveRef(ref)
	if err != nil {
		return err
	}
	n, err := e.loadManifestFile(meta.EnvID)
	if err != nil {
		return err
	}
	backend, err := runtime.SelectBackend(n.Backend)
	if err != nil {
		return err
	}

	if _, err := e.transition(*meta, store.StateRunning); err != nil {
		return err
	}

	enterErr := backend.Enter(e.runtimeSpec(meta, n))

	if _, err := e.transition(*meta, store.StateBuilt); err != nil {
		if enterErr != nil {
			return enterErr
		}
		return err
	}
	return enterErr
}

// Stop transitions a Running environment back to Built. It does not send
// any signal to a live session itself — concrete sandbox shell-out details
// (how a backend actually kills a process) are out of scope; Stop only
// records that the caller considers the session over.
func (e *Engine) Stop(ref string) error {
	if err := e.Lock(); err != nil {
		return err
	}
	defer e.Unlock()

	meta, err := e.resolveRef(ref)
	if err != nil {
		return err
	}
	if meta.State != store.StateRunning {
		return nil
	}
	_, err = e.transition(*meta, store.StateBuilt)
	return err
}

// Freeze transitions a Built environment to Frozen.
func (e *Engine) Freeze(ref string) error {
	if err := e.Lock(); err != nil {
		return err
	}
	defer e.Unlock()

	meta, err := e.resolveRef(ref)
	if err != nil {
		return err
	}
	_, err = e.transition(*meta, store.StateFrozen)
	return err
}

// Archive transitions a Built or Frozen environment to Archived.
func (e *Engine) Archive(ref string) error {
	if err := e.Lock(); err != nil {
		return err
	}
	defer e.Unlock()

	meta, err := e.resolveRef(ref)
	if err != nil {
		return err
	}
	_, err = e.transition(*meta, store.StateArchived)
	return err
}

// Destroy removes an environment's upper directory and metadata record. Its
// referenced layers and objects are not removed here: they become
// candidates for the next GarbageCollector.Sweep once truly unreferenced.
func (e *Engine) Destroy(ref string) error {
	if err := e.Lock(); err != nil {
		return err
	}
	defer e.Unlock()

	meta, err := e.resolveRef(ref)
	if err != nil {
		return err
	}

	if n, nerr := e.loadManifestFile(meta.EnvID); nerr == nil {
		if backend, berr := runtime.SelectBackend(n.Backend); berr == nil {
			_ = backend.Destroy(e.runtimeSpec(meta, n))
		}
	}

	if err := os.RemoveAll(e.layout.EnvPath(meta.EnvID)); err != nil {
		return errs.Wrap(errs.ErrIO, "removing environment directory for %s: %w", meta.EnvID, err)
	}
	return e.metadata.Remove(meta.EnvID)
}
