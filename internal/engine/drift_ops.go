package engine

import (
	"io"

	"github.com/marcoallegretti/karapace/internal/drift"
	"github.com/marcoallegretti/karapace/internal/store"
	"github.com/marcoallegretti/karapace/internal/types"
)

// Diff reports ref's overlay drift since its last Commit.
func (e *Engine) Diff(ref string) (*drift.Report, error) {
	meta, err := e.resolveRef(ref)
	if err != nil {
		return nil, err
	}
	return drift.Diff(e.layout.UpperDir(meta.EnvID))
}

// Export streams a gzip-compressed tarball of ref's overlay drift to w.
func (e *Engine) Export(ref string, w io.Writer) error {
	meta, err := e.resolveRef(ref)
	if err != nil {
		return err
	}
	return drift.Export(e.layout.UpperDir(meta.EnvID), w)
}

// Commit packs ref's overlay drift into a new User layer chained onto its
// current layer set and truncates its upper/ so Diff(ref) reports empty
// afterward.
func (e *Engine) Commit(ref string) (types.LayerHash, error) {
	if err := e.Lock(); err != nil {
		return "", err
	}
	defer e.Unlock()

	meta, err := e.resolveRef(ref)
	if err != nil {
		return "", err
	}

	wal, err := store.Open(e.layout.StagingDir())
	if err != nil {
		return "", err
	}

	var parent *types.LayerHash
	if len(meta.Layers) > 0 {
		p := meta.Layers[len(meta.Layers)-1]
		parent = &p
	}

	layerHash, err := drift.Commit(wal, e.objects, e.layers, e.layout.UpperDir(meta.EnvID), parent)
	if err != nil {
		return "", err
	}

	if _, err := e.metadata.Update(meta.EnvID, func(m *store.EnvMetadata) error {
		m.Layers = append(m.Layers, layerHash)
		return nil
	}); err != nil {
		return "", err
	}

	return layerHash, nil
}

// GC removes layer and object files no longer reachable from any live
// environment's metadata.
func (e *Engine) GC() (*store.GcReport, error) {
	if err := e.Lock(); err != nil {
		return nil, err
	}
	defer e.Unlock()
	gc := store.NewGarbageCollector(e.layout, e.objects, e.layers, e.metadata)
	return gc.Sweep()
}
