package store

import (
	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/types"
)

// GcReport summarizes what a Sweep removed.
type GcReport struct {
	ObjectsRemoved []types.ObjectHash
	LayersRemoved  []types.LayerHash
}

// GarbageCollector removes layer and object files no longer reachable from
// any live metadata record. The reference graph (metadata -> layer ->
// object) is a DAG of content hashes, never shared handles, so reachability
// is a plain traversal from every live metadata record's layer list.
type GarbageCollector struct {
	layout   *Layout
	objects  *ObjectStore
	layers   *LayerStore
	metadata *MetadataStore
}

func NewGarbageCollector(layout *Layout, objects *ObjectStore, layers *LayerStore, metadata *MetadataStore) *GarbageCollector {
	return &GarbageCollector{layout: layout, objects: objects, layers: layers, metadata: metadata}
}

// Sweep walks live metadata to find every reachable layer and object, then
// removes whatever in the store is not in that reachable set.
func (gc *GarbageCollector) Sweep() (*GcReport, error) {
	liveLayers := make(map[types.LayerHash]bool)
	liveObjects := make(map[types.ObjectHash]bool)

	metas, err := gc.metadata.List()
	if err != nil {
		return nil, err
	}
	for _, meta := range metas {
		for _, layerHash := range meta.Layers {
			if err := gc.collectLayer(layerHash, liveLayers, liveObjects); err != nil {
				return nil, err
			}
		}
		if meta.PolicyLayer != nil {
			if err := gc.collectLayer(*meta.PolicyLayer, liveLayers, liveObjects); err != nil {
				return nil, err
			}
		}
	}

	report := &GcReport{}

	allLayers, err := gc.layers.List()
	if err != nil {
		return nil, err
	}
	for _, hash := range allLayers {
		if !liveLayers[hash] {
			if err := gc.layers.Remove(hash); err != nil {
				return nil, err
			}
			report.LayersRemoved = append(report.LayersRemoved, hash)
		}
	}

	allObjects, err := gc.objects.List()
	if err != nil {
		return nil, err
	}
	for _, hash := range allObjects {
		if !liveObjects[hash] {
			if err := gc.objects.Remove(hash); err != nil {
				return nil, err
			}
			report.ObjectsRemoved = append(report.ObjectsRemoved, hash)
		}
	}

	return report, nil
}

// collectLayer walks a layer's parent chain and object refs into the live
// sets, guarding against revisiting a layer already recorded.
func (gc *GarbageCollector) collectLayer(hash types.LayerHash, liveLayers map[types.LayerHash]bool, liveObjects map[types.ObjectHash]bool) error {
	if liveLayers[hash] {
		return nil
	}
	manifest, err := gc.layers.Get(hash)
	if err != nil {
		return errs.Wrap(errs.ErrStore, "gc: resolving referenced layer %s: %w", hash, err)
	}
	liveLayers[hash] = true
	for _, obj := range manifest.Objects {
		liveObjects[obj] = true
	}
	if manifest.Parent != nil {
		return gc.collectLayer(*manifest.Parent, liveLayers, liveObjects)
	}
	return nil
}
