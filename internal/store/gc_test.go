package store

import (
	"testing"

	"github.com/marcoallegretti/karapace/internal/types"
)

func TestGarbageCollectorSweepRemovesUnreferenced(t *testing.T) {
	dir := t.TempDir()
	layout := NewLayout(dir)
	if err := layout.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	objects := NewObjectStore(layout)
	layers := NewLayerStore(layout, objects)
	metadata := NewMetadataStore(layout)

	liveObj, err := objects.Put([]byte("live"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	orphanObj, err := objects.Put([]byte("orphan"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	liveLayer, err := layers.Pack(LayerBase, nil, []types.ObjectHash{liveObj})
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	orphanLayer, err := layers.Pack(LayerUser, nil, []types.ObjectHash{orphanObj})
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	meta := sampleMeta("env1", "box")
	meta.Layers = []types.LayerHash{liveLayer}
	if err := metadata.Insert(meta); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	gc := NewGarbageCollector(layout, objects, layers, metadata)
	report, err := gc.Sweep()
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if len(report.LayersRemoved) != 1 || report.LayersRemoved[0] != orphanLayer {
		t.Errorf("LayersRemoved = %v, want [%s]", report.LayersRemoved, orphanLayer)
	}
	if len(report.ObjectsRemoved) != 1 || report.ObjectsRemoved[0] != orphanObj {
		t.Errorf("ObjectsRemoved = %v, want [%s]", report.ObjectsRemoved, orphanObj)
	}
	if !layers.Exists(liveLayer) {
		t.Error("live layer was removed")
	}
	if !objects.Exists(liveObj) {
		t.Error("live object was removed")
	}
}
