package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marcoallegretti/karapace/internal/engine"
)

const dbusTestManifest = `
manifest_version = 1
[base]
image = "rolling"
[runtime]
backend = "mock"
`

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	storeRoot := t.TempDir()
	e, err := engine.New(storeRoot)
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}
	manifestPath := filepath.Join(t.TempDir(), "karapace.toml")
	if err := os.WriteFile(manifestPath, []byte(dbusTestManifest), 0o644); err != nil {
		t.Fatalf("writing manifest fixture: %v", err)
	}
	return NewManager(e), manifestPath
}

func TestManagerBuildAndStatus(t *testing.T) {
	m, manifestPath := newTestManager(t)

	shortID, dbusErr := m.Build(manifestPath)
	if dbusErr != nil {
		t.Fatalf("Build() error = %v", dbusErr)
	}
	if shortID == "" {
		t.Fatal("Build() returned empty short ID")
	}

	state, running, pid, dbusErr := m.Status(shortID)
	if dbusErr != nil {
		t.Fatalf("Status() error = %v", dbusErr)
	}
	if state != "Built" {
		t.Errorf("state = %q, want Built", state)
	}
	if running {
		t.Error("running = true immediately after build, want false")
	}
	if pid != 0 {
		t.Errorf("pid = %d, want 0", pid)
	}
}

func TestManagerStatusOnUnknownRefFails(t *testing.T) {
	m, _ := newTestManager(t)
	if _, _, _, dbusErr := m.Status("nonexistent"); dbusErr == nil {
		t.Fatal("Status() on unknown ref succeeded, want error")
	}
}

func TestManagerEnterThenStop(t *testing.T) {
	m, manifestPath := newTestManager(t)

	shortID, dbusErr := m.Build(manifestPath)
	if dbusErr != nil {
		t.Fatalf("Build() error = %v", dbusErr)
	}
	if dbusErr := m.Enter(shortID); dbusErr != nil {
		t.Fatalf("Enter() error = %v", dbusErr)
	}
	if dbusErr := m.Stop(shortID); dbusErr != nil {
		t.Fatalf("Stop() error = %v", dbusErr)
	}
}
