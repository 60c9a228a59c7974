package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marcoallegretti/karapace/internal/store"
)

const testManifest = `
manifest_version = 1
[base]
image = "rolling"
[system]
packages = ["git", "curl"]
[gui]
apps = ["firefox"]
[runtime]
backend = "mock"
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	root := t.TempDir()
	e, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "karapace.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing manifest fixture: %v", err)
	}
	return path
}

func TestBuildCreatesBuiltEnvironment(t *testing.T) {
	e := newTestEngine(t)
	manifestPath := writeManifest(t, testManifest)

	res, err := e.Build(manifestPath, BuildOpts{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if res.CacheHit {
		t.Fatal("Build() reported CacheHit on first build")
	}
	if len(res.LayersAdded) != 4 {
		t.Fatalf("LayersAdded = %d layers, want 4", len(res.LayersAdded))
	}

	meta, err := e.metadata.Get(res.EnvID)
	if err != nil {
		t.Fatalf("metadata.Get() error = %v", err)
	}
	if meta.State != store.StateBuilt {
		t.Errorf("State = %v, want Built", meta.State)
	}
}

func TestBuildIsIdempotentOnUnchangedManifest(t *testing.T) {
	e := newTestEngine(t)
	manifestPath := writeManifest(t, testManifest)

	first, err := e.Build(manifestPath, BuildOpts{})
	if err != nil {
		t.Fatalf("first Build() error = %v", err)
	}
	second, err := e.Build(manifestPath, BuildOpts{})
	if err != nil {
		t.Fatalf("second Build() error = %v", err)
	}
	if !second.CacheHit {
		t.Error("second Build() on an unchanged manifest did not report CacheHit")
	}
	if second.EnvID != first.EnvID {
		t.Errorf("EnvID changed across identical builds: %s != %s", second.EnvID, first.EnvID)
	}
}

func TestBuildRegistersName(t *testing.T) {
	e := newTestEngine(t)
	manifestPath := writeManifest(t, testManifest)
	name := "devbox"

	res, err := e.Build(manifestPath, BuildOpts{Name: &name})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	meta, err := e.resolveRef("devbox")
	if err != nil {
		t.Fatalf("resolveRef(name) error = %v", err)
	}
	if meta.EnvID != res.EnvID {
		t.Errorf("resolveRef by name found %s, want %s", meta.EnvID, res.EnvID)
	}
}

func TestEnterRoundTripsThroughRunningBackToBuilt(t *testing.T) {
	e := newTestEngine(t)
	manifestPath := writeManifest(t, testManifest)

	res, err := e.Build(manifestPath, BuildOpts{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if err := e.Enter(res.EnvID.String()); err != nil {
		t.Fatalf("Enter() error = %v", err)
	}

	meta, err := e.metadata.Get(res.EnvID)
	if err != nil {
		t.Fatalf("metadata.Get() error = %v", err)
	}
	if meta.State != store.StateBuilt {
		t.Errorf("State after Enter = %v, want Built", meta.State)
	}
	if meta.LastEnteredAt == nil {
		t.Error("LastEnteredAt not recorded by Enter")
	}
}

func TestStopOnNonRunningEnvironmentIsNoop(t *testing.T) {
	e := newTestEngine(t)
	manifestPath := writeManifest(t, testManifest)

	res, err := e.Build(manifestPath, BuildOpts{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := e.Stop(res.EnvID.String()); err != nil {
		t.Fatalf("Stop() on Built environment error = %v", err)
	}
}

func TestFreezeThenArchive(t *testing.T) {
	e := newTestEngine(t)
	manifestPath := writeManifest(t, testManifest)

	res, err := e.Build(manifestPath, BuildOpts{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := e.Freeze(res.EnvID.String()); err != nil {
		t.Fatalf("Freeze() error = %v", err)
	}
	meta, err := e.metadata.Get(res.EnvID)
	if err != nil {
		t.Fatalf("metadata.Get() error = %v", err)
	}
	if meta.State != store.StateFrozen {
		t.Fatalf("State after Freeze = %v, want Frozen", meta.State)
	}

	if err := e.Archive(res.EnvID.String()); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	meta, err = e.metadata.Get(res.EnvID)
	if err != nil {
		t.Fatalf("metadata.Get() error = %v", err)
	}
	if meta.State != store.StateArchived {
		t.Errorf("State after Archive = %v, want Archived", meta.State)
	}
}

func TestArchiveThenFreezeIsRejected(t *testing.T) {
	e := newTestEngine(t)
	manifestPath := writeManifest(t, testManifest)

	res, err := e.Build(manifestPath, BuildOpts{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := e.Archive(res.EnvID.String()); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if err := e.Freeze(res.EnvID.String()); err == nil {
		t.Fatal("Freeze() from Archived succeeded, want rejection")
	}
}

func TestDestroyRemovesMetadataAndDirectory(t *testing.T) {
	e := newTestEngine(t)
	manifestPath := writeManifest(t, testManifest)

	res, err := e.Build(manifestPath, BuildOpts{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	envDir := e.layout.EnvPath(res.EnvID)
	if _, err := os.Stat(envDir); err != nil {
		t.Fatalf("env directory missing after Build: %v", err)
	}

	if err := e.Destroy(res.EnvID.String()); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if _, err := os.Stat(envDir); !os.IsNotExist(err) {
		t.Errorf("env directory still present after Destroy: %v", err)
	}
	if _, err := e.metadata.Get(res.EnvID); err == nil {
		t.Error("metadata record still present after Destroy")
	}
}

func TestStatusDegradesGracefullyWithoutManifestFile(t *testing.T) {
	e := newTestEngine(t)
	manifestPath := writeManifest(t, testManifest)

	res, err := e.Build(manifestPath, BuildOpts{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := os.Remove(e.manifestFilePath(res.EnvID)); err != nil {
		t.Fatalf("removing persisted manifest fixture: %v", err)
	}

	status, err := e.Status(res.EnvID.String())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.State != store.StateBuilt {
		t.Errorf("State = %v, want Built", status.State)
	}
}

func TestLockFileReflectsBuild(t *testing.T) {
	e := newTestEngine(t)
	manifestPath := writeManifest(t, testManifest)

	res, err := e.Build(manifestPath, BuildOpts{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	lf, err := e.LockFile(res.EnvID.String())
	if err != nil {
		t.Fatalf("LockFile() error = %v", err)
	}
	if lf.EnvID != res.EnvID {
		t.Errorf("LockFile EnvID = %s, want %s", lf.EnvID, res.EnvID)
	}
}
