package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marcoallegretti/karapace/internal/manifest"
)

func TestNewCmdWithTemplateWritesManifest(t *testing.T) {
	t.Chdir(t.TempDir())

	tpl := "minimal"
	cmd := &NewCmd{Name: "devbox", Template: &tpl}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	m, err := manifest.ParseFile(destManifest)
	if err != nil {
		t.Fatalf("parsing written manifest: %v", err)
	}
	if m.Base.Image != "rolling" {
		t.Errorf("Base.Image = %q, want rolling", m.Base.Image)
	}
}

func TestNewCmdRejectsUnknownTemplate(t *testing.T) {
	t.Chdir(t.TempDir())

	tpl := "nonexistent"
	cmd := &NewCmd{Name: "devbox", Template: &tpl}
	if err := cmd.Run(); err == nil {
		t.Fatal("Run() with unknown template succeeded, want error")
	}
}

func TestNewCmdRefusesOverwriteWithoutForceOutsideTTY(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := os.WriteFile(destManifest, []byte("manifest_version = 1\n[base]\nimage=\"x\"\n"), 0o644); err != nil {
		t.Fatalf("seeding existing manifest: %v", err)
	}

	tpl := "minimal"
	cmd := &NewCmd{Name: "devbox", Template: &tpl}
	if err := cmd.Run(); err == nil {
		t.Fatal("Run() overwrote existing manifest without --force, want refusal")
	}
}

func TestNewCmdForceOverwritesExisting(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := os.WriteFile(destManifest, []byte("manifest_version = 1\n[base]\nimage=\"old\"\n"), 0o644); err != nil {
		t.Fatalf("seeding existing manifest: %v", err)
	}

	tpl := "dev"
	cmd := &NewCmd{Name: "devbox", Template: &tpl, Force: true}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	m, err := manifest.ParseFile(destManifest)
	if err != nil {
		t.Fatalf("parsing written manifest: %v", err)
	}
	if m.Base.Image != "rolling" {
		t.Errorf("Base.Image = %q, want rolling (from dev template)", m.Base.Image)
	}
}

func TestBuildAndStatusRoundTrip(t *testing.T) {
	storeRoot := t.TempDir()
	manifestPath := filepath.Join(t.TempDir(), "karapace.toml")
	src := `
manifest_version = 1
[base]
image = "rolling"
[runtime]
backend = "mock"
`
	if err := os.WriteFile(manifestPath, []byte(src), 0o644); err != nil {
		t.Fatalf("writing manifest fixture: %v", err)
	}

	name := "devbox"
	build := &BuildCmd{Manifest: manifestPath, Name: &name}
	build.Store = storeRoot
	if err := build.Run(); err != nil {
		t.Fatalf("BuildCmd.Run() error = %v", err)
	}

	status := &StatusCmd{Ref: "devbox"}
	status.Store = storeRoot
	if err := status.Run(); err != nil {
		t.Fatalf("StatusCmd.Run() error = %v", err)
	}

	missing := &StatusCmd{Ref: "devbox-missing"}
	missing.Store = storeRoot
	if err := missing.Run(); err == nil {
		t.Fatal("StatusCmd.Run() for unknown ref succeeded, want error")
	}
}

func TestDriftCommitAndGCRoundTrip(t *testing.T) {
	storeRoot := t.TempDir()
	manifestPath := filepath.Join(t.TempDir(), "karapace.toml")
	src := `
manifest_version = 1
[base]
image = "rolling"
[runtime]
backend = "mock"
`
	if err := os.WriteFile(manifestPath, []byte(src), 0o644); err != nil {
		t.Fatalf("writing manifest fixture: %v", err)
	}

	name := "driftbox"
	build := &BuildCmd{Manifest: manifestPath, Name: &name}
	build.Store = storeRoot
	if err := build.Run(); err != nil {
		t.Fatalf("BuildCmd.Run() error = %v", err)
	}

	e, err := newEngine(storeRoot)
	if err != nil {
		t.Fatalf("newEngine() error = %v", err)
	}
	status, err := e.Status(name)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	upper := filepath.Join(storeRoot, "env", status.EnvID.String(), "upper")
	if err := os.MkdirAll(upper, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(upper, "note.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	diff := &DriftDiffCmd{Ref: name}
	diff.Store = storeRoot
	if err := diff.Run(); err != nil {
		t.Fatalf("DriftDiffCmd.Run() error = %v", err)
	}

	exportPath := filepath.Join(t.TempDir(), "drift.tar.gz")
	export := &DriftExportCmd{Ref: name, Output: exportPath}
	export.Store = storeRoot
	if err := export.Run(); err != nil {
		t.Fatalf("DriftExportCmd.Run() error = %v", err)
	}
	if info, err := os.Stat(exportPath); err != nil || info.Size() == 0 {
		t.Fatalf("exported tarball missing or empty: %v", err)
	}

	commit := &DriftCommitCmd{Ref: name}
	commit.Store = storeRoot
	if err := commit.Run(); err != nil {
		t.Fatalf("DriftCommitCmd.Run() error = %v", err)
	}

	destroy := &DestroyCmd{Ref: name}
	destroy.Store = storeRoot
	if err := destroy.Run(); err != nil {
		t.Fatalf("DestroyCmd.Run() error = %v", err)
	}

	gc := &GCCmd{}
	gc.Store = storeRoot
	if err := gc.Run(); err != nil {
		t.Fatalf("GCCmd.Run() error = %v", err)
	}
}

func TestPinCmdCheckRejectsUnpinnedImage(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "karapace.toml")
	src := "manifest_version = 1\n[base]\nimage = \"rolling\"\n"
	if err := os.WriteFile(manifestPath, []byte(src), 0o644); err != nil {
		t.Fatalf("writing manifest fixture: %v", err)
	}

	cmd := &PinCmd{Manifest: manifestPath, Check: true}
	if err := cmd.Run(); err == nil {
		t.Fatal("PinCmd.Run(--check) on unpinned image succeeded, want error")
	}
}

func TestPinCmdCheckAcceptsPinnedImage(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "karapace.toml")
	src := "manifest_version = 1\n[base]\nimage = \"https://example.com/rolling.tar\"\n"
	if err := os.WriteFile(manifestPath, []byte(src), 0o644); err != nil {
		t.Fatalf("writing manifest fixture: %v", err)
	}

	cmd := &PinCmd{Manifest: manifestPath, Check: true}
	if err := cmd.Run(); err != nil {
		t.Fatalf("PinCmd.Run(--check) on pinned image error = %v", err)
	}
}
