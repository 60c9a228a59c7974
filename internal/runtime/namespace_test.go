package runtime

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNamespaceBackendAvailableReflectsPrereqs(t *testing.T) {
	withCommandExists(t, map[string]bool{"unshare": true, "fuse-overlayfs": true, "curl": true})
	withUserNamespacesWork(t, true)

	b := NewNamespaceBackend()
	ok, missing := b.Available()
	if !ok || len(missing) != 0 {
		t.Fatalf("Available() = %v, %v, want true, empty", ok, missing)
	}
}

func TestNamespaceBackendBuildCreatesUpperDir(t *testing.T) {
	dir := t.TempDir()
	upper := filepath.Join(dir, "upper")
	b := NewNamespaceBackend()
	spec := RuntimeSpec{UpperDir: upper}

	if err := b.Build(spec); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	info, err := os.Stat(upper)
	if err != nil || !info.IsDir() {
		t.Fatalf("UpperDir not created: %v", err)
	}
}

func TestMountOverlayArgsShapesFuseOverlayfsInvocation(t *testing.T) {
	spec := RuntimeSpec{Root: "/lower", UpperDir: "/upper", OverlayDir: "/merged"}
	args := mountOverlayArgs(spec)
	if args[0] != "fuse-overlayfs" {
		t.Fatalf("args[0] = %q, want fuse-overlayfs", args[0])
	}
	if args[len(args)-1] != "/merged" {
		t.Errorf("last arg = %q, want merged dir", args[len(args)-1])
	}
}
