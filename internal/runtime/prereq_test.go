package runtime

import (
	"strings"
	"testing"
)

func withCommandExists(t *testing.T, present map[string]bool) {
	t.Helper()
	orig := commandExists
	commandExists = func(name string) bool { return present[name] }
	t.Cleanup(func() { commandExists = orig })
}

func withUserNamespacesWork(t *testing.T, ok bool) {
	t.Helper()
	orig := userNamespacesWork
	userNamespacesWork = func() bool { return ok }
	t.Cleanup(func() { userNamespacesWork = orig })
}

func TestCheckNamespacePrereqsAllPresent(t *testing.T) {
	withCommandExists(t, map[string]bool{"unshare": true, "fuse-overlayfs": true, "curl": true})
	withUserNamespacesWork(t, true)

	if got := CheckNamespacePrereqs(); len(got) != 0 {
		t.Errorf("CheckNamespacePrereqs() = %v, want empty", got)
	}
}

func TestCheckNamespacePrereqsMissingUnshare(t *testing.T) {
	withCommandExists(t, map[string]bool{"fuse-overlayfs": true, "curl": true})
	withUserNamespacesWork(t, true)

	got := CheckNamespacePrereqs()
	if len(got) != 1 || got[0].Name != "unshare" {
		t.Fatalf("CheckNamespacePrereqs() = %v, want one missing unshare", got)
	}
}

func TestCheckNamespacePrereqsBrokenUserNamespaces(t *testing.T) {
	withCommandExists(t, map[string]bool{"unshare": true, "fuse-overlayfs": true, "curl": true})
	withUserNamespacesWork(t, false)

	got := CheckNamespacePrereqs()
	if len(got) != 1 || got[0].Name != "user namespaces" {
		t.Fatalf("CheckNamespacePrereqs() = %v, want one missing user namespaces", got)
	}
}

func TestCheckNamespacePrereqsMissingSeveral(t *testing.T) {
	withCommandExists(t, map[string]bool{})
	withUserNamespacesWork(t, false)

	got := CheckNamespacePrereqs()
	if len(got) != 3 {
		t.Fatalf("CheckNamespacePrereqs() = %v, want 3 missing entries", got)
	}
}

func TestCheckOCIPrereqsAnyRuntimeSatisfies(t *testing.T) {
	withCommandExists(t, map[string]bool{"runc": true, "curl": true})

	if got := CheckOCIPrereqs(); len(got) != 0 {
		t.Errorf("CheckOCIPrereqs() = %v, want empty", got)
	}
}

func TestCheckOCIPrereqsNoRuntime(t *testing.T) {
	withCommandExists(t, map[string]bool{"curl": true})

	got := CheckOCIPrereqs()
	if len(got) != 1 || got[0].Name != "OCI runtime" {
		t.Fatalf("CheckOCIPrereqs() = %v, want one missing OCI runtime", got)
	}
}

func TestFormatMissingIncludesEachEntry(t *testing.T) {
	missing := []MissingPrereq{
		{Name: "curl", Purpose: "downloading images", InstallHint: "apt install curl"},
	}
	out := FormatMissing(missing)
	if !strings.Contains(out, "curl") || !strings.Contains(out, "apt install curl") {
		t.Errorf("FormatMissing() = %q, missing expected content", out)
	}
}
