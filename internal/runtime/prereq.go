package runtime

import (
	"fmt"
	"os/exec"
	"strings"
)

// MissingPrereq names one missing dependency with actionable install
// instructions.
type MissingPrereq struct {
	Name        string
	Purpose     string
	InstallHint string
}

func (m MissingPrereq) String() string {
	return fmt.Sprintf("  - %s: %s (install: %s)", m.Name, m.Purpose, m.InstallHint)
}

// commandExists is a package-level var for testability, the same pattern
// the teacher uses for PATH lookups.
var commandExists = defaultCommandExists

func defaultCommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

var userNamespacesWork = defaultUserNamespacesWork

func defaultUserNamespacesWork() bool {
	cmd := exec.Command("unshare", "--user", "--map-root-user", "--fork", "true")
	return cmd.Run() == nil
}

// CheckNamespacePrereqs reports every unmet requirement of the namespace
// backend. An empty slice means the host is ready.
func CheckNamespacePrereqs() []MissingPrereq {
	var missing []MissingPrereq

	if !commandExists("unshare") {
		missing = append(missing, MissingPrereq{
			Name:        "unshare",
			Purpose:     "user namespace isolation",
			InstallHint: "part of util-linux (usually pre-installed)",
		})
	} else if !userNamespacesWork() {
		missing = append(missing, MissingPrereq{
			Name:        "user namespaces",
			Purpose:     "unprivileged container isolation",
			InstallHint: "enable CONFIG_USER_NS=y in kernel, or: sysctl kernel.unprivileged_userns_clone=1",
		})
	}

	if !commandExists("fuse-overlayfs") {
		missing = append(missing, MissingPrereq{
			Name:        "fuse-overlayfs",
			Purpose:     "overlay filesystem for writable container layers",
			InstallHint: "zypper install fuse-overlayfs | apt install fuse-overlayfs | dnf install fuse-overlayfs | pacman -S fuse-overlayfs",
		})
	}

	if !commandExists("curl") {
		missing = append(missing, curlPrereq())
	}

	return missing
}

// CheckOCIPrereqs reports every unmet requirement of the OCI backend.
func CheckOCIPrereqs() []MissingPrereq {
	var missing []MissingPrereq

	hasRuntime := commandExists("crun") || commandExists("runc") || commandExists("youki")
	if !hasRuntime {
		missing = append(missing, MissingPrereq{
			Name:        "OCI runtime",
			Purpose:     "OCI container execution",
			InstallHint: "install one of: crun, runc, or youki",
		})
	}

	if !commandExists("curl") {
		missing = append(missing, curlPrereq())
	}

	return missing
}

func curlPrereq() MissingPrereq {
	return MissingPrereq{
		Name:        "curl",
		Purpose:     "downloading container images",
		InstallHint: "zypper install curl | apt install curl | dnf install curl | pacman -S curl",
	}
}

// FormatMissing renders missing into the multi-line message the CLI and
// D-Bus façade surface for BackendUnavailable.
func FormatMissing(missing []MissingPrereq) string {
	var b strings.Builder
	b.WriteString("missing prerequisites:\n")
	for _, m := range missing {
		b.WriteString(m.String())
		b.WriteString("\n")
	}
	b.WriteString("\nKarapace requires these tools to create container environments.")
	return b.String()
}
