package runtime

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/marcoallegretti/karapace/internal/errs"
)

// NamespaceBackend builds and enters environments using unshare'd user
// namespaces with a fuse-overlayfs writable layer, the unprivileged default
// for a single-user host.
type NamespaceBackend struct{}

// NewNamespaceBackend constructs a NamespaceBackend.
func NewNamespaceBackend() *NamespaceBackend { return &NamespaceBackend{} }

func (b *NamespaceBackend) Name() string { return "namespace" }

func (b *NamespaceBackend) Available() (bool, []MissingPrereq) {
	missing := CheckNamespacePrereqs()
	return len(missing) == 0, missing
}

func (b *NamespaceBackend) Resolve(spec RuntimeSpec) (ResolutionResult, error) {
	digest, err := InspectRemoteImage(spec.Manifest.BaseImage)
	if err != nil {
		return ResolutionResult{}, err
	}
	packages := make([]ResolvedPackage, len(spec.Manifest.Packages))
	for i, name := range spec.Manifest.Packages {
		packages[i] = ResolvedPackage{Name: name, Version: "resolved"}
	}
	return ResolutionResult{BaseImageDigest: digest, Packages: packages}, nil
}

func (b *NamespaceBackend) Build(spec RuntimeSpec) error {
	if err := os.MkdirAll(spec.UpperDir, 0o755); err != nil {
		return errs.Wrap(errs.ErrIO, "creating upper dir %s: %w", spec.UpperDir, err)
	}
	return nil
}

func (b *NamespaceBackend) Enter(spec RuntimeSpec) error {
	args := mountOverlayArgs(spec)
	if !commandExists("fuse-overlayfs") {
		return errs.Wrap(errs.ErrBackendUnavailable, "fuse-overlayfs not found on PATH")
	}
	cmd := runNamespaceCommand(args)
	return runForeground(cmd)
}

func (b *NamespaceBackend) Exec(spec RuntimeSpec, argv []string) (Output, error) {
	cmd := execInNamespaceCommand(spec, argv)
	var out, errOut outputBuf
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err := cmd.Run()
	code := exitCode(cmd, err)
	if err != nil && code == -1 {
		return Output{}, errs.Wrap(errs.ErrRuntime, "exec in namespace for %s: %w", spec.EnvID, err)
	}
	return Output{Stdout: out.Bytes(), Stderr: errOut.Bytes(), ExitCode: code}, nil
}

func (b *NamespaceBackend) Destroy(spec RuntimeSpec) error {
	if err := os.RemoveAll(spec.OverlayDir); err != nil {
		return errs.Wrap(errs.ErrIO, "removing overlay dir %s: %w", spec.OverlayDir, err)
	}
	return nil
}

func (b *NamespaceBackend) Status(spec RuntimeSpec) (Status, error) {
	info, err := os.Stat(spec.UpperDir)
	if err != nil || !info.IsDir() {
		return Status{Running: false}, nil
	}
	return Status{Running: true}, nil
}

func mountOverlayArgs(spec RuntimeSpec) []string {
	lower := spec.Root
	upper := spec.UpperDir
	work := spec.OverlayDir + ".work"
	merged := spec.OverlayDir
	return []string{
		"fuse-overlayfs",
		"-o", fmt.Sprintf("lowerdir=%s,upperdir=%s,workdir=%s", lower, upper, work),
		merged,
	}
}

var runNamespaceCommand = defaultRunNamespaceCommand

func defaultRunNamespaceCommand(args []string) *exec.Cmd {
	full := append([]string{"--user", "--map-root-user", "--fork"}, args...)
	cmd := exec.Command("unshare", full...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

var execInNamespaceCommand = defaultExecInNamespaceCommand

func defaultExecInNamespaceCommand(spec RuntimeSpec, argv []string) *exec.Cmd {
	full := append([]string{"--user", "--map-root-user", "--fork"}, argv...)
	cmd := exec.Command("unshare", full...)
	cmd.Dir = spec.OverlayDir
	return cmd
}
