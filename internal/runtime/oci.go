package runtime

import (
	"os"
	"os/exec"

	"github.com/marcoallegretti/karapace/internal/errs"
)

// OCIBackend delegates enter/exec/destroy/status to whichever OCI runtime the
// host has available (crun, runc, or youki, in that preference order). Build
// only creates the upper directory and does not invoke the runtime.
type OCIBackend struct{}

// NewOCIBackend constructs an OCIBackend.
func NewOCIBackend() *OCIBackend { return &OCIBackend{} }

func (b *OCIBackend) Name() string { return "oci" }

func (b *OCIBackend) Available() (bool, []MissingPrereq) {
	missing := CheckOCIPrereqs()
	return len(missing) == 0, missing
}

func (b *OCIBackend) Resolve(spec RuntimeSpec) (ResolutionResult, error) {
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

func (b *OCIBackend) Build(spec RuntimeSpec) error {
	if err := os.MkdirAll(spec.UpperDir, 0o755); err != nil {
		return errs.Wrap(errs.ErrIO, "creating upper dir %s: %w", spec.UpperDir, err)
	}
	return nil
}

func (b *OCIBackend) Enter(spec RuntimeSpec) error {
	runtimeBin, err := ociRuntimeBinary()
	if err != nil {
		return err
	}
	imageRef := formatImageRef("", spec.Manifest.BaseImage, "latest")
	cmd := exec.Command(runtimeBin, "run", "--bundle", spec.OverlayDir, spec.EnvID.String())
	cmd.Env = append(os.Environ(), "KARAPACE_IMAGE_REF="+imageRef)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return runForeground(cmd)
}

func (b *OCIBackend) Exec(spec RuntimeSpec, argv []string) (Output, error) {
	runtimeBin, err := ociRuntimeBinary()
	if err != nil {
		return Output{}, err
	}
	args := append([]string{"exec", spec.EnvID.String()}, argv...)
	cmd := exec.Command(runtimeBin, args...)
	var out, errOut outputBuf
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	runErr := cmd.Run()
	code := exitCode(cmd, runErr)
	if runErr != nil && code == -1 {
		return Output{}, errs.Wrap(errs.ErrRuntime, "exec in oci container %s: %w", spec.EnvID, runErr)
	}
	return Output{Stdout: out.Bytes(), Stderr: errOut.Bytes(), ExitCode: code}, nil
}

func (b *OCIBackend) Destroy(spec RuntimeSpec) error {
	runtimeBin, err := ociRuntimeBinary()
	if err != nil {
		return err
	}
	cmd := exec.Command(runtimeBin, "delete", "--force", spec.EnvID.String())
	_ = cmd.Run() // best-effort: container may already be gone
	return os.RemoveAll(spec.OverlayDir)
}

func (b *OCIBackend) Status(spec RuntimeSpec) (Status, error) {
	runtimeBin, err := ociRuntimeBinary()
	if err != nil {
		return Status{}, err
	}
	cmd := exec.Command(runtimeBin, "state", spec.EnvID.String())
	if err := cmd.Run(); err != nil {
		return Status{Running: false}, nil
	}
	return Status{Running: true}, nil
}

// ociRuntimeBinary picks the first available OCI runtime in preference order.
func ociRuntimeBinary() (string, error) {
	for _, candidate := range []string{"crun", "runc", "youki"} {
		if commandExists(candidate) {
			return candidate, nil
		}
	}
	return "", errs.Wrap(errs.ErrBackendUnavailable, "no OCI runtime found on PATH (tried crun, runc, youki)")
}
