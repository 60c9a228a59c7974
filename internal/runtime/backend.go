// Package runtime defines the backend contract the engine consumes to
// actually materialize and enter a sandbox, plus three implementations:
// an in-memory mock for tests, a namespace+overlayfs backend, and an OCI
// backend. Their internal shell-out details are a thin layer over os/exec;
// the contract itself is what the engine and the lifecycle validator
// depend on.
package runtime

import (
	"github.com/marcoallegretti/karapace/internal/manifest"
	"github.com/marcoallegretti/karapace/internal/types"
)

// RuntimeSpec carries everything a backend needs to resolve, build, enter,
// or destroy one environment.
type RuntimeSpec struct {
	EnvID      types.EnvID
	Root       string
	OverlayDir string
	UpperDir   string
	StoreRoot  string
	Manifest   *manifest.Normalized
}

// ResolutionResult is what Resolve reports about the declared base image
// and packages before a build proceeds.
type ResolutionResult struct {
	BaseImageDigest string
	Packages        []ResolvedPackage
}

// ResolvedPackage names a concrete version pinned during resolution.
type ResolvedPackage struct {
	Name    string
	Version string
}

// Status is what a backend reports for a running environment.
type Status struct {
	Running bool
	PID     int
}

// Output is the result of an optional Exec call.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Backend is the polymorphism point over concrete sandbox implementations.
// Dispatch is a single indirection: adding a backend means adding an
// implementation and a SelectBackend arm.
type Backend interface {
	Name() string
	Available() (bool, []MissingPrereq)
	Resolve(spec RuntimeSpec) (ResolutionResult, error)
	Build(spec RuntimeSpec) error
	Enter(spec RuntimeSpec) error
	// Exec runs argv inside the environment. All three backends here
	// implement it; failures are returned as errs sentinels (ErrRuntime, or
	// ErrBackendUnavailable when the backend's tooling is missing).
	Exec(spec RuntimeSpec, argv []string) (Output, error)
	Destroy(spec RuntimeSpec) error
	Status(spec RuntimeSpec) (Status, error)
}

// SelectBackend dispatches on the manifest's normalized backend name.
func SelectBackend(name string) (Backend, error) {
	switch name {
	case "namespace":
		return NewNamespaceBackend(), nil
	case "oci":
		return NewOCIBackend(), nil
	case "mock":
		return NewMockBackend(), nil
	default:
		return nil, unknownBackendError(name)
	}
}
