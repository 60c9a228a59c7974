package runtime

import (
	"sync"

	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/types"
)

// MockBackend is an in-memory Backend used by tests and by the "mock"
// manifest backend value, where exercising a real namespace or OCI runtime
// isn't possible or desired.
type MockBackend struct {
	mu      sync.Mutex
	running map[types.EnvID]bool
}

// NewMockBackend constructs an empty MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{running: make(map[types.EnvID]bool)}
}

func (b *MockBackend) Name() string { return "mock" }

func (b *MockBackend) Available() (bool, []MissingPrereq) { return true, nil }

func (b *MockBackend) Resolve(spec RuntimeSpec) (ResolutionResult, error) {
	packages := make([]ResolvedPackage, len(spec.Manifest.Packages))
	for i, name := range spec.Manifest.Packages {
		packages[i] = ResolvedPackage{Name: name, Version: "mock"}
	}
	return ResolutionResult{BaseImageDigest: "mock:" + spec.Manifest.BaseImage, Packages: packages}, nil
}

func (b *MockBackend) Build(spec RuntimeSpec) error {
	return nil
}

func (b *MockBackend) Enter(spec RuntimeSpec) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running[spec.EnvID] = true
	return nil
}

func (b *MockBackend) Exec(spec RuntimeSpec, argv []string) (Output, error) {
	b.mu.Lock()
	running := b.running[spec.EnvID]
	b.mu.Unlock()
	if !running {
		return Output{}, errs.Wrap(errs.ErrRuntime, "environment %s is not running", spec.EnvID)
	}
	return Output{ExitCode: 0}, nil
}

func (b *MockBackend) Destroy(spec RuntimeSpec) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.running, spec.EnvID)
	return nil
}

func (b *MockBackend) Status(spec RuntimeSpec) (Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{Running: b.running[spec.EnvID]}, nil
}
