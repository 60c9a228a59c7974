package runtime

import (
	"errors"
	"testing"

	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/manifest"
)

func TestSecurityPolicyCheckAllowsWithinPolicy(t *testing.T) {
	p := DefaultSecurityPolicy()
	n := &manifest.Normalized{GPU: true, Audio: true}
	if err := p.Check(n); err != nil {
		t.Errorf("Check() error = %v, want nil", err)
	}
}

func TestSecurityPolicyCheckRejectsGPU(t *testing.T) {
	p := SecurityPolicy{AllowGPU: false}
	n := &manifest.Normalized{GPU: true}
	err := p.Check(n)
	if !errors.Is(err, errs.ErrRuntime) {
		t.Fatalf("Check() error = %v, want ErrRuntime", err)
	}
}

func TestSecurityPolicyCheckRejectsAudio(t *testing.T) {
	p := SecurityPolicy{AllowAudio: false}
	n := &manifest.Normalized{Audio: true}
	err := p.Check(n)
	if !errors.Is(err, errs.ErrRuntime) {
		t.Fatalf("Check() error = %v, want ErrRuntime", err)
	}
}

func TestSecurityPolicyCheckRejectsMountOutsideAllowedDir(t *testing.T) {
	p := SecurityPolicy{AllowedMountDir: "/home/user"}
	n := &manifest.Normalized{Mounts: []manifest.MountSpec{
		{Label: "etc", Host: "/etc", Container: "/mnt/etc"},
	}}
	err := p.Check(n)
	if !errors.Is(err, errs.ErrRuntime) {
		t.Fatalf("Check() error = %v, want ErrRuntime", err)
	}
}

func TestSecurityPolicyCheckAllowsMountInsideAllowedDir(t *testing.T) {
	p := SecurityPolicy{AllowedMountDir: "/home/user"}
	n := &manifest.Normalized{Mounts: []manifest.MountSpec{
		{Label: "proj", Host: "/home/user/proj", Container: "/mnt/proj"},
	}}
	if err := p.Check(n); err != nil {
		t.Errorf("Check() error = %v, want nil", err)
	}
}
