package runtime

import (
	"strings"

	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/manifest"
)

// SecurityPolicy gates which hardware and filesystem capabilities a built
// environment may actually exercise, independent of what the host makes
// available. A host that can't find nvidia-smi and a policy that refuses
// GPU passthrough are different failure modes; Check only enforces policy.
type SecurityPolicy struct {
	AllowGPU        bool
	AllowAudio      bool
	AllowedMountDir string // if set, every mount's Host path must live under this prefix
}

// DefaultSecurityPolicy permits GPU and audio passthrough and places no
// restriction on mount sources, matching an interactive single-user host.
func DefaultSecurityPolicy() SecurityPolicy {
	return SecurityPolicy{AllowGPU: true, AllowAudio: true}
}

// Check validates a normalized manifest's requested capabilities against the
// policy. It never consults the host; CheckNamespacePrereqs/CheckOCIPrereqs
// answer availability separately.
func (p SecurityPolicy) Check(n *manifest.Normalized) error {
	if n.GPU && !p.AllowGPU {
		return errs.Wrap(errs.ErrRuntime, "GPU passthrough requested but disallowed by policy")
	}
	if n.Audio && !p.AllowAudio {
		return errs.Wrap(errs.ErrRuntime, "audio passthrough requested but disallowed by policy")
	}
	if p.AllowedMountDir != "" {
		for _, m := range n.Mounts {
			if !strings.HasPrefix(m.Host, p.AllowedMountDir) {
				return errs.Wrap(errs.ErrRuntime, "mount host path %q escapes allowed directory %q", m.Host, p.AllowedMountDir)
			}
		}
	}
	return nil
}
