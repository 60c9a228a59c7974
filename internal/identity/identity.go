// Package identity computes an environment's deterministic, content-derived
// identifier from its normalized manifest.
package identity

import (
	"encoding/hex"
	"fmt"
	"io"

	"lukechampine.com/blake3"

	"github.com/marcoallegretti/karapace/internal/manifest"
	"github.com/marcoallegretti/karapace/internal/types"
)

// EnvIdentity is the (EnvId, ShortId) pair derived from a normalized
// manifest. EnvId always starts with ShortId.
type EnvIdentity struct {
	EnvID   types.EnvID
	ShortID types.ShortID
}

// Compute feeds an incremental blake3 hasher in the fixed order the store
// depends on for determinism: canonical JSON, base image, each package and
// app line, capability flags, each mount line, backend, and optional
// resource limits.
func Compute(n *manifest.Normalized) (EnvIdentity, error) {
	canon, err := n.CanonicalJSON()
	if err != nil {
		return EnvIdentity{}, err
	}

	h := blake3.New(32, nil)
	write(h, canon)
	baseDigest := blake3.Sum256([]byte(n.BaseImage))
	write(h, []byte(hex.EncodeToString(baseDigest[:])))

	for _, pkg := range n.Packages {
		write(h, []byte("pkg:"+pkg))
	}
	for _, app := range n.Apps {
		write(h, []byte("app:"+app))
	}

	write(h, []byte(fmt.Sprintf("hw:gpu:%t", n.GPU)))
	write(h, []byte(fmt.Sprintf("hw:audio:%t", n.Audio)))
	write(h, []byte(fmt.Sprintf("net:isolated:%t", n.NetworkIsolated)))

	for _, mnt := range n.Mounts {
		write(h, []byte(fmt.Sprintf("mount:%s:%s:%s", mnt.Label, mnt.Host, mnt.Container)))
	}

	write(h, []byte("backend:"+n.Backend))

	if n.CPUShares != nil {
		write(h, []byte(fmt.Sprintf("cpu:%d", *n.CPUShares)))
	}
	if n.MemoryLimitMB != nil {
		write(h, []byte(fmt.Sprintf("mem:%d", *n.MemoryLimitMB)))
	}

	sum := h.Sum(nil)
	envID := hex.EncodeToString(sum)
	// blake3.New(32, ...) already yields 32 bytes = 64 hex chars, matching
	// the spec's 64-hex env_id.
	return EnvIdentity{
		EnvID:   types.EnvID(envID),
		ShortID: types.EnvID(envID).Short(),
	}, nil
}

func write(w io.Writer, b []byte) {
	// blake3.Hasher.Write never returns an error; ignoring it matches the
	// hash.Hash contract it implements.
	_, _ = w.Write(b)
}
