// Package lockfile records the post-resolution reproducibility boundary for
// a manifest: the exact base-image digest, pinned package versions, and the
// canonical environment identity computed from them.
package lockfile

import (
	"encoding/json"

	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/identity"
	"github.com/marcoallegretti/karapace/internal/manifest"
	"github.com/marcoallegretti/karapace/internal/types"
)

// ResolvedPackage is one pinned package entry in the lock file.
type ResolvedPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// LockFile is the reproducibility record produced after dependency
// resolution, distinct from the store's advisory .lock file.
type LockFile struct {
	ManifestHash   string            `json:"manifest_hash"`
	BaseImageDigest string           `json:"base_image_digest"`
	Packages       []ResolvedPackage `json:"packages"`
	EnvID          types.EnvID       `json:"env_id"`
}

// Resolution is the backend-reported outcome of resolving a normalized
// manifest's declared inputs (base image digest, pinned package versions)
// before the canonical identity can be computed.
type Resolution struct {
	BaseImageDigest string
	Packages        []ResolvedPackage
}

// Compute derives the canonical lock file for a normalized manifest and its
// resolution result. The canonical EnvId folds the resolved base-image
// digest and package versions into the normalized manifest's own hash input
// by re-running identity.Compute over a manifest view that substitutes the
// resolved values — the lock file itself only records the outcome.
func Compute(n *manifest.Normalized, res Resolution) (*LockFile, error) {
	canon, err := n.CanonicalJSON()
	if err != nil {
		return nil, err
	}

	resolved := *n
	resolved.BaseImage = res.BaseImageDigest
	resolved.Packages = resolvedPackageVersions(res.Packages)

	id, err := identity.Compute(&resolved)
	if err != nil {
		return nil, err
	}

	return &LockFile{
		ManifestHash:    hashHex(canon),
		BaseImageDigest: res.BaseImageDigest,
		Packages:        res.Packages,
		EnvID:           id.EnvID,
	}, nil
}

// resolvedPackageVersions renders each resolved package as "name@version" so
// the canonical identity changes when a pinned version does, even though the
// preliminary identity only ever sees the bare package name.
func resolvedPackageVersions(pkgs []ResolvedPackage) []string {
	versions := make([]string, len(pkgs))
	for i, p := range pkgs {
		versions[i] = p.Name + "@" + p.Version
	}
	return versions
}

// Matches reports whether this lock file was produced from manifestHash; a
// match means rebuild is a no-op.
func (l *LockFile) Matches(manifestHash string) bool {
	return l.ManifestHash == manifestHash
}

// Load reads and decodes a lock file from raw JSON bytes.
func Load(data []byte) (*LockFile, error) {
	var l LockFile
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errs.Wrap(errs.ErrSerialization, "decoding lock file: %w", err)
	}
	return &l, nil
}

// Save serializes the lock file to JSON.
func (l *LockFile) Save() ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.ErrSerialization, "encoding lock file: %w", err)
	}
	return data, nil
}
