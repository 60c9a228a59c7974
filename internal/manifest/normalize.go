package manifest

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/marcoallegretti/karapace/internal/errs"
)

// Normalized is the canonical form of a Manifest: trimmed, sorted, deduped,
// defaults filled. Two manifests that differ only in ordering, duplication,
// or whitespace normalize to an identical value (and identical CanonicalJSON).
type Normalized struct {
	ManifestVersion int              `json:"manifest_version"`
	BaseImage       string           `json:"base_image"`
	Packages        []string         `json:"packages"`
	Apps            []string         `json:"apps"`
	GPU             bool             `json:"gpu"`
	Audio           bool             `json:"audio"`
	Mounts          []MountSpec      `json:"mounts"`
	Backend         string           `json:"backend"`
	NetworkIsolated bool             `json:"network_isolated"`
	CPUShares       *int             `json:"cpu_shares,omitempty"`
	MemoryLimitMB   *int             `json:"memory_limit_mb,omitempty"`
}

// MountSpec is a parsed "<host>:<container>" mount entry.
type MountSpec struct {
	Label     string `json:"label"`
	Host      string `json:"host"`
	Container string `json:"container"`
}

const defaultBackend = "namespace"

// Normalize canonicalizes a parsed Manifest: trims strings, drops empties,
// sorts and dedups packages/apps, parses and sorts mounts by label, and
// lower-cases the backend name (defaulting to "namespace" when unset).
func Normalize(m *Manifest) (*Normalized, error) {
	n := &Normalized{
		ManifestVersion: m.ManifestVersion,
		BaseImage:       strings.TrimSpace(m.Base.Image),
	}
	if n.BaseImage == "" {
		return nil, errs.Wrap(errs.ErrManifest, "base.image is required and must be non-empty")
	}

	n.Packages = sortDedup(trimNonEmpty(m.System.Packages))
	n.Apps = sortDedup(trimNonEmpty(m.GUI.Apps))
	n.GPU = m.Hardware.GPU
	n.Audio = m.Hardware.Audio

	mounts, err := normalizeMounts(m.Mounts)
	if err != nil {
		return nil, err
	}
	n.Mounts = mounts

	backend := strings.ToLower(strings.TrimSpace(m.Runtime.Backend))
	if backend == "" {
		backend = defaultBackend
	}
	if backend != "namespace" && backend != "oci" && backend != "mock" {
		return nil, errs.Wrap(errs.ErrManifest, "runtime.backend %q is not one of namespace, oci, mock", backend)
	}
	n.Backend = backend
	n.NetworkIsolated = m.Runtime.NetworkIsolation

	if rl := m.Runtime.ResourceLimits; rl != nil {
		n.CPUShares = rl.CPUShares
		n.MemoryLimitMB = rl.MemoryLimitMB
	}

	return n, nil
}

func normalizeMounts(raw map[string]string) ([]MountSpec, error) {
	specs := make([]MountSpec, 0, len(raw))
	for label, spec := range raw {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		host, container, ok := splitOnce(spec, ":")
		if !ok {
			return nil, errs.Wrap(errs.ErrManifest, "mount %q: expected \"<host>:<container>\"", label)
		}
		host = strings.TrimSpace(host)
		container = strings.TrimSpace(container)
		if host == "" || container == "" {
			return nil, errs.Wrap(errs.ErrManifest, "mount %q: host and container paths must both be non-empty", label)
		}
		specs = append(specs, MountSpec{Label: label, Host: host, Container: container})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Label < specs[j].Label })
	return specs, nil
}

func splitOnce(s, sep string) (before, after string, ok bool) {
	i := strings.Index(s, sep)
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+len(sep):], true
}

func trimNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// sortDedup sorts ascending and removes adjacent duplicates. Hand-rolled
// rather than a map-based dedup so the result stays allocation-light for the
// small lists (packages, apps) this parses.
func sortDedup(in []string) []string {
	if len(in) == 0 {
		return in
	}
	sort.Strings(in)
	out := in[:1]
	for _, s := range in[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}

// CanonicalJSON serializes the normalized manifest in field-declaration
// order. Stable across invocations and hosts: feeds directly into identity
// computation.
func (n *Normalized) CanonicalJSON() ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, errs.Wrap(errs.ErrSerialization, "canonical json: %w", err)
	}
	return data, nil
}
