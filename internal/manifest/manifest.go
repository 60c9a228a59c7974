// Package manifest parses and normalizes karapace.toml, the declarative
// input describing an environment: base image, system packages, optional
// GUI applications, hardware passthrough, bind mounts, and runtime policy.
package manifest

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/marcoallegretti/karapace/internal/errs"
)

// SupportedVersion is the only manifest_version this parser accepts.
const SupportedVersion = 1

// Manifest is the raw, as-declared TOML schema. Unknown keys anywhere in the
// document are rejected at decode time.
type Manifest struct {
	ManifestVersion int      `toml:"manifest_version"`
	Base            Base     `toml:"base"`
	System          System   `toml:"system"`
	GUI             GUI      `toml:"gui"`
	Hardware        Hardware `toml:"hardware"`
	Mounts          map[string]string `toml:"mounts"`
	Runtime         Runtime  `toml:"runtime"`
}

type Base struct {
	Image string `toml:"image"`
}

type System struct {
	Packages []string `toml:"packages"`
}

type GUI struct {
	Apps []string `toml:"apps"`
}

type Hardware struct {
	GPU   bool `toml:"gpu"`
	Audio bool `toml:"audio"`
}

type Runtime struct {
	Backend           string          `toml:"backend"`
	NetworkIsolation  bool            `toml:"network_isolation"`
	ResourceLimits    *ResourceLimits `toml:"resource_limits"`
}

type ResourceLimits struct {
	CPUShares     *int `toml:"cpu_shares"`
	MemoryLimitMB *int `toml:"memory_limit_mb"`
}

// Parse decodes raw TOML bytes into a Manifest, rejecting unknown keys and
// any manifest_version other than SupportedVersion.
func Parse(data []byte) (*Manifest, error) {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, errs.Wrap(errs.ErrManifest, "parsing toml: %w", err)
	}

	if m.ManifestVersion != SupportedVersion {
		return nil, errs.Wrap(errs.ErrManifest, "unsupported manifest_version %d (expected %d)", m.ManifestVersion, SupportedVersion)
	}
	if trimmedEmpty(m.Base.Image) {
		return nil, errs.Wrap(errs.ErrManifest, "base.image is required and must be non-empty")
	}

	return &m, nil
}

// ParseFile reads path and parses it as a Manifest.
func ParseFile(path string) (*Manifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrIO, "reading manifest %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Marshal serializes m back to TOML, the inverse of Parse. Used by commands
// that scaffold or rewrite a karapace.toml (new, pin).
func Marshal(m *Manifest) ([]byte, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, errs.Wrap(errs.ErrManifest, "serializing toml: %w", err)
	}
	return data, nil
}
