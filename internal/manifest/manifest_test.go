package manifest

import (
	"errors"
	"strings"
	"testing"

	"github.com/marcoallegretti/karapace/internal/errs"
)

func TestParseValid(t *testing.T) {
	src := `
manifest_version = 1

[base]
image = "https://example.com/rolling.tar"

[system]
packages = ["git", "clang"]

[gui]
apps = ["firefox"]

[hardware]
gpu = true
audio = false

[mounts]
home = "/home/user:/home/user"

[runtime]
backend = "namespace"
network_isolation = true
`
	m, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if m.Base.Image != "https://example.com/rolling.tar" {
		t.Errorf("Base.Image = %q", m.Base.Image)
	}
	if len(m.System.Packages) != 2 {
		t.Errorf("Packages = %v", m.System.Packages)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	src := `
manifest_version = 1
[base]
image = "x"
unknown_field = "oops"
`
	_, err := Parse([]byte(src))
	if err == nil {
		t.Fatal("Parse() expected error for unknown field, got nil")
	}
	if !errors.Is(err, errs.ErrManifest) {
		t.Errorf("error = %v, want errs.ErrManifest", err)
	}
}

func TestParseRejectsWrongVersion(t *testing.T) {
	src := `
manifest_version = 2
[base]
image = "x"
`
	_, err := Parse([]byte(src))
	if err == nil {
		t.Fatal("Parse() expected error for wrong manifest_version")
	}
}

func TestMarshalThenParseRoundTrips(t *testing.T) {
	m := &Manifest{
		ManifestVersion: 1,
		Base:            Base{Image: "rolling"},
		System:          System{Packages: []string{"git", "curl"}},
		Runtime:         Runtime{Backend: "oci"},
	}
	data, err := Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error = %v", err)
	}
	if parsed.Base.Image != "rolling" || parsed.Runtime.Backend != "oci" {
		t.Errorf("round-tripped manifest = %+v", parsed)
	}
}

func TestParseRejectsMissingBaseImage(t *testing.T) {
	src := `manifest_version = 1`
	_, err := Parse([]byte(src))
	if err == nil {
		t.Fatal("Parse() expected error for missing base.image")
	}
	if !strings.Contains(err.Error(), "base.image") {
		t.Errorf("error = %v, want mention of base.image", err)
	}
}
