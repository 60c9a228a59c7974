package remote

import (
	"testing"

	"github.com/marcoallegretti/karapace/internal/types"
)

func TestRegistryPublishAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Publish("dev@v1", RegistryEntry{EnvID: types.EnvID("hash1"), ShortID: types.ShortID("hash1")})

	if _, ok := r.Lookup("dev@v1"); !ok {
		t.Fatal("Lookup(dev@v1) not found")
	}
	if _, ok := r.Lookup("nonexistent"); ok {
		t.Fatal("Lookup(nonexistent) unexpectedly found")
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	r := NewRegistry()
	name := "my-env"
	r.Publish("my-env@latest", RegistryEntry{
		EnvID:    types.EnvID("abc123"),
		ShortID:  types.ShortID("abc123"),
		Name:     &name,
		PushedAt: "2025-01-01T00:00:00Z",
	})

	data, err := r.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes() error = %v", err)
	}
	loaded, err := FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	entry, ok := loaded.Lookup("my-env@latest")
	if !ok {
		t.Fatal("loaded registry missing entry")
	}
	if entry.EnvID != types.EnvID("abc123") || entry.Name == nil || *entry.Name != "my-env" {
		t.Errorf("entry = %+v, want round-tripped my-env/abc123", entry)
	}
}

func TestEmptyRegistryRoundTrip(t *testing.T) {
	r := NewRegistry()
	data, err := r.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes() error = %v", err)
	}
	loaded, err := FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	if len(loaded.Entries) != 0 {
		t.Errorf("Entries = %d, want 0", len(loaded.Entries))
	}
}

func TestFindByEnvID(t *testing.T) {
	r := NewRegistry()
	r.Publish("a@latest", RegistryEntry{EnvID: types.EnvID("hash1")})
	r.Publish("b@latest", RegistryEntry{EnvID: types.EnvID("hash1")})
	r.Publish("c@latest", RegistryEntry{EnvID: types.EnvID("hash2")})

	found := r.FindByEnvID(types.EnvID("hash1"))
	if len(found) != 2 {
		t.Fatalf("FindByEnvID(hash1) = %v, want 2 keys", found)
	}
	if found[0] != "a@latest" || found[1] != "b@latest" {
		t.Errorf("FindByEnvID(hash1) = %v, want sorted [a@latest b@latest]", found)
	}
}

func TestParseRefWithTag(t *testing.T) {
	name, tag := ParseRef("my-env@v2")
	if name != "my-env" || tag != "v2" {
		t.Errorf("ParseRef() = (%q, %q), want (my-env, v2)", name, tag)
	}
}

func TestParseRefWithoutTag(t *testing.T) {
	name, tag := ParseRef("my-env")
	if name != "my-env" || tag != "latest" {
		t.Errorf("ParseRef() = (%q, %q), want (my-env, latest)", name, tag)
	}
}

func TestListKeysSorted(t *testing.T) {
	r := NewRegistry()
	r.Publish("z@latest", RegistryEntry{})
	r.Publish("a@latest", RegistryEntry{})
	keys := r.ListKeys()
	if len(keys) != 2 || keys[0] != "a@latest" || keys[1] != "z@latest" {
		t.Errorf("ListKeys() = %v, want sorted [a@latest z@latest]", keys)
	}
}
