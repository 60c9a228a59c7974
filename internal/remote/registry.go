package remote

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/types"
)

// Registry indexes published references ("name@tag", or a bare env_id) to
// the RegistryEntry they resolve to. Entries are kept in a map; ListKeys
// sorts keys, and ToBytes's JSON encoding writes map keys in sorted order,
// so two registries with the same contents always serialize identically.
type Registry struct {
	Entries map[string]RegistryEntry `json:"entries"`
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{Entries: make(map[string]RegistryEntry)}
}

// Publish inserts or overwrites the entry for key.
func (r *Registry) Publish(key string, entry RegistryEntry) {
	if r.Entries == nil {
		r.Entries = make(map[string]RegistryEntry)
	}
	r.Entries[key] = entry
}

// Lookup returns the entry for key, if any.
func (r *Registry) Lookup(key string) (RegistryEntry, bool) {
	entry, ok := r.Entries[key]
	return entry, ok
}

// ListKeys returns every published key in sorted order.
func (r *Registry) ListKeys() []string {
	keys := make([]string, 0, len(r.Entries))
	for k := range r.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FindByEnvID returns every key whose entry resolves to id, sorted.
func (r *Registry) FindByEnvID(id types.EnvID) []string {
	var keys []string
	for k, v := range r.Entries {
		if v.EnvID == id {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// ParseRef splits a "name@tag" reference into (name, tag), defaulting the
// tag to "latest" when absent.
func ParseRef(reference string) (name, tag string) {
	if name, tag, ok := strings.Cut(reference, "@"); ok {
		return name, tag
	}
	return reference, "latest"
}

// FromBytes decodes a registry index.
func FromBytes(data []byte) (*Registry, error) {
	var r Registry
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errs.Wrap(errs.ErrRemote, "decoding registry index: %w", err)
	}
	if r.Entries == nil {
		r.Entries = make(map[string]RegistryEntry)
	}
	return &r, nil
}

// ToBytes encodes the registry index.
func (r *Registry) ToBytes() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.ErrRemote, "encoding registry index: %w", err)
	}
	return data, nil
}
