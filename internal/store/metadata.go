package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/types"
)

// EnvState is the lifecycle state of an environment.
type EnvState string

const (
	StateDefined  EnvState = "Defined"
	StateBuilt    EnvState = "Built"
	StateRunning  EnvState = "Running"
	StateFrozen   EnvState = "Frozen"
	StateArchived EnvState = "Archived"
)

// EnvMetadata is the per-environment record persisted at
// metadata/<env_id>.
type EnvMetadata struct {
	EnvID         types.EnvID      `json:"env_id"`
	ShortID       types.ShortID    `json:"short_id"`
	Name          *string          `json:"name"`
	State         EnvState         `json:"state"`
	Layers        []types.LayerHash `json:"layers"`
	UpperDir      string           `json:"upper_dir"`
	CreatedAt     time.Time        `json:"created_at"`
	BuiltAt       *time.Time       `json:"built_at"`
	LastEnteredAt *time.Time       `json:"last_entered_at"`
	Checksum      *string          `json:"checksum"`
	PolicyLayer   *types.LayerHash `json:"policy_layer"`
}

// MetadataStore serializes one JSON record per environment under
// metadata/<env_id>, enforcing name uniqueness across live records. State
// changes arrive through the caller's Mutator; the store does not check
// lifecycle transitions itself.
type MetadataStore struct {
	layout *Layout
}

func NewMetadataStore(layout *Layout) *MetadataStore {
	return &MetadataStore{layout: layout}
}

// validNameChar defines the allowed charset for a metadata name: ASCII
// letters, digits, '-', and '_'.
func validNameChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_':
		return true
	default:
		return false
	}
}

// ValidateName rejects the empty string and any character outside the
// reserved charset.
func ValidateName(name string) error {
	if name == "" {
		return errs.Wrap(errs.ErrStore, "environment name must not be empty")
	}
	for _, r := range name {
		if !validNameChar(r) {
			return errs.Wrap(errs.ErrStore, "environment name %q: invalid character %q", name, r)
		}
	}
	return nil
}

func (s *MetadataStore) path(id types.EnvID) string {
	return filepath.Join(s.layout.MetadataDir(), string(id))
}

// Insert validates the name (if set) and uniqueness among live records, then
// writes the record atomically.
func (s *MetadataStore) Insert(meta *EnvMetadata) error {
	if meta.Name != nil {
		if err := ValidateName(*meta.Name); err != nil {
			return err
		}
		if existing, ok, err := s.ByName(*meta.Name); err != nil {
			return err
		} else if ok && existing.EnvID != meta.EnvID {
			return errs.NewNameConflict(*meta.Name, string(existing.EnvID))
		}
	}
	return s.write(meta)
}

// Mutator transforms a metadata record in place; returning an error aborts
// the update without writing anything.
type Mutator func(*EnvMetadata) error

// Update reads the record for id, applies mutate, and writes the result
// atomically. Callers are responsible for acquiring the store lock around
// Update for cross-process serialization.
func (s *MetadataStore) Update(id types.EnvID, mutate Mutator) (*EnvMetadata, error) {
	meta, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := mutate(meta); err != nil {
		return nil, err
	}
	if err := s.write(meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func (s *MetadataStore) write(meta *EnvMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrSerialization, "encoding metadata %s: %w", meta.EnvID, err)
	}
	return atomicWrite(s.path(meta.EnvID), data)
}

// Get reads a single metadata record.
func (s *MetadataStore) Get(id types.EnvID) (*EnvMetadata, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrEnvNotFound, "environment %s: %w", id, err)
		}
		return nil, errs.Wrap(errs.ErrIO, "reading metadata %s: %w", id, err)
	}
	var meta EnvMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errs.Wrap(errs.ErrSerialization, "decoding metadata %s: %w", id, err)
	}
	return &meta, nil
}

// List returns every live metadata record.
func (s *MetadataStore) List() ([]*EnvMetadata, error) {
	entries, err := os.ReadDir(s.layout.MetadataDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.ErrIO, "listing metadata: %w", err)
	}
	out := make([]*EnvMetadata, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		meta, err := s.Get(types.EnvID(e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, nil
}

// ByName looks up the live metadata record with the given name.
func (s *MetadataStore) ByName(name string) (*EnvMetadata, bool, error) {
	all, err := s.List()
	if err != nil {
		return nil, false, err
	}
	for _, meta := range all {
		if meta.Name != nil && *meta.Name == name {
			return meta, true, nil
		}
	}
	return nil, false, nil
}

// Remove deletes a metadata record; absence is not an error.
func (s *MetadataStore) Remove(id types.EnvID) error {
	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.ErrIO, "removing metadata %s: %w", id, err)
	}
	return nil
}
