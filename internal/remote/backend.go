// Package remote defines the contract for sharing built environments between
// stores: a blob transfer interface, a name@tag registry index, and the
// configuration needed to address a remote. It deliberately stops at the
// contract — no HTTP client, no wire transport — the same boundary the
// original Rust crate drew between its trait and its concrete http backend.
package remote

import "github.com/marcoallegretti/karapace/internal/types"

// BlobKind identifies which namespace of the content-addressable store a
// blob belongs to.
type BlobKind int

const (
	BlobObject BlobKind = iota
	BlobLayer
	BlobMetadata
)

func (k BlobKind) String() string {
	switch k {
	case BlobObject:
		return "object"
	case BlobLayer:
		return "layer"
	case BlobMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// Backend is a remote store a Registry can be published to or pulled from.
// Concrete transports (HTTP, object storage, ssh) implement this against
// their own wire format; karapace only depends on the shape.
type Backend interface {
	PutBlob(kind BlobKind, key string, data []byte) error
	GetBlob(kind BlobKind, key string) ([]byte, error)
	HasBlob(kind BlobKind, key string) (bool, error)
	ListBlobs(kind BlobKind) ([]string, error)

	PutRegistry(data []byte) error
	GetRegistry() ([]byte, error)
}

// RegistryEntry is what a published reference resolves to.
type RegistryEntry struct {
	EnvID    types.EnvID   `json:"env_id"`
	ShortID  types.ShortID `json:"short_id"`
	Name     *string       `json:"name,omitempty"`
	PushedAt string        `json:"pushed_at"`
}
