package remote

import (
	"sync"

	"github.com/marcoallegretti/karapace/internal/errs"
)

// MemoryBackend is an in-process Backend, used by tests and as the
// reference implementation a real transport (HTTP, object storage) should
// behave identically to.
type MemoryBackend struct {
	mu       sync.Mutex
	blobs    map[BlobKind]map[string][]byte
	registry []byte
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		blobs: map[BlobKind]map[string][]byte{
			BlobObject:   make(map[string][]byte),
			BlobLayer:    make(map[string][]byte),
			BlobMetadata: make(map[string][]byte),
		},
	}
}

func (b *MemoryBackend) PutBlob(kind BlobKind, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	b.blobs[kind][key] = stored
	return nil
}

func (b *MemoryBackend) GetBlob(kind BlobKind, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[kind][key]
	if !ok {
		return nil, errs.Wrap(errs.ErrRemote, "blob %s/%s not found", kind, key)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (b *MemoryBackend) HasBlob(kind BlobKind, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.blobs[kind][key]
	return ok, nil
}

func (b *MemoryBackend) ListBlobs(kind BlobKind) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.blobs[kind]))
	for k := range b.blobs[kind] {
		keys = append(keys, k)
	}
	return keys, nil
}

func (b *MemoryBackend) PutRegistry(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	b.registry = stored
	return nil
}

func (b *MemoryBackend) GetRegistry() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.registry == nil {
		return nil, errs.Wrap(errs.ErrRemote, "no registry has been pushed yet")
	}
	out := make([]byte, len(b.registry))
	copy(out, b.registry)
	return out, nil
}
