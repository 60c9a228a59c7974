package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/marcoallegretti/karapace/internal/errs"
)

func testObjectStore(t *testing.T) *ObjectStore {
	t.Helper()
	dir := t.TempDir()
	layout := NewLayout(dir)
	if err := layout.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return NewObjectStore(layout)
}

func TestObjectStorePutGetRoundTrip(t *testing.T) {
	s := testObjectStore(t)
	data := []byte("hello karapace")
	hash, err := s.Put(data)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := s.Get(hash)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Get() = %q, want %q", got, data)
	}
}

func TestObjectStorePutIsIdempotent(t *testing.T) {
	s := testObjectStore(t)
	h1, err := s.Put([]byte("hello"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	h2, err := s.Put([]byte("hello"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if h1 != h2 {
		t.Errorf("Put() hashes differ: %s vs %s", h1, h2)
	}
}

func TestObjectStoreGetMissing(t *testing.T) {
	s := testObjectStore(t)
	if _, err := s.Get("nonexistent"); !errors.Is(err, errs.ErrObjectNotFound) {
		t.Errorf("Get() error = %v, want ErrObjectNotFound", err)
	}
}

func TestObjectStoreIntegrityCheckOnRead(t *testing.T) {
	s := testObjectStore(t)
	hash, err := s.Put([]byte("test data"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	objPath := filepath.Join(s.layout.ObjectsDir(), string(hash))
	if err := os.WriteFile(objPath, []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("corrupting object: %v", err)
	}
	if _, err := s.Get(hash); !errors.Is(err, errs.ErrIntegrityFailure) {
		t.Errorf("Get() error = %v, want ErrIntegrityFailure", err)
	}
}

func TestObjectStoreListSortedSkipsDotFiles(t *testing.T) {
	s := testObjectStore(t)
	if _, err := s.Put([]byte("aaa")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := s.Put([]byte("bbb")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	list, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() = %v, want 2 entries", list)
	}
	if list[0] >= list[1] {
		t.Errorf("List() not sorted: %v", list)
	}
}

func TestObjectStoreRemove(t *testing.T) {
	s := testObjectStore(t)
	hash, err := s.Put([]byte("data"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if !s.Exists(hash) {
		t.Fatal("Exists() false right after Put()")
	}
	if err := s.Remove(hash); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if s.Exists(hash) {
		t.Error("Exists() true after Remove()")
	}
	// Removing again is not an error (idempotence).
	if err := s.Remove(hash); err != nil {
		t.Errorf("Remove() of already-removed object error = %v", err)
	}
}
