package remote

import "testing"

func TestMemoryBackendBlobRoundTrip(t *testing.T) {
	b := NewMemoryBackend()

	if ok, _ := b.HasBlob(BlobObject, "abc"); ok {
		t.Fatal("HasBlob() true before any Put")
	}
	if err := b.PutBlob(BlobObject, "abc", []byte("hello")); err != nil {
		t.Fatalf("PutBlob() error = %v", err)
	}
	ok, err := b.HasBlob(BlobObject, "abc")
	if err != nil || !ok {
		t.Fatalf("HasBlob() = (%v, %v), want (true, nil)", ok, err)
	}
	data, err := b.GetBlob(BlobObject, "abc")
	if err != nil {
		t.Fatalf("GetBlob() error = %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("GetBlob() = %q, want hello", data)
	}
}

func TestMemoryBackendGetMissingBlobFails(t *testing.T) {
	b := NewMemoryBackend()
	if _, err := b.GetBlob(BlobLayer, "missing"); err == nil {
		t.Fatal("GetBlob(missing) succeeded, want error")
	}
}

func TestMemoryBackendRegistryRoundTrip(t *testing.T) {
	b := NewMemoryBackend()
	if _, err := b.GetRegistry(); err == nil {
		t.Fatal("GetRegistry() before any push succeeded, want error")
	}

	r := NewRegistry()
	r.Publish("dev@latest", RegistryEntry{PushedAt: "now"})
	data, err := r.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes() error = %v", err)
	}
	if err := b.PutRegistry(data); err != nil {
		t.Fatalf("PutRegistry() error = %v", err)
	}

	fetched, err := b.GetRegistry()
	if err != nil {
		t.Fatalf("GetRegistry() error = %v", err)
	}
	loaded, err := FromBytes(fetched)
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	if _, ok := loaded.Lookup("dev@latest"); !ok {
		t.Error("round-tripped registry missing published entry")
	}
}

func TestMemoryBackendBlobIsolationBetweenCallers(t *testing.T) {
	b := NewMemoryBackend()
	original := []byte("original")
	if err := b.PutBlob(BlobObject, "k", original); err != nil {
		t.Fatalf("PutBlob() error = %v", err)
	}
	original[0] = 'X'

	data, err := b.GetBlob(BlobObject, "k")
	if err != nil {
		t.Fatalf("GetBlob() error = %v", err)
	}
	if string(data) != "original" {
		t.Errorf("GetBlob() = %q, want unaffected by caller mutation of its input slice", data)
	}
}
