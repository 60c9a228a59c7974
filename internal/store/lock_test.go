package store

import "testing"

func TestStoreLockMutualExclusion(t *testing.T) {
	dir := t.TempDir()
	layout := NewLayout(dir)
	if err := layout.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	holder := NewStoreLock(layout)
	if err := holder.Acquire(); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	contender := NewStoreLock(layout)
	ok, err := contender.TryAcquire()
	if err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}
	if ok {
		t.Error("TryAcquire() succeeded while the lock was held elsewhere")
	}

	if err := holder.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	ok, err = contender.TryAcquire()
	if err != nil {
		t.Fatalf("TryAcquire() after release error = %v", err)
	}
	if !ok {
		t.Error("TryAcquire() failed after the lock was released")
	}
	_ = contender.Release()
}
