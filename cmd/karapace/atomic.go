package main

import (
	"os"
	"path/filepath"
)

// writeAtomic writes data to dest via a temp file in the same directory,
// fsync, then rename — so a crash mid-write never leaves a truncated
// karapace.toml behind. Mirrors the original CLI's write_atomic.
func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, ".karapace-tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, dest)
}
