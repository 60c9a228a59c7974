package store

import (
	"os"
	"path/filepath"

	"github.com/marcoallegretti/karapace/internal/errs"
)

// atomicWrite implements the store's no-partial-write invariant: write to a
// temp file in dir, fsync the file, rename to the final name, fsync the
// directory. The caller supplies the final path; the temp file lives
// alongside it so the rename stays within one filesystem.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errs.Wrap(errs.ErrIO, "creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed away

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errs.Wrap(errs.ErrIO, "writing temp file %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errs.Wrap(errs.ErrIO, "fsyncing temp file %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(errs.ErrIO, "closing temp file %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errs.Wrap(errs.ErrIO, "renaming %s to %s: %w", tmpName, path, err)
	}
	return fsyncDir(dir)
}

// fsyncDir fsyncs a directory so a prior rename within it is durable.
func fsyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return errs.Wrap(errs.ErrIO, "opening dir %s for fsync: %w", dir, err)
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		return errs.Wrap(errs.ErrIO, "fsyncing dir %s: %w", dir, err)
	}
	return nil
}
