package drift

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/marcoallegretti/karapace/internal/errs"
)

// Export streams a gzip-compressed tarball of upperDir's contents to w, for
// sharing drift outside the store.
func Export(upperDir string, w io.Writer) error {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	err := filepath.WalkDir(upperDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == upperDir {
			return nil
		}
		rel, err := filepath.Rel(upperDir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return errs.Wrap(errs.ErrIO, "exporting upper dir %s: %w", upperDir, err)
	}

	if err := tw.Close(); err != nil {
		return errs.Wrap(errs.ErrIO, "closing tar writer: %w", err)
	}
	if err := gw.Close(); err != nil {
		return errs.Wrap(errs.ErrIO, "closing gzip writer: %w", err)
	}
	return nil
}
