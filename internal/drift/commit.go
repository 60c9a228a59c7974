package drift

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/store"
	"github.com/marcoallegretti/karapace/internal/types"
)

// Commit packs every regular file under upperDir into the object store,
// groups the resulting hashes into a new User layer with the given parent,
// and truncates upperDir — all under the supplied WAL so a crash mid-commit
// leaves the store either fully pre- or fully post-commit. After Commit,
// Diff(upperDir) returns an empty report.
func Commit(wal *store.WriteAheadLog, objects *store.ObjectStore, layers *store.LayerStore, upperDir string, parent *types.LayerHash) (types.LayerHash, error) {
	var paths []string
	err := filepath.WalkDir(upperDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == upperDir || d.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return "", errs.Wrap(errs.ErrIO, "upper dir %s does not exist: %w", upperDir, err)
		}
		return "", errs.Wrap(errs.ErrIO, "scanning upper dir %s: %w", upperDir, err)
	}
	sort.Strings(paths)

	baseline, err := LoadBaseline(upperDir)
	if err != nil {
		return "", err
	}

	objHashes := make([]types.ObjectHash, 0, len(paths))
	contents := make([][]byte, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errs.Wrap(errs.ErrIO, "reading %s: %w", path, err)
		}
		contents[i] = data
		hash, err := objects.Put(data)
		if err != nil {
			return "", err
		}
		objHashes = append(objHashes, hash)

		rel, err := filepath.Rel(upperDir, path)
		if err != nil {
			return "", err
		}
		baseline[rel] = hash
	}

	layerHash, err := layers.Pack(store.LayerUser, parent, objHashes)
	if err != nil {
		return "", err
	}

	// Every file's content is durably packed into an object by this point,
	// so a RestoreBytes rollback step is enough to undo the truncation that
	// follows: the file's pre-commit bytes are already in hand.
	for i, path := range paths {
		if err := wal.Append(store.NewRestoreBytesStep(path, contents[i])); err != nil {
			return "", err
		}
	}
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return "", errs.Wrap(errs.ErrIO, "truncating upper dir entry %s: %w", path, err)
		}
	}
	if err := wal.Commit(); err != nil {
		return "", err
	}

	// Recorded after the WAL commits: a crash before this point just means
	// the next Diff under-reports Modified as Added for these paths, never
	// the reverse, and Commit itself stays correct either way.
	if err := saveBaseline(upperDir, baseline); err != nil {
		return "", err
	}

	return layerHash, nil
}
