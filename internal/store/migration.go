package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/marcoallegretti/karapace/internal/errs"
)

// MigrationResult summarizes a successful migration.
type MigrationResult struct {
	FromVersion           int
	ToVersion             int
	EnvironmentsMigrated  int
	BackupPath            string
}

// Migrate brings a store at root up to FormatVersion. It returns (nil, nil)
// if the store is already current, and fails with ErrVersionMismatch if the
// store reports a newer version than this code understands.
//
// MigrateAt takes the current time explicitly so the backup-file timestamp
// stays deterministic in tests; Migrate wraps it with time.Now().
func Migrate(root string) (*MigrationResult, error) {
	return MigrateAt(root, time.Now().UTC())
}

func MigrateAt(root string, now time.Time) (*MigrationResult, error) {
	storeDir := filepath.Join(root, "store")
	versionPath := filepath.Join(storeDir, versionFile)

	data, err := os.ReadFile(versionPath)
	if err != nil {
		return nil, errs.Wrap(errs.ErrIO, "reading version file: %w", err)
	}

	var v storeVersion
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errs.Wrap(errs.ErrSerialization, "decoding version file: %w", err)
	}

	if v.FormatVersion == FormatVersion {
		return nil, nil
	}
	if v.FormatVersion > FormatVersion {
		return nil, errs.Wrap(errs.ErrVersionMismatch, "store is format version %d, code expects %d", v.FormatVersion, FormatVersion)
	}

	backupPath := filepath.Join(storeDir, "version.backup."+now.Format("20060102T150405Z"))
	if err := copyFile(versionPath, backupPath); err != nil {
		return nil, errs.Wrap(errs.ErrIO, "backing up version file: %w", err)
	}
	logrus.WithField("backup", backupPath).Info("backed up store version file")

	migrated := 0
	metadataDir := filepath.Join(storeDir, "metadata")
	entries, err := os.ReadDir(metadataDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrIO, "listing metadata for migration: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(metadataDir, e.Name())
		changed, err := migrateMetadataFile(path)
		if err != nil {
			logrus.WithField("file", path).WithError(err).Warn("skipping metadata file during migration")
			continue
		}
		if changed {
			migrated++
		}
	}

	newData, err := json.MarshalIndent(storeVersion{FormatVersion: FormatVersion}, "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.ErrSerialization, "encoding new version file: %w", err)
	}
	if err := atomicWrite(versionPath, newData); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"from":        v.FormatVersion,
		"to":          FormatVersion,
		"environments": migrated,
	}).Info("migrated store")

	return &MigrationResult{
		FromVersion:          v.FormatVersion,
		ToVersion:            FormatVersion,
		EnvironmentsMigrated: migrated,
		BackupPath:           backupPath,
	}, nil
}

// migrateMetadataFile backfills the v2 fields (name, checksum, policy_layer)
// with null when absent. Returns whether the file was rewritten.
func migrateMetadataFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return false, err
	}

	changed := false
	for _, field := range []string{"name", "checksum", "policy_layer"} {
		if _, ok := obj[field]; !ok {
			obj[field] = json.RawMessage("null")
			changed = true
		}
	}
	if !changed {
		return false, nil
	}

	newData, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return false, err
	}
	return true, atomicWrite(path, newData)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
