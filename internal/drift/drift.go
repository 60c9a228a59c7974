// Package drift scans an environment's overlay upper directory — the
// writable top layer fuse-overlayfs writes runtime mutations into — and
// classifies, exports, or commits what has changed since the empty
// baseline.
package drift

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/marcoallegretti/karapace/internal/errs"
)

// ChangeKind classifies one entry found under upper/.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Modified ChangeKind = "modified"
	Deleted  ChangeKind = "deleted"
)

// Change is one classified entry in a DriftReport.
type Change struct {
	Path string     `json:"path"`
	Kind ChangeKind `json:"kind"`
}

// Report is the full classification of an overlay's writable layer.
type Report struct {
	Changes []Change `json:"changes"`
}

// Empty reports whether the overlay has no drift at all.
func (r *Report) Empty() bool { return len(r.Changes) == 0 }

// Diff walks upperDir and classifies each entry as Added, Modified, or
// Deleted. A whiteout is recognized two ways, matching what
// fuse-overlayfs/OverlayFS actually produce: a regular file named
// ".wh.<name>", or a character-device node with device number 0 — both mean
// the corresponding lower-layer path was deleted. A non-whiteout entry is
// Modified if its path is already in the environment's committed Baseline
// (a copy-up of content a prior Commit already captured at that path) and
// Added otherwise.
func Diff(upperDir string) (*Report, error) {
	baseline, err := LoadBaseline(upperDir)
	if err != nil {
		return nil, err
	}

	report := &Report{}

	err = filepath.WalkDir(upperDir, func(path string, d fs.DirEntry, walkErr error) error {
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

		base := filepath.Base(rel)
		if strings.HasPrefix(base, ".wh.") {
			whited := filepath.Join(filepath.Dir(rel), strings.TrimPrefix(base, ".wh."))
			report.Changes = append(report.Changes, Change{Path: whited, Kind: Deleted})
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if isWhiteoutDevice(info) {
			report.Changes = append(report.Changes, Change{Path: rel, Kind: Deleted})
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if _, known := baseline[rel]; known {
			report.Changes = append(report.Changes, Change{Path: rel, Kind: Modified})
			return nil
		}
		report.Changes = append(report.Changes, Change{Path: rel, Kind: Added})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return nil, errs.Wrap(errs.ErrIO, "scanning upper dir %s: %w", upperDir, err)
	}

	sort.Slice(report.Changes, func(i, j int) bool { return report.Changes[i].Path < report.Changes[j].Path })
	return report, nil
}

// isWhiteoutDevice reports whether info describes a character-device node
// with device number 0/0, OverlayFS's encoding of "lower path deleted".
func isWhiteoutDevice(info fs.FileInfo) bool {
	if info.Mode()&fs.ModeCharDevice == 0 {
		return false
	}
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return major(sys.Rdev) == 0 && minor(sys.Rdev) == 0
}

func major(dev uint64) uint64 { return (dev >> 8) & 0xfff }
func minor(dev uint64) uint64 { return dev & 0xff }
