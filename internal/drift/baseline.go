package drift

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/types"
)

// Baseline maps an upper-dir-relative path to the object hash Commit packed
// it under the last time it was captured. Diff consults it to tell a
// copy-up of already-committed content apart from a genuinely new file:
// committed once, it stays in the baseline even after Commit truncates
// upper/, since fuse-overlayfs would copy the same lower path up again on
// the next write.
type Baseline map[string]types.ObjectHash

func baselinePath(upperDir string) string {
	return filepath.Join(filepath.Dir(upperDir), "baseline.json")
}

// LoadBaseline reads the baseline recorded alongside upperDir, or an empty
// one if none has been committed yet.
func LoadBaseline(upperDir string) (Baseline, error) {
	data, err := os.ReadFile(baselinePath(upperDir))
	if err != nil {
		if os.IsNotExist(err) {
			return Baseline{}, nil
		}
		return nil, errs.Wrap(errs.ErrIO, "reading baseline for %s: %w", upperDir, err)
	}
	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, errs.Wrap(errs.ErrSerialization, "decoding baseline for %s: %w", upperDir, err)
	}
	return b, nil
}

func saveBaseline(upperDir string, b Baseline) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrSerialization, "encoding baseline for %s: %w", upperDir, err)
	}
	if err := os.WriteFile(baselinePath(upperDir), data, 0o644); err != nil {
		return errs.Wrap(errs.ErrIO, "writing baseline for %s: %w", upperDir, err)
	}
	return nil
}
