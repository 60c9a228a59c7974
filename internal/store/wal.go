package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marcoallegretti/karapace/internal/errs"
)

// RollbackStepKind distinguishes the three ways a WAL step can undo partial
// work.
type RollbackStepKind string

const (
	RollbackRemoveObject  RollbackStepKind = "remove_object"
	RollbackRemoveFile    RollbackStepKind = "remove_file"
	RollbackRestoreBytes  RollbackStepKind = "restore_bytes"
)

// RollbackStep describes how to undo one piece of a multi-file mutation.
// Path is the file every kind acts on; Hash records the object's hash for
// RemoveObject and is not used during replay; Prior carries the file's pre-mutation contents for
// RestoreBytes (nil means the file did not exist beforehand, so rollback
// removes it instead of restoring empty content).
type RollbackStep struct {
	Kind  RollbackStepKind `json:"kind"`
	Path  string           `json:"path,omitempty"`
	Hash  string           `json:"hash,omitempty"`
	Prior []byte           `json:"prior,omitempty"`
}

// NewRemoveObjectStep builds a RemoveObject step for the object at path
// (the caller resolves path via the layout, e.g. objects/<hash>).
func NewRemoveObjectStep(hash, path string) RollbackStep {
	return RollbackStep{Kind: RollbackRemoveObject, Hash: hash, Path: path}
}

// NewRemoveFileStep builds a RemoveFile step.
func NewRemoveFileStep(path string) RollbackStep {
	return RollbackStep{Kind: RollbackRemoveFile, Path: path}
}

// NewRestoreBytesStep builds a RestoreBytes step. prior is the file's
// content before the mutation began, or nil if the file did not exist.
func NewRestoreBytesStep(path string, prior []byte) RollbackStep {
	return RollbackStep{Kind: RollbackRestoreBytes, Path: path, Prior: prior}
}

// walRecord is the on-disk representation of one WAL entry: a monotonic id,
// its accumulated steps, and whether it reached its terminal Commit marker.
type walRecord struct {
	ID        int64          `json:"id"`
	Steps     []RollbackStep `json:"steps"`
	Committed bool           `json:"committed"`
}

// WriteAheadLog makes a multi-file mutation (such as a drift commit) crash-safe: the
// intended rollback steps are fsynced to disk before the mutation proceeds,
// and a terminal Commit marker is fsynced after it completes. On restart,
// Recover replays any non-committed record's steps in reverse.
type WriteAheadLog struct {
	dir    string
	record *walRecord
}

// Open begins a new WAL record in dir (the store's staging directory).
func Open(dir string) (*WriteAheadLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrIO, "creating wal dir: %w", err)
	}
	id, err := nextRecordID(dir)
	if err != nil {
		return nil, err
	}
	w := &WriteAheadLog{dir: dir, record: &walRecord{ID: id}}
	if err := w.persist(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *WriteAheadLog) path() string {
	return filepath.Join(w.dir, walFileName(w.record.ID))
}

func walFileName(id int64) string {
	return "wal-" + itoa(id)
}

// Append records a new rollback step and fsyncs it before returning, so a
// crash between Append and the caller's destructive step still leaves
// enough information to undo it.
func (w *WriteAheadLog) Append(step RollbackStep) error {
	w.record.Steps = append(w.record.Steps, step)
	return w.persist()
}

// Commit writes the terminal marker and fsyncs it. Once Commit returns, the
// record is no longer a candidate for crash recovery.
func (w *WriteAheadLog) Commit() error {
	w.record.Committed = true
	if err := w.persist(); err != nil {
		return err
	}
	return os.Remove(w.path())
}

func (w *WriteAheadLog) persist() error {
	data, err := json.Marshal(w.record)
	if err != nil {
		return errs.Wrap(errs.ErrSerialization, "encoding wal record: %w", err)
	}
	return atomicWrite(w.path(), data)
}

// Rollback replays this record's steps in reverse, undoing whatever
// destructive work had started.
func (w *WriteAheadLog) Rollback() error {
	return replaySteps(w.record.Steps)
}

// Recover scans dir for any record that never reached Commit and replays its
// steps in reverse order, restoring the store to its pre-mutation state.
// WAL replay failures are fatal: the caller is left with the diagnostic and
// the un-replayed record still on disk for inspection.
func Recover(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.Wrap(errs.ErrIO, "scanning wal dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "wal-") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return errs.Wrap(errs.ErrIO, "reading wal record %s: %w", name, err)
		}
		var rec walRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return errs.Wrap(errs.ErrSerialization, "decoding wal record %s: %w", name, err)
		}
		if rec.Committed {
			_ = os.Remove(path)
			continue
		}
		if err := replaySteps(rec.Steps); err != nil {
			return errs.Wrap(errs.ErrIO, "replaying wal record %s: %w", name, err)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errs.Wrap(errs.ErrIO, "removing replayed wal record %s: %w", name, err)
		}
	}
	return nil
}

// replaySteps undoes steps in reverse order: the last thing written is the
// first thing undone.
func replaySteps(steps []RollbackStep) error {
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		switch step.Kind {
		case RollbackRemoveObject, RollbackRemoveFile:
			if err := os.Remove(step.Path); err != nil && !os.IsNotExist(err) {
				return err
			}
		case RollbackRestoreBytes:
			if step.Prior == nil {
				if err := os.Remove(step.Path); err != nil && !os.IsNotExist(err) {
					return err
				}
				continue
			}
			if err := atomicWrite(step.Path, step.Prior); err != nil {
				return err
			}
		}
	}
	return nil
}

func nextRecordID(dir string) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errs.Wrap(errs.ErrIO, "scanning wal dir: %w", err)
	}
	var max int64
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "wal-") {
			continue
		}
		if id := atoiSafe(strings.TrimPrefix(e.Name(), "wal-")); id > max {
			max = id
		}
	}
	return max + 1, nil
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func atoiSafe(s string) int64 {
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int64(r-'0')
	}
	return n
}
