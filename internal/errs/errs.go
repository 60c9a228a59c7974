// Package errs defines karapace's closed error taxonomy as sentinel values,
// the Go analogue of the Rust source's single sum type per crate boundary.
// Every fallible call returns one of these sentinels (directly, or wrapped
// via Wrap so errors.Is still matches) or a narrower error convertible into
// one via errors.Join.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrManifest covers parse/validation failures of the declarative input.
	ErrManifest = errors.New("manifest error")

	// ErrLock signals the lock file failed to resolve or no longer matches
	// the manifest it was produced from.
	ErrLock = errors.New("lock file error")

	// ErrStore covers integrity failures, not-found, version mismatch, name
	// conflict, and invalid name within the content-addressable store.
	ErrStore = errors.New("store error")

	// ErrRuntime covers backend unavailability, not-running/already-running,
	// policy violations, exec failures, and missing images.
	ErrRuntime = errors.New("runtime error")

	// ErrInvalidTransition is a lifecycle rejection; use NewInvalidTransition
	// to attach the machine-readable from/to pair.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrEnvNotFound signals an unknown env_id, short_id, or name on lookup.
	ErrEnvNotFound = errors.New("environment not found")

	// ErrIO wraps infrastructure I/O failures.
	ErrIO = errors.New("io error")

	// ErrSerialization wraps JSON/TOML encode-decode failures.
	ErrSerialization = errors.New("serialization error")

	// ErrCancelled signals the shutdown flag was observed mid-operation.
	ErrCancelled = errors.New("operation cancelled")

	// ErrLockFailed signals a non-blocking store-lock acquire found the lock
	// already held.
	ErrLockFailed = errors.New("store lock held by another process")

	// ErrIntegrityFailure signals a content-addressable read whose recomputed
	// hash did not match the filename.
	ErrIntegrityFailure = errors.New("integrity failure")

	// ErrObjectNotFound signals a missing object on a content-addressable read.
	ErrObjectNotFound = errors.New("object not found")

	// ErrNameConflict signals a metadata insert whose name collides with a
	// live record.
	ErrNameConflict = errors.New("name conflict")

	// ErrBackendUnavailable signals a runtime backend whose prerequisites are
	// not satisfied on this host.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrVersionMismatch signals the store's version file does not match the
	// code's expected format version and was not auto-migrated.
	ErrVersionMismatch = errors.New("store version mismatch")

	// ErrRemote covers remote backend I/O, registry lookup misses, and
	// remote config load/save failures.
	ErrRemote = errors.New("remote error")
)

// Wrap joins base with a formatted detail error so that both
// errors.Is(result, base) and the formatted message survive.
func Wrap(base error, format string, args ...any) error {
	return errors.Join(base, fmt.Errorf(format, args...))
}

// WrapErr joins base with err, unless err already satisfies base.
func WrapErr(base error, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, base) {
		return err
	}
	return errors.Join(base, err)
}

// TransitionError is the machine-readable InvalidTransition{from, to} pair
// from spec §4.6/§7. errors.Is(err, ErrInvalidTransition) holds for it.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid lifecycle transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NewInvalidTransition builds the InvalidTransition error joined with the
// ErrInvalidTransition sentinel.
func NewInvalidTransition(from, to string) error {
	return errors.Join(ErrInvalidTransition, &TransitionError{From: from, To: to})
}

// IntegrityError carries the expected vs. actual hash of a corrupted object.
type IntegrityError struct {
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity failure: expected %s, got %s", e.Expected, e.Actual)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrityFailure
}

// NewIntegrityFailure builds an IntegrityError joined with its sentinel.
func NewIntegrityFailure(expected, actual string) error {
	return errors.Join(ErrIntegrityFailure, &IntegrityError{Expected: expected, Actual: actual})
}

// NameConflictError carries the conflicting name and its existing owner.
type NameConflictError struct {
	Name        string
	ExistingEnv string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("name %q already used by environment %s", e.Name, e.ExistingEnv)
}

func (e *NameConflictError) Is(target error) bool {
	return target == ErrNameConflict
}

// NewNameConflict builds a NameConflictError joined with its sentinel.
func NewNameConflict(name, existingEnv string) error {
	return errors.Join(ErrNameConflict, &NameConflictError{Name: name, ExistingEnv: existingEnv})
}
