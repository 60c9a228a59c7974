// Package lifecycle validates environment state transitions against the
// fixed matrix every engine mutation must route through.
package lifecycle

import (
	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/store"
)

// ValidateTransition allows:
//
//	any state          -> Built     (build / rebuild)
//	Built              -> Running   (enter)
//	Built              -> Frozen    (freeze)
//	Built              -> Archived  (archive)
//	Running            -> Frozen
//	Frozen             -> Archived
//
// Every other pair, including Running -> Archived (stop first) and
// Defined/Archived -> Running/Frozen, is rejected.
func ValidateTransition(from, to store.EnvState) error {
	if to == store.StateBuilt {
		return nil
	}
	switch from {
	case store.StateBuilt:
		if to == store.StateRunning || to == store.StateFrozen || to == store.StateArchived {
			return nil
		}
	case store.StateRunning:
		if to == store.StateFrozen {
			return nil
		}
	case store.StateFrozen:
		if to == store.StateArchived {
			return nil
		}
	}
	return errs.NewInvalidTransition(string(from), string(to))
}
