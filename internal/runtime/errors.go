package runtime

import "github.com/marcoallegretti/karapace/internal/errs"

func unknownBackendError(name string) error {
	return errs.Wrap(errs.ErrRuntime, "unknown runtime backend %q", name)
}
