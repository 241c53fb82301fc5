// Package procerr defines the processor's error taxonomy: transient-db,
// missing-data, config-invalid, and shutdown.
package procerr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Callers match with errors.Is; Wrap attaches context while
// keeping the sentinel reachable through errors.Unwrap.
var (
	// ErrTransientDB marks a query failure, or an empty result where startup
	// requires a non-empty one (max approved date, max user id).
	ErrTransientDB = errors.New("transient database error")

	// ErrMissingData marks a beatmap absent from the cache after a targeted
	// load was attempted.
	ErrMissingData = errors.New("missing data")

	// ErrConfigInvalid marks an unrecognized mode or malformed config value.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrShutdown marks a cooperative stop requested via the shutdown flag.
	ErrShutdown = errors.New("shutdown requested")
)

// Wrap attaches msg to kind so the result still satisfies errors.Is(err, kind).
func Wrap(kind error, msg string) error {
	return fmt.Errorf("%s: %w", msg, kind)
}

// Wrapf is Wrap with formatting.
func Wrapf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}

// IsFatal reports whether err should terminate the process rather than be
// logged and skipped. Transient-db and config-invalid errors are fatal;
// missing-data and shutdown are not.
func IsFatal(err error) bool {
	return errors.Is(err, ErrTransientDB) || errors.Is(err, ErrConfigInvalid)
}
