package fortune

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultText is the text callers show when no fortune can be produced.
const DefaultText = "No fortune for you today."

// Sentinel errors
var (
	// ErrDirectoryUnavailable is returned when the fortune directory is missing or unreadable.
	ErrDirectoryUnavailable = errors.New("fortune directory unavailable")

	// ErrEmptySourceSet is returned when no source in the directory has any entry.
	ErrEmptySourceSet = errors.New("no fortune entries available")

	// ErrCorruptSidecar is returned when a sidecar record does not fit its source file.
	ErrCorruptSidecar = errors.New("corrupt sidecar")

	// ErrEntryOutOfRange is returned when an entry index is outside a source's index.
	ErrEntryOutOfRange = errors.New("entry index out of range")

	// ErrNotSource is returned when a sidecar path is passed where a source is expected.
	ErrNotSource = errors.New("not a fortune source")
)

// BuildError collects the per-source failures of a rebuild pass.
// Sources listed here were left out of the result; other sources were not affected.
type BuildError struct {
	Errors []error
}

// Error implements the error interface.
func (be *BuildError) Error() string {
	if len(be.Errors) == 0 {
		return "index build failed"
	}
	if len(be.Errors) == 1 {
		return fmt.Sprintf("index build failed: %v", be.Errors[0])
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "index build failed for %d sources:\n", len(be.Errors))
	for i, err := range be.Errors {
		fmt.Fprintf(&buf, "  %d. %v\n", i+1, err)
	}
	return buf.String()
}

// Unwrap returns the underlying errors for use with errors.Is and errors.As.
func (be *BuildError) Unwrap() []error {
	return be.Errors
}

// newBuildError creates a BuildError from a slice of errors.
// Returns nil if the slice is empty.
func newBuildError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &BuildError{Errors: errs}
}
