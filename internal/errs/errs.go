// Package errs defines the error taxonomy shared across the tiling core.
// Lookup failures are sentinels so callers can branch with errors.Is;
// accessibility and window-server failures carry structured context.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by operations invoked before the
	// manager has completed its startup sequence.
	ErrNotInitialized = errors.New("tiling manager not initialized")

	// ErrWorkspaceNotFound is returned for lookups of unknown workspace names.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrWindowNotFound is returned for lookups of untracked window IDs.
	ErrWindowNotFound = errors.New("window not found")

	// ErrScreenNotFound is returned when a workspace's assigned screen is
	// absent from the current screen enumeration.
	ErrScreenNotFound = errors.New("screen not found")

	// ErrAnimationCancelled is returned when an animation pass is superseded
	// by a newer layout before converging.
	ErrAnimationCancelled = errors.New("animation cancelled")
)

// AccessibilityError wraps an error code reported by the OS accessibility
// subsystem for a failed element operation.
type AccessibilityError struct {
	Code    int
	Message string
}

func (e *AccessibilityError) Error() string {
	return fmt.Sprintf("accessibility error %d: %s", e.Code, e.Message)
}

// IsPermissionDenied reports whether the error indicates the process lacks
// the accessibility permission. Fatal at initialization, recoverable later.
func (e *AccessibilityError) IsPermissionDenied() bool {
	return e.Code == CodeNotAuthorized
}

// Accessibility error codes surfaced by the window-server bridge.
const (
	CodeNotAuthorized     = -25204
	CodeInvalidElement    = -25202
	CodeCannotComplete    = -25205
	CodeAttributeNotFound = -25200
)

// WindowOperationError reports a failed geometry or focus operation on a
// specific window. The window is untracked by the caller; the relayout
// pass continues.
type WindowOperationError struct {
	WindowID uint32
	Reason   string
	Err      error
}

func (e *WindowOperationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("window %d: %s: %v", e.WindowID, e.Reason, e.Err)
	}
	return fmt.Sprintf("window %d: %s", e.WindowID, e.Reason)
}

func (e *WindowOperationError) Unwrap() error {
	return e.Err
}

// ObserverError reports a failed notification subscription for a process.
type ObserverError struct {
	PID    int32
	Reason string
}

func (e *ObserverError) Error() string {
	return fmt.Sprintf("observer registration for pid %d failed: %s", e.PID, e.Reason)
}
