package device

import (
	"errors"
	"fmt"
	"strings"
)

// FailureKind represents the specific kind of link failure.
type FailureKind string

const (
	// AdapterUnavailable means no local radio/adapter could be opened.
	// Fatal for the session; surfaced to the caller, never retried.
	AdapterUnavailable FailureKind = "adapter_unavailable"
	// ConnectFailed means Connect was called with a bad or absent address.
	ConnectFailed FailureKind = "connect_failed"
	// WriteFailed means a descriptor or characteristic write failed.
	WriteFailed FailureKind = "write_failed"
	// NotConnected means an operation requires a live link.
	NotConnected FailureKind = "not_connected"
	// AlreadyConnected means Connect was called while a link exists.
	AlreadyConnected FailureKind = "already_connected"
)

// LinkError represents any link-layer problem.
type LinkError struct {
	Kind FailureKind
	Msg  string
}

// Error implements the error interface.
func (e *LinkError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is allows errors.Is to compare LinkError values by Kind.
func (e *LinkError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*LinkError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Predefined sentinel errors for link failure kinds.
var (
	ErrAdapterUnavailable = &LinkError{Kind: AdapterUnavailable}
	ErrConnectFailed      = &LinkError{Kind: ConnectFailed}
	ErrWriteFailed        = &LinkError{Kind: WriteFailed}
	ErrNotConnected       = &LinkError{Kind: NotConnected}
	ErrAlreadyConnected   = &LinkError{Kind: AlreadyConnected}
)

// NormalizeError maps known go-ble error strings to structured LinkError
// kinds. It keeps handling consistent even if the upstream library changes
// messages slightly. Returns wrapped errors to preserve original context.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case containsIgnoreCase(msg, "can't init hci"),
		containsIgnoreCase(msg, "no such device"),
		containsIgnoreCase(msg, "central manager has invalid state"),
		containsIgnoreCase(msg, "bluetooth is turned off"):
		return fmt.Errorf("%w: %v", ErrAdapterUnavailable, err)
	case containsIgnoreCase(msg, "device not connected"),
		containsIgnoreCase(msg, "not connected"):
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	case containsIgnoreCase(msg, "device already connected"):
		return fmt.Errorf("%w: %v", ErrAlreadyConnected, err)
	default:
		return err
	}
}

// IsFailureKind reports whether err is a LinkError with the given kind.
func IsFailureKind(err error, kind FailureKind) bool {
	var lerr *LinkError
	if errors.As(err, &lerr) {
		return lerr.Kind == kind
	}
	return false
}

// containsIgnoreCase checks the substring case-insensitively.
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
