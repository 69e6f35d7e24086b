package capture

import (
	"errors"
	"fmt"
)

// Kind classifies a device-acquisition failure. The subsystem never renders
// UI text; callers map kinds to whatever presentation they need.
type Kind string

const (
	KindPermissionDenied       Kind = "permission-denied"
	KindDeviceNotFound         Kind = "device-not-found"
	KindDeviceBusy             Kind = "device-busy"
	KindUnsupportedConstraints Kind = "unsupported-constraints"
	KindUnsupportedSurface     Kind = "unsupported-surface"
	KindTimeout                Kind = "timeout"
	KindUnknown                Kind = "unknown"
)

// Sentinel errors device backends return so acquisition failures can be
// classified without string matching.
var (
	ErrPermissionDenied       = errors.New("capture: permission denied")
	ErrDeviceNotFound         = errors.New("capture: device not found")
	ErrDeviceBusy             = errors.New("capture: device busy")
	ErrUnsupportedConstraints = errors.New("capture: unsupported constraints")
)

// File/drop validation errors. These are synchronous and local; they never
// touch session state.
var (
	ErrInvalidType = errors.New("capture: not an image file")
	ErrTooLarge    = errors.New("capture: file too large")
)

// ErrSessionNotActive is returned by Capture on a stopped session.
var ErrSessionNotActive = errors.New("capture: session not active")

// Error is a classified device-acquisition failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("capture: %s", e.Kind)
	}
	return fmt.Sprintf("capture: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from an acquisition error, returning
// KindUnknown for anything unclassified.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// classify maps a backend error to its kind.
func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrDeviceNotFound):
		return KindDeviceNotFound
	case errors.Is(err, ErrDeviceBusy):
		return KindDeviceBusy
	case errors.Is(err, ErrUnsupportedConstraints):
		return KindUnsupportedConstraints
	default:
		return KindUnknown
	}
}
