package capture

import (
	"context"
	"image"
)

// Constraints are the preferred acquisition parameters. The zero value asks
// for the device defaults and must be accepted by every backend; it is what
// the one automatic retry falls back to.
type Constraints struct {
	Width  int
	Height int
	Facing string
}

// Minimal reports whether the constraints are the default/minimal set.
func (c Constraints) Minimal() bool {
	return c.Width == 0 && c.Height == 0 && c.Facing == ""
}

// Device opens capture sessions against one piece of hardware. Open must
// honor ctx cancellation where the underlying API allows it and return a
// sentinel error (ErrDeviceNotFound, ErrUnsupportedConstraints, ...) for
// classifiable failures.
type Device interface {
	Open(ctx context.Context, constraints Constraints) (DeviceSession, error)
}

// DeviceSession is an open device handle. Close releases the hardware and
// must be safe to call exactly once; idempotence is layered on top by the
// lifecycle manager.
type DeviceSession interface {
	ReadFrame() (image.Image, error)
	Close() error
}
