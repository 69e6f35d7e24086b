package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/vova616/screenshot"
)

// ScreenDevice grabs frames from the active display. Useful for
// photographing items shown in another application window.
type ScreenDevice struct{}

// NewScreenDevice creates a screen-grab backend.
func NewScreenDevice() *ScreenDevice {
	return &ScreenDevice{}
}

// Open verifies the display is reachable. The screen captures at its native
// resolution only, so any resolution constraint is rejected and the
// caller's retry with minimal constraints succeeds.
func (d *ScreenDevice) Open(ctx context.Context, constraints Constraints) (DeviceSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if constraints.Width > 0 || constraints.Height > 0 {
		return nil, fmt.Errorf("%w: screen captures at native resolution only", ErrUnsupportedConstraints)
	}

	rect, err := screenshot.ScreenRect()
	if err != nil {
		return nil, fmt.Errorf("%w: no display: %v", ErrDeviceNotFound, err)
	}
	if rect.Empty() {
		return nil, fmt.Errorf("%w: zero-size display", ErrDeviceNotFound)
	}

	return &screenSession{}, nil
}

type screenSession struct{}

func (s *screenSession) ReadFrame() (image.Image, error) {
	img, err := screenshot.CaptureScreen()
	if err != nil {
		return nil, fmt.Errorf("screen: capture: %w", err)
	}
	return img, nil
}

func (s *screenSession) Close() error { return nil }
