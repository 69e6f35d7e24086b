package capture

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// WebcamDevice opens a local camera through OpenCV's capture API.
type WebcamDevice struct {
	// DeviceID selects the camera (0 is the system default).
	DeviceID int
}

// NewWebcamDevice creates a backend for the given camera id.
func NewWebcamDevice(deviceID int) *WebcamDevice {
	return &WebcamDevice{DeviceID: deviceID}
}

// Open acquires the camera. Resolution constraints are applied through the
// capture properties and verified; a camera that silently ignores the
// requested frame size fails with ErrUnsupportedConstraints so the caller's
// single retry with defaults can proceed.
func (d *WebcamDevice) Open(ctx context.Context, constraints Constraints) (DeviceSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vc, err := gocv.OpenVideoCapture(d.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: camera %d: %v", ErrDeviceNotFound, d.DeviceID, err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, fmt.Errorf("%w: camera %d", ErrDeviceBusy, d.DeviceID)
	}

	if constraints.Width > 0 && constraints.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(constraints.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(constraints.Height))

		gotW := int(vc.Get(gocv.VideoCaptureFrameWidth))
		gotH := int(vc.Get(gocv.VideoCaptureFrameHeight))
		if gotW != constraints.Width || gotH != constraints.Height {
			_ = vc.Close()
			return nil, fmt.Errorf("%w: requested %dx%d, device offers %dx%d",
				ErrUnsupportedConstraints, constraints.Width, constraints.Height, gotW, gotH)
		}
	}

	return &webcamSession{vc: vc}, nil
}

type webcamSession struct {
	vc *gocv.VideoCapture
}

func (s *webcamSession) ReadFrame() (image.Image, error) {
	mat := gocv.NewMat()
	defer mat.Close()

	if ok := s.vc.Read(&mat); !ok || mat.Empty() {
		return nil, fmt.Errorf("webcam: no frame available")
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("webcam: frame conversion: %w", err)
	}
	return img, nil
}

func (s *webcamSession) Close() error {
	return s.vc.Close()
}
