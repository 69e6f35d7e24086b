// Package imageroi provides image acquisition and region-of-interest
// extraction for inventory items.
//
// It combines a capture source (camera, screen, file selection, drag and
// drop), a preview geometry resolver, a drag-selection state machine, a
// crop engine that always extracts from the full-resolution original, and
// a per-item variant store with a fixed display precedence of
// alternative, then cropped, then source.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//		"os"
//
//		"github.com/curioshelf/imageroi"
//		"github.com/curioshelf/imageroi/pkg/capture"
//	)
//
//	func main() {
//		// One acquirer per capture surface.
//		roi := imageroi.New(capture.NewWebcamDevice(0), "inventory-form")
//		defer roi.Close()
//
//		// Acquire a source image from the camera.
//		session, err := roi.StartCapture(context.Background())
//		if err != nil {
//			log.Fatal(err)
//		}
//		src, err := roi.CaptureToItem(session, "item-42")
//		if err != nil {
//			log.Fatal(err)
//		}
//		roi.StopCapture(session)
//
//		// Map the preview container onto the image.
//		geo, err := roi.UpdatePreview(300, 200, float64(src.Width), float64(src.Height))
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("preview scale %.2f\n", geo.Scale)
//
//		// Drag out a region and commit the crop.
//		roi.BeginSelection("item-42")
//		roi.PointerDown(10, 10)
//		roi.PointerMove(40, 40)
//		roi.PointerUp(40, 40)
//		if err := roi.ApplySelection("item-42"); err != nil {
//			log.Fatal(err)
//		}
//
//		// The resolved display image is the crop.
//		cur, err := roi.Current("item-42")
//		if err != nil {
//			log.Fatal(err)
//		}
//		os.WriteFile("item-42.jpg", cur.Data, 0644)
//	}
//
// The package consists of five main components:
//
// 1. Capture (pkg/capture): Device sessions, file and drop acquisition
// 2. Geometry (pkg/geometry): Covering-fit preview mapping and coordinate transforms
// 3. Selection (pkg/selection): The drag-to-select gesture state machine
// 4. Crop (pkg/crop): Region extraction from the full-resolution source
// 5. Variants (pkg/variants): Per-item source/cropped/alternative state
//
// All transient buffers and device handles are tracked by a lifecycle
// manager (pkg/lifecycle) keyed to the surface, so Close releases
// everything exactly once.
package imageroi

import (
	"context"
	"fmt"

	"github.com/curioshelf/imageroi/pkg/capture"
	"github.com/curioshelf/imageroi/pkg/crop"
	"github.com/curioshelf/imageroi/pkg/geometry"
	"github.com/curioshelf/imageroi/pkg/lifecycle"
	"github.com/curioshelf/imageroi/pkg/selection"
	"github.com/curioshelf/imageroi/pkg/variants"
)

// Version of the image ROI library
const Version = "1.0.0"

// Config bundles the component configurations for a custom acquirer.
type Config struct {
	Capture      capture.Config
	Crop         crop.Config
	MinSelection float64
	// Hooks scopes global pointer listeners to the drag. May be nil when
	// the caller routes pointer events itself.
	Hooks selection.PointerHooks
}

// ImageROI is the per-surface facade wiring capture, geometry, selection,
// cropping and variant storage together. Construct one per capture surface;
// it holds no global state.
type ImageROI struct {
	surface  string
	mgr      *lifecycle.Manager
	source   *capture.Source
	selector *selection.Selector
	engine   *crop.Engine
	store    *variants.Store

	geo    geometry.Geometry
	hasGeo bool
}

// New creates an ImageROI for a surface with default configuration. device
// may be nil when only file and drop acquisition are used.
func New(device capture.Device, surfaceID string) *ImageROI {
	return NewWithConfig(device, surfaceID, Config{})
}

// NewWithConfig creates an ImageROI with custom component configuration.
// Zero fields fall back to defaults.
func NewWithConfig(device capture.Device, surfaceID string, config Config) *ImageROI {
	mgr := lifecycle.NewManager()
	return &ImageROI{
		surface:  surfaceID,
		mgr:      mgr,
		source:   capture.NewWithConfig(device, mgr, config.Capture),
		selector: selection.NewSelector(config.MinSelection, config.Hooks),
		engine:   crop.NewWithConfig(config.Crop),
		store:    variants.NewStore(mgr, surfaceID),
	}
}

// Surface returns the capture surface this acquirer serves.
func (r *ImageROI) Surface() string { return r.surface }

// UpdatePreview recomputes the covering-fit geometry for the container and
// image dimensions and rebinds the selector to the new preview box. Call it
// whenever the container resizes or a new source image arrives.
func (r *ImageROI) UpdatePreview(containerW, containerH, naturalW, naturalH float64) (geometry.Geometry, error) {
	geo, err := geometry.Compute(containerW, containerH, naturalW, naturalH)
	if err != nil {
		return geometry.Geometry{}, err
	}
	r.geo = geo
	r.hasGeo = true
	r.selector.SetBounds(containerW, containerH)
	return geo, nil
}

// Geometry returns the current preview geometry, if one has been computed.
func (r *ImageROI) Geometry() (geometry.Geometry, bool) {
	return r.geo, r.hasGeo
}

// StartCapture opens a device session for this surface, replacing any
// prior one.
func (r *ImageROI) StartCapture(ctx context.Context) (*capture.Session, error) {
	return r.source.Start(ctx, r.surface)
}

// StopCapture releases the session's device handle. Idempotent.
func (r *ImageROI) StopCapture(session *capture.Session) {
	r.source.Stop(session)
}

// SetVisible reacts to surface visibility. Hiding stops the capture
// session; showing again does not restart it.
func (r *ImageROI) SetVisible(visible bool) {
	r.source.SetVisible(r.surface, visible)
}

// CaptureToItem snapshots the live session and stores the frame as the
// item's source image.
func (r *ImageROI) CaptureToItem(session *capture.Session, itemID string) (*variants.SourceImage, error) {
	src, err := r.source.Capture(session)
	if err != nil {
		return nil, err
	}
	r.store.SetSource(itemID, src)
	return src, nil
}

// AcceptFileToItem validates a selected file and stores it as the item's
// source image.
func (r *ImageROI) AcceptFileToItem(file capture.File, itemID string) (*variants.SourceImage, error) {
	src, err := r.source.AcceptFile(file)
	if err != nil {
		return nil, err
	}
	r.store.SetSource(itemID, src)
	return src, nil
}

// AcceptDropToItem validates the first file of a drop payload and stores it
// as the item's source image.
func (r *ImageROI) AcceptDropToItem(payload capture.DropPayload, itemID string) (*variants.SourceImage, error) {
	src, err := r.source.AcceptDrop(payload)
	if err != nil {
		return nil, err
	}
	r.store.SetSource(itemID, src)
	return src, nil
}

// BeginSelection arms the selector for an item, cancelling any in-progress
// selection for another item.
func (r *ImageROI) BeginSelection(itemID string) {
	r.selector.Begin(itemID)
}

// PointerDown forwards a press to the selector and reports whether a drag
// began.
func (r *ImageROI) PointerDown(x, y float64) bool {
	return r.selector.PointerDown(x, y)
}

// PointerMove forwards a move to the selector.
func (r *ImageROI) PointerMove(x, y float64) {
	r.selector.PointerMove(x, y)
}

// PointerUp forwards a release to the selector. A committed rectangle is
// returned when the drag meets the minimum size.
func (r *ImageROI) PointerUp(x, y float64) (geometry.Rect, bool) {
	return r.selector.PointerUp(x, y)
}

// CancelSelection discards any in-progress selection.
func (r *ImageROI) CancelSelection() {
	r.selector.Cancel()
}

// SelectionState returns the selector's gesture state.
func (r *ImageROI) SelectionState() selection.State {
	return r.selector.State()
}

// ApplySelection crops the item's source image to the committed selection
// and stores the result as the item's crop variant. On a recoverable
// failure (too small, out of bounds) the selector stays armed so the user
// can adjust; on success the selection is consumed and the selector
// returns to idle.
func (r *ImageROI) ApplySelection(itemID string) error {
	if r.selector.Item() != itemID {
		return fmt.Errorf("imageroi: selection targets item %q, not %q", r.selector.Item(), itemID)
	}
	rect, ok := r.selector.Rect()
	if !ok || r.selector.State() != selection.Committed {
		return fmt.Errorf("imageroi: no committed selection for item %q", itemID)
	}
	if !r.hasGeo {
		return fmt.Errorf("imageroi: no preview geometry computed")
	}

	src, err := r.store.Source(itemID)
	if err != nil {
		return err
	}

	cropped, err := r.engine.Apply(rect, r.geo, src)
	if err != nil {
		if crop.Recoverable(err) {
			r.selector.Rearm()
		}
		return err
	}

	if err := r.store.SetCropped(itemID, cropped); err != nil {
		return err
	}
	r.selector.Cancel()
	return nil
}

// SetAlternative stores an externally supplied image for the item. It takes
// display precedence over any crop but leaves the crop slot intact.
func (r *ImageROI) SetAlternative(itemID string, alt *variants.AlternativeImage) error {
	return r.store.SetAlternative(itemID, alt)
}

// ResetCropped removes the item's crop variant. Idempotent.
func (r *ImageROI) ResetCropped(itemID string) {
	r.store.ResetCropped(itemID)
}

// ResetAlternative removes the item's alternative image. Idempotent.
func (r *ImageROI) ResetAlternative(itemID string) {
	r.store.ResetAlternative(itemID)
}

// Current returns the item's resolved display image by the precedence
// alternative, then cropped, then source.
func (r *ImageROI) Current(itemID string) (variants.Current, error) {
	return r.store.Current(itemID)
}

// Source returns the item's acquired original.
func (r *ImageROI) Source(itemID string) (*variants.SourceImage, error) {
	return r.store.Source(itemID)
}

// Items returns the IDs of all items holding a source image.
func (r *ImageROI) Items() []string {
	return r.store.Items()
}

// RemoveItem discards the item's variants and releases their buffers. A
// selection targeting the item is cancelled.
func (r *ImageROI) RemoveItem(itemID string) {
	if r.selector.Item() == itemID {
		r.selector.Cancel()
	}
	r.store.RemoveItem(itemID)
}

// Outstanding returns the number of live tracked resources, useful for
// leak checks in tests and teardown assertions.
func (r *ImageROI) Outstanding() int {
	return r.mgr.Outstanding()
}

// Close stops any capture session and releases every resource tracked for
// the surface. Safe to call more than once.
func (r *ImageROI) Close() error {
	r.selector.Cancel()
	r.source.StopSurface(r.surface)
	r.mgr.ReleaseSurface(r.surface)
	return nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
