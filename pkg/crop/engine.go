// Package crop extracts a selected region from a full-resolution source
// image. The selection arrives in preview-space; the engine maps it through
// the preview geometry into source-space, clamps it, and crops the original
// pixels so quality is bounded only by the capture resolution, never by the
// preview size.
package crop

import (
	"errors"
	"fmt"

	"github.com/disintegration/imaging"

	"github.com/curioshelf/imageroi/pkg/codec"
	"github.com/curioshelf/imageroi/pkg/geometry"
	"github.com/curioshelf/imageroi/pkg/selection"
	"github.com/curioshelf/imageroi/pkg/variants"
)

var (
	// ErrSelectionTooSmall means the preview-space rectangle is under the
	// minimum size on at least one axis. Recoverable: the caller keeps the
	// selector armed and lets the user adjust.
	ErrSelectionTooSmall = errors.New("crop: selection too small")

	// ErrSelectionOutOfBounds means the transformed rectangle collapsed to
	// zero area after clamping into the source bounds. Also recoverable.
	ErrSelectionOutOfBounds = errors.New("crop: selection out of bounds")
)

// Config holds the crop engine settings.
type Config struct {
	// MinSelection is the minimum selection width/height in preview-space.
	// The check runs before the transform, so the on-screen threshold does
	// not depend on the current scale.
	MinSelection float64

	// Quality is the lossy encode quality (1-100) for the crop output.
	Quality int

	// Format is the output encoding for the crop buffer.
	Format codec.Format
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MinSelection: selection.MinSelectionSize,
		Quality:      codec.DefaultQuality,
		Format:       codec.FormatJPEG,
	}
}

// Engine turns a committed selection into a cropped image variant.
type Engine struct {
	config Config
}

// New creates an Engine with default configuration.
func New() *Engine {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an Engine with custom configuration. Zero fields
// fall back to defaults.
func NewWithConfig(config Config) *Engine {
	def := DefaultConfig()
	if config.MinSelection <= 0 {
		config.MinSelection = def.MinSelection
	}
	if config.Quality <= 0 {
		config.Quality = def.Quality
	}
	if config.Format == "" {
		config.Format = def.Format
	}
	return &Engine{config: config}
}

// Apply maps a preview-space rectangle through the geometry, extracts the
// region from the full-resolution source, and encodes it. On any failure no
// CroppedImage is produced, so the item's prior variant state is never left
// partially updated.
func (e *Engine) Apply(rect geometry.Rect, geo geometry.Geometry, src *variants.SourceImage) (*variants.CroppedImage, error) {
	if src == nil || src.Image == nil {
		return nil, fmt.Errorf("crop: nil source image")
	}
	if rect.Width < e.config.MinSelection || rect.Height < e.config.MinSelection {
		return nil, fmt.Errorf("%w: %gx%g (minimum %g)", ErrSelectionTooSmall, rect.Width, rect.Height, e.config.MinSelection)
	}

	srcRect := geo.SourceRect(rect)
	if srcRect.Empty() {
		return nil, ErrSelectionOutOfBounds
	}

	pixelRect := srcRect.ImageRect().Intersect(src.Image.Bounds())
	if pixelRect.Empty() {
		return nil, ErrSelectionOutOfBounds
	}

	cropped := imaging.Crop(src.Image, pixelRect)

	data, err := codec.Encode(cropped, e.config.Format, e.config.Quality)
	if err != nil {
		return nil, fmt.Errorf("crop: encode failed: %w", err)
	}

	return &variants.CroppedImage{
		Image:      cropped,
		Data:       data,
		Width:      pixelRect.Dx(),
		Height:     pixelRect.Dy(),
		SourceRect: srcRect,
	}, nil
}

// Recoverable reports whether a crop failure should keep the selector
// armed instead of surfacing as a hard error.
func Recoverable(err error) bool {
	return errors.Is(err, ErrSelectionTooSmall) || errors.Is(err, ErrSelectionOutOfBounds)
}
