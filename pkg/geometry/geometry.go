package geometry

import (
	"fmt"
	"image"
	"math"
)

// Rect is an axis-aligned rectangle in a single coordinate space.
// Width and height are always non-negative.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// FromPoints builds the normalized bounding box of two corner points.
func FromPoints(x0, y0, x1, y1 float64) Rect {
	return Rect{
		X:      math.Min(x0, x1),
		Y:      math.Min(y0, y1),
		Width:  math.Abs(x1 - x0),
		Height: math.Abs(y1 - y0),
	}
}

// ImageRect converts the rect to an image.Rectangle, rounding outward
// coordinates to the nearest pixel.
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.X+r.Width)),
		int(math.Round(r.Y+r.Height)),
	)
}

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Geometry describes how an image with natural pixel dimensions is laid out
// inside a preview container using a covering fit: one axis is scaled to
// match the container exactly and the overflow on the other axis is centered,
// which may produce a negative offset.
type Geometry struct {
	DisplayWidth  float64
	DisplayHeight float64
	NaturalWidth  float64
	NaturalHeight float64
	OffsetX       float64
	OffsetY       float64
	Scale         float64
}

// Compute resolves the covering-fit mapping between a container box and an
// image's natural dimensions. It must be re-run whenever either changes;
// natural dimensions can become known asynchronously after the image is
// requested.
func Compute(containerW, containerH, naturalW, naturalH float64) (Geometry, error) {
	if containerW <= 0 || containerH <= 0 {
		return Geometry{}, fmt.Errorf("invalid container dimensions %gx%g", containerW, containerH)
	}
	if naturalW <= 0 || naturalH <= 0 {
		return Geometry{}, fmt.Errorf("invalid natural dimensions %gx%g", naturalW, naturalH)
	}

	containerRatio := containerW / containerH
	imageRatio := naturalW / naturalH

	g := Geometry{NaturalWidth: naturalW, NaturalHeight: naturalH}
	if containerRatio > imageRatio {
		// Wider container: match widths, center the vertical overflow.
		g.Scale = containerW / naturalW
		g.DisplayWidth = containerW
		g.DisplayHeight = naturalH * g.Scale
		g.OffsetY = (containerH - g.DisplayHeight) / 2
	} else {
		// Taller (or equal) container: match heights, center horizontally.
		g.Scale = containerH / naturalH
		g.DisplayHeight = containerH
		g.DisplayWidth = naturalW * g.Scale
		g.OffsetX = (containerW - g.DisplayWidth) / 2
	}
	return g, nil
}

// SourceRect maps a preview-space rect into source-space and clamps it into
// [0, naturalWidth) x [0, naturalHeight). The returned rect may be empty if
// the selection lies entirely in a letterboxed margin.
func (g Geometry) SourceRect(r Rect) Rect {
	sx := (r.X - g.OffsetX) / g.Scale
	sy := (r.Y - g.OffsetY) / g.Scale
	sw := r.Width / g.Scale
	sh := r.Height / g.Scale

	x0 := clamp(sx, 0, g.NaturalWidth)
	y0 := clamp(sy, 0, g.NaturalHeight)
	x1 := clamp(sx+sw, 0, g.NaturalWidth)
	y1 := clamp(sy+sh, 0, g.NaturalHeight)

	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// PreviewRect is the inverse of SourceRect for rects already inside the
// source bounds. Useful for overlaying a stored source-space crop back onto
// the preview.
func (g Geometry) PreviewRect(r Rect) Rect {
	return Rect{
		X:      r.X*g.Scale + g.OffsetX,
		Y:      r.Y*g.Scale + g.OffsetY,
		Width:  r.Width * g.Scale,
		Height: r.Height * g.Scale,
	}
}

// ClampToContainer clamps a preview-space rect into the container box
// implied by the geometry.
func (g Geometry) ClampToContainer(r Rect, containerW, containerH float64) Rect {
	x0 := clamp(r.X, 0, containerW)
	y0 := clamp(r.Y, 0, containerH)
	x1 := clamp(r.X+r.Width, 0, containerW)
	y1 := clamp(r.Y+r.Height, 0, containerH)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
