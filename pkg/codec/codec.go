// Package codec decodes and encodes the opaque image buffers exchanged at
// the subsystem boundary. All variants cross the boundary as encoded bytes;
// pixel data only exists in memory between decode and encode.
package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	// Decoder registration for image.Decode.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Format identifies an output encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// DefaultQuality is the lossy encode quality used when none is configured.
// Crops are re-encoded once, so quality stays high to avoid compounding
// artifacts.
const DefaultQuality = 90

// DecodeBytes decodes an encoded image buffer. Standard decoders are tried
// first, then an explicit WebP decode for buffers the registered decoder
// rejects.
func DecodeBytes(data []byte) (image.Image, string, error) {
	if img, format, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, format, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, "webp", nil
	}
	return nil, "", fmt.Errorf("codec: unknown or unsupported image format")
}

// Encode encodes an image into the given format. Quality applies to lossy
// formats on a 1-100 scale.
func Encode(img image.Image, format Format, quality int) ([]byte, error) {
	if quality <= 0 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	switch Format(strings.ToLower(string(format))) {
	case FormatJPEG, Format("jpg"), Format(""):
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("codec: jpeg encode: %w", err)
		}
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("codec: png encode: %w", err)
		}
	case FormatWebP:
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, fmt.Errorf("codec: webp encode: %w", err)
		}
	default:
		return nil, fmt.Errorf("codec: unsupported output format %q", format)
	}
	return buf.Bytes(), nil
}

// Dimensions returns the pixel width and height of an image.
func Dimensions(img image.Image) (int, int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

// Downscale produces a preview-sized copy whose longest side is at most
// maxDim pixels. The original is returned unchanged when it already fits.
// Preview copies are for display only; extraction always reads the
// full-resolution source.
func Downscale(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}
	w, h := Dimensions(img)
	if w <= maxDim && h <= maxDim {
		return img
	}
	if w >= h {
		return imaging.Resize(img, maxDim, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxDim, imaging.Lanczos)
}
