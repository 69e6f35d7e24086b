package codec

import (
	"image"
	"image/color"
	"testing"
)

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/8+y/8)%2 == 0 {
				img.Set(x, y, color.RGBA{220, 40, 40, 255})
			} else {
				img.Set(x, y, color.RGBA{40, 40, 220, 255})
			}
		}
	}
	return img
}

func TestEncodeDecodeJPEG(t *testing.T) {
	img := createTestImage(64, 48)

	data, err := Encode(img, FormatJPEG, 90)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty buffer")
	}

	decoded, format, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected format jpeg, got %s", format)
	}
	w, h := Dimensions(decoded)
	if w != 64 || h != 48 {
		t.Errorf("expected 64x48, got %dx%d", w, h)
	}
}

func TestEncodePNG(t *testing.T) {
	data, err := Encode(createTestImage(16, 16), FormatPNG, 0)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, format, err := DecodeBytes(data); err != nil || format != "png" {
		t.Errorf("expected png round trip, got format=%s err=%v", format, err)
	}
}

func TestEncodeWebP(t *testing.T) {
	data, err := Encode(createTestImage(32, 32), FormatWebP, 90)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, _, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if w, h := Dimensions(decoded); w != 32 || h != 32 {
		t.Errorf("expected 32x32, got %dx%d", w, h)
	}
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	if _, err := Encode(createTestImage(8, 8), Format("heic"), 90); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestDecodeBytesGarbage(t *testing.T) {
	if _, _, err := DecodeBytes([]byte("not an image")); err == nil {
		t.Error("expected error for non-image data")
	}
}

func TestDownscale(t *testing.T) {
	img := createTestImage(400, 200)

	small := Downscale(img, 100)
	if w, h := Dimensions(small); w != 100 || h != 50 {
		t.Errorf("expected 100x50, got %dx%d", w, h)
	}

	// Already within bounds: returned unchanged.
	same := Downscale(img, 1000)
	if same != img {
		t.Error("expected original image back when no downscale needed")
	}
}

func BenchmarkEncodeJPEG(b *testing.B) {
	img := createTestImage(1920, 1080)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(img, FormatJPEG, 90); err != nil {
			b.Fatal(err)
		}
	}
}
