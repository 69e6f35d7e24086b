package utils

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestSniffMediaType(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}

	if got := SniffMediaType(buf.Bytes()); got != "image/png" {
		t.Errorf("expected image/png, got %s", got)
	}
	if got := SniffMediaType(nil); got != "" {
		t.Errorf("expected empty type for empty payload, got %s", got)
	}
}

func TestIsImageMediaType(t *testing.T) {
	cases := map[string]bool{
		"image/jpeg":       true,
		"IMAGE/PNG":        true,
		" image/webp ":     true,
		"application/pdf":  false,
		"text/html":        false,
		"":                 false,
	}
	for mt, want := range cases {
		if got := IsImageMediaType(mt); got != want {
			t.Errorf("IsImageMediaType(%q) = %v, want %v", mt, got, want)
		}
	}
}

func TestIsImageFile(t *testing.T) {
	if !IsImageFile("photo.JPG") || !IsImageFile("scan.webp") {
		t.Error("expected image extensions to be recognized")
	}
	if IsImageFile("notes.txt") || IsImageFile("noext") {
		t.Error("expected non-image files to be rejected")
	}
}

func TestFormatFileSize(t *testing.T) {
	cases := map[int64]string{
		512:              "512 B",
		1024:             "1.0 KB",
		10 * 1024 * 1024: "10.0 MB",
	}
	for size, want := range cases {
		if got := FormatFileSize(size); got != want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", size, got, want)
		}
	}
}
