package imageroi

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/curioshelf/imageroi/pkg/capture"
	"github.com/curioshelf/imageroi/pkg/crop"
	"github.com/curioshelf/imageroi/pkg/selection"
	"github.com/curioshelf/imageroi/pkg/variants"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	return img
}

func testPNG(t *testing.T, w, h int) capture.File {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return capture.File{Name: "test.png", MediaType: "image/png", Data: buf.Bytes()}
}

type stubDevice struct{}

func (d *stubDevice) Open(ctx context.Context, c capture.Constraints) (capture.DeviceSession, error) {
	return &stubSession{}, nil
}

type stubSession struct{}

func (s *stubSession) ReadFrame() (image.Image, error) { return testImage(640, 480), nil }
func (s *stubSession) Close() error                    { return nil }

func TestAcquireCropAndResolve(t *testing.T) {
	roi := New(nil, "inventory-form")
	defer roi.Close()

	src, err := roi.AcceptFileToItem(testPNG(t, 800, 400), "item-1")
	if err != nil {
		t.Fatalf("AcceptFileToItem failed: %v", err)
	}
	if src.Width != 800 || src.Height != 400 {
		t.Fatalf("unexpected source dimensions %dx%d", src.Width, src.Height)
	}

	geo, err := roi.UpdatePreview(300, 200, 800, 400)
	if err != nil {
		t.Fatalf("UpdatePreview failed: %v", err)
	}
	if geo.Scale != 0.5 || geo.OffsetX != -50 || geo.OffsetY != 0 {
		t.Errorf("unexpected geometry: scale=%g offset=(%g,%g)", geo.Scale, geo.OffsetX, geo.OffsetY)
	}

	roi.BeginSelection("item-1")
	if !roi.PointerDown(10, 10) {
		t.Fatal("drag did not start")
	}
	roi.PointerMove(25, 25)
	rect, ok := roi.PointerUp(40, 40)
	if !ok {
		t.Fatal("selection did not commit")
	}
	if rect.X != 10 || rect.Y != 10 || rect.Width != 30 || rect.Height != 30 {
		t.Errorf("unexpected selection rect: %+v", rect)
	}

	if err := roi.ApplySelection("item-1"); err != nil {
		t.Fatalf("ApplySelection failed: %v", err)
	}
	if got := roi.SelectionState(); got != selection.Idle {
		t.Errorf("expected idle after successful crop, got %v", got)
	}

	cur, err := roi.Current("item-1")
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if cur.Slot != variants.SlotCropped {
		t.Errorf("expected cropped slot, got %v", cur.Slot)
	}
	if cur.Width != 60 || cur.Height != 60 {
		t.Errorf("expected 60x60 crop, got %dx%d", cur.Width, cur.Height)
	}
}

func TestApplySelectionRequiresCommit(t *testing.T) {
	roi := New(nil, "form")
	defer roi.Close()

	if _, err := roi.AcceptFileToItem(testPNG(t, 400, 400), "item-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := roi.UpdatePreview(200, 200, 400, 400); err != nil {
		t.Fatal(err)
	}

	roi.BeginSelection("item-1")
	roi.PointerDown(10, 10)
	// A 9x9 drag is discarded at pointer-up, so nothing is committed.
	if _, ok := roi.PointerUp(19, 19); ok {
		t.Fatal("undersized drag should not commit")
	}
	if err := roi.ApplySelection("item-1"); err == nil {
		t.Error("expected error without a committed selection")
	}
	if got := roi.SelectionState(); got != selection.Armed {
		t.Errorf("expected armed after discarded drag, got %v", got)
	}
}

func TestApplySelectionRecoverableRearms(t *testing.T) {
	roi := NewWithConfig(nil, "form", Config{
		Crop: crop.Config{MinSelection: 50},
	})
	defer roi.Close()

	if _, err := roi.AcceptFileToItem(testPNG(t, 400, 400), "item-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := roi.UpdatePreview(200, 200, 400, 400); err != nil {
		t.Fatal(err)
	}

	roi.BeginSelection("item-1")
	roi.PointerDown(10, 10)
	if _, ok := roi.PointerUp(40, 40); !ok {
		t.Fatal("selection did not commit")
	}

	err := roi.ApplySelection("item-1")
	if !crop.Recoverable(err) {
		t.Fatalf("expected recoverable crop error, got %v", err)
	}
	if got := roi.SelectionState(); got != selection.Armed {
		t.Errorf("expected selector re-armed, got %v", got)
	}
	cur, err := roi.Current("item-1")
	if err != nil {
		t.Fatal(err)
	}
	if cur.Slot != variants.SlotSource {
		t.Errorf("failed crop must not alter variants, got slot %v", cur.Slot)
	}
}

func TestApplySelectionWrongItem(t *testing.T) {
	roi := New(nil, "form")
	defer roi.Close()

	if _, err := roi.AcceptFileToItem(testPNG(t, 400, 400), "item-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := roi.UpdatePreview(200, 200, 400, 400); err != nil {
		t.Fatal(err)
	}

	roi.BeginSelection("item-1")
	roi.PointerDown(10, 10)
	roi.PointerUp(60, 60)

	if err := roi.ApplySelection("item-2"); err == nil {
		t.Error("expected error applying another item's selection")
	}
}

func TestAlternativePrecedenceThroughFacade(t *testing.T) {
	roi := New(nil, "form")
	defer roi.Close()

	if _, err := roi.AcceptFileToItem(testPNG(t, 400, 400), "item-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := roi.UpdatePreview(200, 200, 400, 400); err != nil {
		t.Fatal(err)
	}

	roi.BeginSelection("item-1")
	roi.PointerDown(10, 10)
	roi.PointerUp(60, 60)
	if err := roi.ApplySelection("item-1"); err != nil {
		t.Fatal(err)
	}

	alt := &variants.AlternativeImage{
		Image: testImage(100, 100), Data: []byte("alt"), Width: 100, Height: 100, SourceID: "web-7",
	}
	if err := roi.SetAlternative("item-1", alt); err != nil {
		t.Fatal(err)
	}

	cur, err := roi.Current("item-1")
	if err != nil {
		t.Fatal(err)
	}
	if cur.Slot != variants.SlotAlternative {
		t.Fatalf("expected alternative slot, got %v", cur.Slot)
	}

	roi.ResetAlternative("item-1")
	cur, _ = roi.Current("item-1")
	if cur.Slot != variants.SlotCropped {
		t.Errorf("expected cropped after alternative reset, got %v", cur.Slot)
	}

	roi.ResetCropped("item-1")
	cur, _ = roi.Current("item-1")
	if cur.Slot != variants.SlotSource {
		t.Errorf("expected source after crop reset, got %v", cur.Slot)
	}
}

func TestCaptureToItem(t *testing.T) {
	roi := New(&stubDevice{}, "form")
	defer roi.Close()

	session, err := roi.StartCapture(context.Background())
	if err != nil {
		t.Fatalf("StartCapture failed: %v", err)
	}
	src, err := roi.CaptureToItem(session, "item-1")
	if err != nil {
		t.Fatalf("CaptureToItem failed: %v", err)
	}
	if src.Width != 640 || src.Height != 480 {
		t.Errorf("unexpected frame size %dx%d", src.Width, src.Height)
	}
	if src.Origin != variants.OriginDevice {
		t.Errorf("expected device origin, got %v", src.Origin)
	}
	roi.StopCapture(session)

	if _, err := roi.Current("item-1"); err != nil {
		t.Errorf("captured frame not stored: %v", err)
	}
}

func TestRemoveItemCancelsSelection(t *testing.T) {
	roi := New(nil, "form")
	defer roi.Close()

	if _, err := roi.AcceptFileToItem(testPNG(t, 400, 400), "item-1"); err != nil {
		t.Fatal(err)
	}
	roi.BeginSelection("item-1")

	roi.RemoveItem("item-1")
	if got := roi.SelectionState(); got != selection.Idle {
		t.Errorf("expected idle after item removal, got %v", got)
	}
	if _, err := roi.Current("item-1"); err == nil {
		t.Error("expected no source after removal")
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	roi := New(&stubDevice{}, "form")

	if _, err := roi.AcceptFileToItem(testPNG(t, 400, 400), "item-1"); err != nil {
		t.Fatal(err)
	}
	session, err := roi.StartCapture(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := roi.CaptureToItem(session, "item-2"); err != nil {
		t.Fatal(err)
	}

	if roi.Outstanding() == 0 {
		t.Fatal("expected tracked resources before close")
	}
	if err := roi.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := roi.Outstanding(); got != 0 {
		t.Errorf("expected 0 outstanding resources, got %d", got)
	}
	if err := roi.Close(); err != nil {
		t.Errorf("second close must be a no-op, got %v", err)
	}
}
