package variants

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/curioshelf/imageroi/pkg/geometry"
	"github.com/curioshelf/imageroi/pkg/lifecycle"
)

func newTestStore() (*Store, *lifecycle.Manager) {
	mgr := lifecycle.NewManager()
	return NewStore(mgr, "editor"), mgr
}

func testSource(w, h int) *SourceImage {
	return &SourceImage{
		Image:      image.NewRGBA(image.Rect(0, 0, w, h)),
		Data:       []byte{0xff, 0xd8, 0xff},
		Width:      w,
		Height:     h,
		Origin:     OriginFile,
		AcquiredAt: time.Now(),
	}
}

func TestCurrentNoSource(t *testing.T) {
	s, _ := newTestStore()

	if _, err := s.Current("missing"); !errors.Is(err, ErrNoSource) {
		t.Errorf("expected ErrNoSource, got %v", err)
	}
}

func TestPrecedence(t *testing.T) {
	s, _ := newTestStore()
	s.SetSource("item1", testSource(800, 400))
	if err := s.SetCropped("item1", &CroppedImage{Data: []byte{1}, Width: 60, Height: 60, SourceRect: geometry.Rect{X: 120, Y: 20, Width: 60, Height: 60}}); err != nil {
		t.Fatalf("SetCropped failed: %v", err)
	}
	if err := s.SetAlternative("item1", &AlternativeImage{Data: []byte{2}, Width: 500, Height: 500, SourceID: "https://example.com/alt.jpg"}); err != nil {
		t.Fatalf("SetAlternative failed: %v", err)
	}

	// All three populated: alternative wins.
	cur, err := s.Current("item1")
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if cur.Slot != SlotAlternative {
		t.Errorf("expected alternative, got %s", cur.Slot)
	}

	// Remove the alternative: cropped wins.
	s.ResetAlternative("item1")
	cur, _ = s.Current("item1")
	if cur.Slot != SlotCropped {
		t.Errorf("expected cropped, got %s", cur.Slot)
	}

	// Remove the crop: the source remains.
	s.ResetCropped("item1")
	cur, _ = s.Current("item1")
	if cur.Slot != SlotSource {
		t.Errorf("expected source, got %s", cur.Slot)
	}
	if cur.Width != 800 || cur.Height != 400 {
		t.Errorf("expected 800x400, got %dx%d", cur.Width, cur.Height)
	}
}

func TestAlternativeDoesNotClearCropped(t *testing.T) {
	s, _ := newTestStore()
	s.SetSource("item1", testSource(100, 100))
	if err := s.SetCropped("item1", &CroppedImage{Data: []byte{1}, Width: 10, Height: 10}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetAlternative("item1", &AlternativeImage{Data: []byte{2}, Width: 20, Height: 20}); err != nil {
		t.Fatal(err)
	}

	// The slots are independent: dropping the alternative reveals the crop
	// set before it.
	s.ResetAlternative("item1")
	cur, err := s.Current("item1")
	if err != nil {
		t.Fatal(err)
	}
	if cur.Slot != SlotCropped {
		t.Errorf("expected cropped after alternative reset, got %s", cur.Slot)
	}
}

func TestResetIdempotent(t *testing.T) {
	s, _ := newTestStore()
	s.SetSource("item1", testSource(100, 100))
	if err := s.SetCropped("item1", &CroppedImage{Data: []byte{1}, Width: 10, Height: 10}); err != nil {
		t.Fatal(err)
	}

	s.ResetCropped("item1")
	s.ResetCropped("item1") // second call is a no-op

	cur, err := s.Current("item1")
	if err != nil {
		t.Fatal(err)
	}
	if cur.Slot != SlotSource {
		t.Errorf("expected source, got %s", cur.Slot)
	}

	// Resetting an unknown item must not fail either.
	s.ResetCropped("missing")
	s.ResetAlternative("missing")
}

func TestSetCroppedRequiresSource(t *testing.T) {
	s, _ := newTestStore()
	if err := s.SetCropped("item1", &CroppedImage{Data: []byte{1}}); !errors.Is(err, ErrNoSource) {
		t.Errorf("expected ErrNoSource, got %v", err)
	}
	if err := s.SetAlternative("item1", &AlternativeImage{Data: []byte{1}}); !errors.Is(err, ErrNoSource) {
		t.Errorf("expected ErrNoSource, got %v", err)
	}
}

func TestRemoveItemReleasesBuffers(t *testing.T) {
	s, mgr := newTestStore()
	s.SetSource("item1", testSource(100, 100))
	if err := s.SetCropped("item1", &CroppedImage{Data: []byte{1}, Width: 10, Height: 10}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetAlternative("item1", &AlternativeImage{Data: []byte{2}, Width: 20, Height: 20}); err != nil {
		t.Fatal(err)
	}

	if mgr.Outstanding() != 3 {
		t.Fatalf("expected 3 tracked buffers, got %d", mgr.Outstanding())
	}

	s.RemoveItem("item1")

	if mgr.Outstanding() != 0 {
		t.Errorf("expected all buffers released, %d outstanding", mgr.Outstanding())
	}
	if _, err := s.Current("item1"); !errors.Is(err, ErrNoSource) {
		t.Errorf("expected ErrNoSource after removal, got %v", err)
	}

	// Removing twice is safe.
	s.RemoveItem("item1")
}

func TestReplaceSourceReleasesPrior(t *testing.T) {
	s, mgr := newTestStore()

	first := testSource(100, 100)
	s.SetSource("item1", first)
	s.SetSource("item1", testSource(200, 200))

	if mgr.Outstanding() != 1 {
		t.Errorf("expected 1 tracked buffer after replacement, got %d", mgr.Outstanding())
	}
	if first.Data != nil {
		t.Error("expected replaced source buffer to be dropped")
	}

	cur, err := s.Current("item1")
	if err != nil {
		t.Fatal(err)
	}
	if cur.Width != 200 {
		t.Errorf("expected replacement source, got width %d", cur.Width)
	}
}

func TestItemsIndependent(t *testing.T) {
	s, _ := newTestStore()
	s.SetSource("a", testSource(10, 10))
	s.SetSource("b", testSource(20, 20))

	s.RemoveItem("a")

	if _, err := s.Current("b"); err != nil {
		t.Errorf("removing item a must not affect item b: %v", err)
	}
	if got := s.Items(); len(got) != 1 || got[0] != "b" {
		t.Errorf("expected [b], got %v", got)
	}
}

func TestOriginString(t *testing.T) {
	if OriginDevice.String() != "device" || OriginFile.String() != "file" || OriginDrop.String() != "drop" {
		t.Error("unexpected origin labels")
	}
}
