// Package variants holds the per-item image state: the acquired original,
// an optional cropped derivative, and an optional externally supplied
// alternative. The display image is resolved by a fixed precedence:
// alternative, then cropped, then source.
package variants

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/curioshelf/imageroi/pkg/geometry"
	"github.com/curioshelf/imageroi/pkg/lifecycle"
)

// ErrNoSource is returned when an item has no acquired source image.
var ErrNoSource = errors.New("variants: item has no source image")

// Origin records how a source image was acquired.
type Origin int

const (
	OriginDevice Origin = iota
	OriginFile
	OriginDrop
)

func (o Origin) String() string {
	switch o {
	case OriginDevice:
		return "device"
	case OriginFile:
		return "file"
	case OriginDrop:
		return "drop"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// SourceImage is an immutable acquired original: decoded pixels plus the
// encoded buffer they came from (or were re-encoded into).
type SourceImage struct {
	Image      image.Image
	Data       []byte
	Width      int
	Height     int
	Origin     Origin
	AcquiredAt time.Time

	res *lifecycle.Resource
}

// CroppedImage is a derivative extracted from a source image, together with
// the source-space rectangle that produced it.
type CroppedImage struct {
	Image      image.Image
	Data       []byte
	Width      int
	Height     int
	SourceRect geometry.Rect

	res *lifecycle.Resource
}

// AlternativeImage is an externally supplied substitute for display and
// persistence. It is independent of crop state.
type AlternativeImage struct {
	Image    image.Image
	Data     []byte
	Width    int
	Height   int
	SourceID string

	res *lifecycle.Resource
}

// Slot identifies which variant slot resolved as current.
type Slot int

const (
	SlotSource Slot = iota
	SlotCropped
	SlotAlternative
)

func (s Slot) String() string {
	switch s {
	case SlotSource:
		return "source"
	case SlotCropped:
		return "cropped"
	case SlotAlternative:
		return "alternative"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// Current is the resolved display image for an item: the opaque encoded
// buffer and pixel dimensions handed to collaborators, plus the slot it
// came from.
type Current struct {
	Image  image.Image
	Data   []byte
	Width  int
	Height int
	Slot   Slot
}

type itemState struct {
	source      *SourceImage
	cropped     *CroppedImage
	alternative *AlternativeImage
}

// Store keeps the variant state for every item on one surface. Entries for
// distinct items are independent; a single mutex guards only the map itself
// and slot swaps.
type Store struct {
	mgr     *lifecycle.Manager
	surface string

	mu    sync.RWMutex
	items map[string]*itemState
}

// NewStore creates a store whose transient buffers are tracked by the given
// lifecycle manager under the given surface.
func NewStore(mgr *lifecycle.Manager, surface string) *Store {
	return &Store{
		mgr:     mgr,
		surface: surface,
		items:   make(map[string]*itemState),
	}
}

// resolveCurrent applies the variant precedence contract:
// alternative > cropped > source. Kept as a named function so the
// resolution order is an explicit, independently testable rule.
func resolveCurrent(st *itemState) (Current, error) {
	switch {
	case st.alternative != nil:
		a := st.alternative
		return Current{Image: a.Image, Data: a.Data, Width: a.Width, Height: a.Height, Slot: SlotAlternative}, nil
	case st.cropped != nil:
		c := st.cropped
		return Current{Image: c.Image, Data: c.Data, Width: c.Width, Height: c.Height, Slot: SlotCropped}, nil
	case st.source != nil:
		s := st.source
		return Current{Image: s.Image, Data: s.Data, Width: s.Width, Height: s.Height, Slot: SlotSource}, nil
	default:
		return Current{}, ErrNoSource
	}
}

// Current returns the resolved display image for the item. It fails with
// ErrNoSource when no source image exists.
func (s *Store) Current(itemID string) (Current, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.items[itemID]
	if !ok || st.source == nil {
		return Current{}, fmt.Errorf("item %q: %w", itemID, ErrNoSource)
	}
	return resolveCurrent(st)
}

// Source returns the item's acquired original.
func (s *Store) Source(itemID string) (*SourceImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.items[itemID]
	if !ok || st.source == nil {
		return nil, fmt.Errorf("item %q: %w", itemID, ErrNoSource)
	}
	return st.source, nil
}

// SetSource stores a newly acquired original, replacing and releasing any
// prior one. Crop and alternative slots are left alone; the caller decides
// whether a re-acquire invalidates them.
func (s *Store) SetSource(itemID string, src *SourceImage) {
	src.res = s.track(src.Data, func() { src.Image = nil; src.Data = nil })

	s.mu.Lock()
	st := s.ensure(itemID)
	prev := st.source
	st.source = src
	s.mu.Unlock()

	if prev != nil {
		prev.release()
	}
}

// SetCropped stores a crop derivative, replacing any prior one.
func (s *Store) SetCropped(itemID string, c *CroppedImage) error {
	s.mu.Lock()
	st, ok := s.items[itemID]
	if !ok || st.source == nil {
		s.mu.Unlock()
		return fmt.Errorf("item %q: %w", itemID, ErrNoSource)
	}
	c.res = s.track(c.Data, func() { c.Image = nil; c.Data = nil })
	prev := st.cropped
	st.cropped = c
	s.mu.Unlock()

	if prev != nil {
		prev.release()
	}
	return nil
}

// SetAlternative stores an externally supplied image. The cropped slot is
// deliberately untouched; alternative and cropped are independent,
// separately resettable slots.
func (s *Store) SetAlternative(itemID string, a *AlternativeImage) error {
	s.mu.Lock()
	st, ok := s.items[itemID]
	if !ok || st.source == nil {
		s.mu.Unlock()
		return fmt.Errorf("item %q: %w", itemID, ErrNoSource)
	}
	a.res = s.track(a.Data, func() { a.Image = nil; a.Data = nil })
	prev := st.alternative
	st.alternative = a
	s.mu.Unlock()

	if prev != nil {
		prev.release()
	}
	return nil
}

// ResetCropped removes the item's crop derivative. Calling it again, or for
// an item without one, is a no-op.
func (s *Store) ResetCropped(itemID string) {
	s.mu.Lock()
	st, ok := s.items[itemID]
	var prev *CroppedImage
	if ok {
		prev = st.cropped
		st.cropped = nil
	}
	s.mu.Unlock()

	if prev != nil {
		prev.release()
	}
}

// ResetAlternative removes the item's alternative image. Idempotent.
func (s *Store) ResetAlternative(itemID string) {
	s.mu.Lock()
	st, ok := s.items[itemID]
	var prev *AlternativeImage
	if ok {
		prev = st.alternative
		st.alternative = nil
	}
	s.mu.Unlock()

	if prev != nil {
		prev.release()
	}
}

// RemoveItem discards all three variants and releases their transient
// buffers.
func (s *Store) RemoveItem(itemID string) {
	s.mu.Lock()
	st, ok := s.items[itemID]
	delete(s.items, itemID)
	s.mu.Unlock()
	if !ok {
		return
	}

	if st.source != nil {
		st.source.release()
	}
	if st.cropped != nil {
		st.cropped.release()
	}
	if st.alternative != nil {
		st.alternative.release()
	}
}

// Items returns the IDs of all items holding a source image.
func (s *Store) Items() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.items))
	for id, st := range s.items {
		if st.source != nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Store) ensure(itemID string) *itemState {
	st, ok := s.items[itemID]
	if !ok {
		st = &itemState{}
		s.items[itemID] = st
	}
	return st
}

func (s *Store) track(data []byte, drop func()) *lifecycle.Resource {
	if s.mgr == nil || data == nil {
		return nil
	}
	return s.mgr.Track(s.surface, "buffer", drop)
}

func (si *SourceImage) release() {
	if si.res != nil {
		si.res.Release()
	}
}

func (c *CroppedImage) release() {
	if c.res != nil {
		c.res.Release()
	}
}

func (a *AlternativeImage) release() {
	if a.res != nil {
		a.res.Release()
	}
}
