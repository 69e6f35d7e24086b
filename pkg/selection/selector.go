// Package selection implements the drag-to-select gesture as an explicit
// state machine: Idle -> Armed -> Dragging -> Committed, with cancellation
// back to Idle from any state. Pointer listener lifecycle is a structural
// property of the Dragging state: hooks attach when it is entered and
// detach on every path out of it.
package selection

import (
	"fmt"
	"sync"

	"github.com/curioshelf/imageroi/pkg/geometry"
)

// MinSelectionSize is the minimum selection width and height, checked in
// preview-space so the on-screen threshold is independent of zoom.
const MinSelectionSize = 10

// State is the gesture state of the selector.
type State int

const (
	Idle State = iota
	Armed
	Dragging
	Committed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Dragging:
		return "dragging"
	case Committed:
		return "committed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PointerHooks scopes global pointer listeners to the Dragging state. The
// surface routes move/up events into the selector while attached; the scope
// must be wider than the preview element so a pointer-up outside the
// preview still ends the gesture.
type PointerHooks interface {
	Attach()
	Detach()
}

// Selector is the single, surface-wide drag-selection state machine.
// Beginning a selection for one item implicitly cancels any in-progress
// selection for another.
type Selector struct {
	minSize float64
	hooks   PointerHooks

	mu       sync.Mutex
	state    State
	itemID   string
	boundsW  float64
	boundsH  float64
	anchorX  float64
	anchorY  float64
	rect     geometry.Rect
	hasRect  bool
	attached bool
}

// NewSelector creates an idle selector. hooks may be nil when the caller
// manages listener routing itself. minSize <= 0 selects MinSelectionSize.
func NewSelector(minSize float64, hooks PointerHooks) *Selector {
	if minSize <= 0 {
		minSize = MinSelectionSize
	}
	return &Selector{minSize: minSize, hooks: hooks}
}

// SetBounds records the preview's rendered box. Selection coordinates are
// clamped into it. Must be refreshed when the preview resizes.
func (s *Selector) SetBounds(w, h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boundsW = w
	s.boundsH = h
}

// State returns the current gesture state.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Item returns the item the selection targets, or "" when idle.
func (s *Selector) Item() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemID
}

// Begin arms the selector for an item. An in-progress selection for a
// different item (or a stale one for the same item) is discarded first.
func (s *Selector) Begin(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exitDraggingLocked()
	s.state = Armed
	s.itemID = itemID
	s.hasRect = false
	s.rect = geometry.Rect{}
}

// PointerDown starts a drag when the selector is armed and the point lies
// inside the preview's rendered box. It reports whether a drag began.
func (s *Selector) PointerDown(x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Armed {
		return false
	}
	if x < 0 || y < 0 || x > s.boundsW || y > s.boundsH {
		return false
	}

	s.state = Dragging
	s.anchorX = x
	s.anchorY = y
	s.rect = geometry.Rect{X: x, Y: y}
	s.hasRect = true
	s.attachLocked()
	return true
}

// PointerMove updates the selection rectangle as the normalized bounding
// box of the anchor and the current pointer position, clamped to the
// preview bounds. Ignored outside the Dragging state.
func (s *Selector) PointerMove(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Dragging {
		return
	}
	s.rect = s.clampLocked(geometry.FromPoints(s.anchorX, s.anchorY, x, y))
}

// PointerUp ends the drag. A rectangle of at least the minimum size on both
// axes commits and is returned; anything smaller returns the selector to
// Armed with no rectangle retained. The pointer position may lie outside
// the preview; it is clamped like any move.
func (s *Selector) PointerUp(x, y float64) (geometry.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Dragging {
		return geometry.Rect{}, false
	}

	s.rect = s.clampLocked(geometry.FromPoints(s.anchorX, s.anchorY, x, y))
	s.detachLocked()

	if s.rect.Width < s.minSize || s.rect.Height < s.minSize {
		s.state = Armed
		s.hasRect = false
		s.rect = geometry.Rect{}
		return geometry.Rect{}, false
	}

	s.state = Committed
	return s.rect, true
}

// Rect returns the selection rectangle. It is only meaningful while the
// selector is Dragging or Committed.
func (s *Selector) Rect() (geometry.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasRect || (s.state != Dragging && s.state != Committed) {
		return geometry.Rect{}, false
	}
	return s.rect, true
}

// Rearm drops a committed rectangle but keeps the selector armed for the
// same item, letting the user adjust after a recoverable crop failure.
func (s *Selector) Rearm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exitDraggingLocked()
	if s.itemID != "" {
		s.state = Armed
	}
	s.hasRect = false
	s.rect = geometry.Rect{}
}

// Cancel discards any in-progress selection and returns to Idle.
func (s *Selector) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exitDraggingLocked()
	s.state = Idle
	s.itemID = ""
	s.hasRect = false
	s.rect = geometry.Rect{}
}

// exitDraggingLocked detaches hooks if a drag is in flight. Every
// transition that can leave Dragging funnels through here or through
// PointerUp so no exit path leaks a listener.
func (s *Selector) exitDraggingLocked() {
	if s.state == Dragging {
		s.detachLocked()
	}
}

func (s *Selector) attachLocked() {
	if s.hooks != nil && !s.attached {
		s.attached = true
		s.hooks.Attach()
	}
}

func (s *Selector) detachLocked() {
	if s.hooks != nil && s.attached {
		s.attached = false
		s.hooks.Detach()
	}
}

func (s *Selector) clampLocked(r geometry.Rect) geometry.Rect {
	x0 := clamp(r.X, 0, s.boundsW)
	y0 := clamp(r.Y, 0, s.boundsH)
	x1 := clamp(r.X+r.Width, 0, s.boundsW)
	y1 := clamp(r.Y+r.Height, 0, s.boundsH)
	return geometry.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
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
