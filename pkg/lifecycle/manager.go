// Package lifecycle tracks transient resources (capture-device handles,
// not-yet-persisted image buffers) and guarantees each is released exactly
// once, including bulk release when a surface is torn down.
package lifecycle

import (
	"fmt"
	"sync"
)

// Resource is an ownership token for one transient resource. Release is
// idempotent; the underlying finalizer runs at most once.
type Resource struct {
	mgr     *Manager
	surface string
	kind    string
	once    sync.Once

	mu       sync.Mutex
	released bool
	finalize func()
}

// Release runs the resource's finalizer. A second call is a safe no-op.
func (r *Resource) Release() {
	r.once.Do(func() {
		r.mu.Lock()
		fn := r.finalize
		r.finalize = nil
		r.released = true
		r.mu.Unlock()

		if fn != nil {
			fn()
		}
		r.mgr.forget(r)
	})
}

// Released reports whether the resource has been released.
func (r *Resource) Released() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

// Surface returns the surface the resource is registered under.
func (r *Resource) Surface() string { return r.surface }

// Kind returns the caller-supplied label ("device", "buffer", ...).
func (r *Resource) Kind() string { return r.kind }

// MustActive panics if the resource has already been released. Using a
// released resource is a programming error under the single-owner contract,
// not a recoverable runtime state.
func (r *Resource) MustActive() {
	if r.Released() {
		panic(fmt.Sprintf("lifecycle: use of released %s resource (surface %q)", r.kind, r.surface))
	}
}

// Manager registers transient resources keyed by the surface that owns them.
// The zero value is not usable; call NewManager.
type Manager struct {
	mu        sync.Mutex
	resources map[*Resource]struct{}
}

// NewManager creates an empty resource manager.
func NewManager() *Manager {
	return &Manager{resources: make(map[*Resource]struct{})}
}

// Track registers a finalizer for a transient resource owned by the given
// surface and returns its ownership token.
func (m *Manager) Track(surface, kind string, finalize func()) *Resource {
	r := &Resource{mgr: m, surface: surface, kind: kind, finalize: finalize}
	m.mu.Lock()
	m.resources[r] = struct{}{}
	m.mu.Unlock()
	return r
}

// ReleaseSurface releases every outstanding resource registered for the
// surface. Resources released beforehand are skipped; none runs twice.
func (m *Manager) ReleaseSurface(surface string) {
	m.mu.Lock()
	var pending []*Resource
	for r := range m.resources {
		if r.surface == surface {
			pending = append(pending, r)
		}
	}
	m.mu.Unlock()

	for _, r := range pending {
		r.Release()
	}
}

// ReleaseAll releases every outstanding resource. Intended for process
// teardown.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	pending := make([]*Resource, 0, len(m.resources))
	for r := range m.resources {
		pending = append(pending, r)
	}
	m.mu.Unlock()

	for _, r := range pending {
		r.Release()
	}
}

// Outstanding returns the number of tracked, not-yet-released resources.
func (m *Manager) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resources)
}

func (m *Manager) forget(r *Resource) {
	m.mu.Lock()
	delete(m.resources, r)
	m.mu.Unlock()
}
