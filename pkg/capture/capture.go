// Package capture acquires source images from a live capture device, a
// selected file, or a dropped file. At most one device session is active
// per capture surface; starting a new one first stops and fully releases
// the prior session, and hiding a surface stops its session proactively.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/curioshelf/imageroi/internal/utils"
	"github.com/curioshelf/imageroi/pkg/codec"
	"github.com/curioshelf/imageroi/pkg/lifecycle"
	"github.com/curioshelf/imageroi/pkg/variants"
)

// Config holds the capture source settings.
type Config struct {
	// StartTimeout bounds device acquisition. If the hardware never signals
	// readiness the start fails with KindTimeout instead of hanging.
	StartTimeout time.Duration

	// MaxFileSize is the largest accepted file/drop payload in bytes.
	MaxFileSize int64

	// Constraints are the preferred acquisition parameters. When the device
	// rejects them, Start retries once with minimal constraints.
	Constraints Constraints

	// Quality is the encode quality for snapshots taken from live frames.
	Quality int
}

// DefaultConfig returns the capture defaults.
func DefaultConfig() Config {
	return Config{
		StartTimeout: 10 * time.Second,
		MaxFileSize:  10 << 20,
		Quality:      codec.DefaultQuality,
	}
}

// File is a selected or dropped file: its declared media type and raw
// encoded bytes. MediaType may be empty, in which case it is sniffed.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// DropPayload is the file list of a drag-and-drop gesture. Only the first
// file is considered.
type DropPayload struct {
	Files []File
}

// Session is the ownership token for an active device handle, bound to one
// capture surface.
type Session struct {
	surface string
	dev     DeviceSession
	res     *lifecycle.Resource

	mu     sync.Mutex
	active bool
}

// Surface returns the capture surface the session belongs to.
func (s *Session) Surface() string { return s.surface }

// Active reports whether the session still owns its device handle.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) deactivate() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// Source acquires images from a device backend and from file payloads. All
// collaborators are passed in at construction; a Source is created once per
// capture surface group and holds no global state.
type Source struct {
	device Device
	mgr    *lifecycle.Manager
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	active map[string]*Session
}

// New creates a Source with default configuration.
func New(device Device, mgr *lifecycle.Manager) *Source {
	return NewWithConfig(device, mgr, DefaultConfig())
}

// NewWithConfig creates a Source with custom configuration. Zero fields
// fall back to defaults.
func NewWithConfig(device Device, mgr *lifecycle.Manager, config Config) *Source {
	def := DefaultConfig()
	if config.StartTimeout <= 0 {
		config.StartTimeout = def.StartTimeout
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = def.MaxFileSize
	}
	if config.Quality <= 0 {
		config.Quality = def.Quality
	}
	return &Source{
		device: device,
		mgr:    mgr,
		config: config,
		logger: slog.Default(),
		active: make(map[string]*Session),
	}
}

// SetLogger replaces the logger used for session lifecycle events.
func (s *Source) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Start opens a device session for the surface. Any prior session on the
// same surface is stopped first and its handle observed released before the
// new acquisition request is issued. Preferred constraints are tried first;
// a constraint rejection triggers exactly one retry with minimal
// constraints. Every failure is returned as a classified *Error.
func (s *Source) Start(ctx context.Context, surfaceID string) (*Session, error) {
	if s.device == nil {
		return nil, &Error{Kind: KindDeviceNotFound, Err: errors.New("no device backend configured")}
	}
	if surfaceID == "" {
		return nil, &Error{Kind: KindUnsupportedSurface, Err: errors.New("empty surface id")}
	}

	s.StopSurface(surfaceID)

	ctx, cancel := context.WithTimeout(ctx, s.config.StartTimeout)
	defer cancel()

	dev, err := s.open(ctx, s.config.Constraints)
	if err != nil && errors.Is(err, ErrUnsupportedConstraints) && !s.config.Constraints.Minimal() {
		s.logger.Debug("preferred constraints rejected, retrying with defaults",
			"surface", surfaceID, "constraints", fmt.Sprintf("%dx%d", s.config.Constraints.Width, s.config.Constraints.Height))
		dev, err = s.open(ctx, Constraints{})
	}
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, &Error{Kind: classify(err), Err: err}
	}

	sess := &Session{surface: surfaceID, dev: dev, active: true}
	sess.res = s.mgr.Track(surfaceID, "device", func() {
		sess.deactivate()
		if cerr := dev.Close(); cerr != nil {
			s.logger.Warn("device close failed", "surface", surfaceID, "error", cerr)
		}
	})

	s.mu.Lock()
	s.active[surfaceID] = sess
	s.mu.Unlock()

	s.logger.Info("capture session started", "surface", surfaceID)
	return sess, nil
}

// open issues the acquisition request, bounded by ctx. A backend that never
// returns is abandoned (and its late session closed) rather than awaited.
func (s *Source) open(ctx context.Context, constraints Constraints) (DeviceSession, error) {
	type result struct {
		dev DeviceSession
		err error
	}
	ch := make(chan result, 1)
	go func() {
		dev, err := s.device.Open(ctx, constraints)
		ch <- result{dev, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.dev != nil {
				_ = r.dev.Close()
			}
		}()
		return nil, &Error{Kind: KindTimeout, Err: ctx.Err()}
	case r := <-ch:
		return r.dev, r.err
	}
}

// Capture takes a snapshot from an active session. The natural dimensions
// come from the live frame.
func (s *Source) Capture(session *Session) (*variants.SourceImage, error) {
	if session == nil || !session.Active() {
		return nil, ErrSessionNotActive
	}

	frame, err := session.dev.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("capture: read frame: %w", err)
	}

	data, err := codec.Encode(frame, codec.FormatJPEG, s.config.Quality)
	if err != nil {
		return nil, fmt.Errorf("capture: encode frame: %w", err)
	}

	w, h := codec.Dimensions(frame)
	return &variants.SourceImage{
		Image:      frame,
		Data:       data,
		Width:      w,
		Height:     h,
		Origin:     variants.OriginDevice,
		AcquiredAt: time.Now(),
	}, nil
}

// AcceptFile validates and decodes a selected file. The declared media type
// must begin with image/ and the payload must fit the configured maximum;
// no partial SourceImage is produced on failure.
func (s *Source) AcceptFile(file File) (*variants.SourceImage, error) {
	return s.accept(file, variants.OriginFile)
}

// AcceptDrop applies file validation to the first file of a drag payload
// and ignores the rest.
func (s *Source) AcceptDrop(payload DropPayload) (*variants.SourceImage, error) {
	if len(payload.Files) == 0 {
		return nil, fmt.Errorf("%w: empty drop payload", ErrInvalidType)
	}
	return s.accept(payload.Files[0], variants.OriginDrop)
}

func (s *Source) accept(file File, origin variants.Origin) (*variants.SourceImage, error) {
	mediaType := file.MediaType
	if mediaType == "" {
		mediaType = utils.SniffMediaType(file.Data)
	}
	if !utils.IsImageMediaType(mediaType) {
		return nil, fmt.Errorf("%w: %q has type %q", ErrInvalidType, file.Name, mediaType)
	}
	if int64(len(file.Data)) > s.config.MaxFileSize {
		return nil, fmt.Errorf("%w: %q is %s (maximum %s)", ErrTooLarge, file.Name,
			utils.FormatFileSize(int64(len(file.Data))), utils.FormatFileSize(s.config.MaxFileSize))
	}

	img, _, err := codec.DecodeBytes(file.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %q does not decode: %v", ErrInvalidType, file.Name, err)
	}

	w, h := codec.Dimensions(img)
	return &variants.SourceImage{
		Image:      img,
		Data:       file.Data,
		Width:      w,
		Height:     h,
		Origin:     origin,
		AcquiredAt: time.Now(),
	}, nil
}

// Stop releases the session's device handle and clears its surface binding.
// Stopping an already-stopped session is a no-op.
func (s *Source) Stop(session *Session) {
	if session == nil {
		return
	}

	s.mu.Lock()
	if s.active[session.surface] == session {
		delete(s.active, session.surface)
	}
	s.mu.Unlock()

	if session.res != nil {
		session.res.Release()
	}
	s.logger.Debug("capture session stopped", "surface", session.surface)
}

// StopSurface stops the active session of a surface, if any.
func (s *Source) StopSurface(surfaceID string) {
	s.mu.Lock()
	sess := s.active[surfaceID]
	s.mu.Unlock()

	if sess != nil {
		s.Stop(sess)
	}
}

// ActiveSession returns the surface's active session, or nil.
func (s *Source) ActiveSession(surfaceID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[surfaceID]
}

// SetVisible reacts to surface visibility. Hiding a surface stops its
// session to release the hardware; becoming visible again does not
// auto-restart capture.
func (s *Source) SetVisible(surfaceID string, visible bool) {
	if visible {
		return
	}
	if sess := s.ActiveSession(surfaceID); sess != nil {
		s.logger.Info("surface hidden, stopping capture session", "surface", surfaceID)
		s.Stop(sess)
	}
}
