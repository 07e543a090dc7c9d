// Package capture owns the capture device lifecycle for one scan session:
// acquire, preview-ready, single-frame grab, guaranteed release.
package capture

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Device yields a single still frame on demand. Implementations must be
// safe to Close more than once.
type Device interface {
	// Open acquires the device exclusively.
	Open(ctx context.Context) error
	// WaitReady blocks until the device can produce a frame.
	WaitReady(ctx context.Context) error
	// Grab captures one still frame.
	Grab(ctx context.Context) (image.Image, error)
	// Close releases the device.
	Close() error
}

// Session drives one scan over a device. The device is held exclusively
// from Start until Close; Close runs on every exit path, so a second
// session can always acquire the device afterwards.
type Session struct {
	dev     Device
	quality int

	mu     sync.Mutex
	opened bool
	closed bool
}

// NewSession wraps a device for one scan. quality is the JPEG encode
// quality; values outside 1..100 fall back to 95.
func NewSession(dev Device, quality int) *Session {
	if quality < 1 || quality > 100 {
		quality = 95
	}
	return &Session{dev: dev, quality: quality}
}

// Start acquires the device and waits for it to become ready. On failure
// the device is released before returning.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return eris.New("capture: session already closed")
	}
	if s.opened {
		return eris.New("capture: session already started")
	}

	if err := s.dev.Open(ctx); err != nil {
		return eris.Wrap(err, "capture: open device")
	}
	s.opened = true

	if err := s.dev.WaitReady(ctx); err != nil {
		s.releaseLocked()
		return eris.Wrap(err, "capture: device not ready")
	}
	return nil
}

// Capture grabs one frame and encodes it as an uploadable JPEG blob.
func (s *Session) Capture(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	if !s.opened || s.closed {
		s.mu.Unlock()
		return nil, eris.New("capture: session not started")
	}
	s.mu.Unlock()

	frame, err := s.dev.Grab(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "capture: grab frame")
	}

	return EncodeJPEG(frame, s.quality)
}

// Close releases the device. It is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked()
}

func (s *Session) releaseLocked() error {
	if s.closed || !s.opened {
		s.closed = true
		return nil
	}
	s.closed = true
	if err := s.dev.Close(); err != nil {
		zap.L().Warn("capture: device release failed", zap.Error(err))
		return eris.Wrap(err, "capture: release device")
	}
	return nil
}

// EncodeJPEG converts a frame to a JPEG blob.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, eris.Wrap(err, "capture: encode jpeg")
	}
	return buf.Bytes(), nil
}
