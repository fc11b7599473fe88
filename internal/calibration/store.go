// Package calibration holds the baseline depth map of the empty surface.
package calibration

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// ErrSizeMismatch is returned when a frame does not have width*height samples.
var ErrSizeMismatch = errors.New("frame size does not match calibration size")

type baseline struct {
	data       []uint16
	capturedAt time.Time
}

// Store owns the baseline. A capture replaces the whole buffer with a single
// pointer swap, so a reader holding a Snapshot never sees a partial update.
type Store struct {
	width   int
	height  int
	current atomic.Pointer[baseline]
}

// New creates a Store for frames of width x height samples with an all-zero baseline.
func New(width, height int) *Store {
	s := &Store{width: width, height: height}
	s.Reset()
	return s
}

// Capture copies frame into a new baseline, discarding the previous one.
func (s *Store) Capture(frame []uint16) error {
	if len(frame) != s.width*s.height {
		return fmt.Errorf("%w: got %d samples, want %d", ErrSizeMismatch, len(frame), s.width*s.height)
	}

	data := make([]uint16, len(frame))
	copy(data, frame)
	s.current.Store(&baseline{data: data, capturedAt: time.Now()})
	return nil
}

// Reset replaces the baseline with zeros.
func (s *Store) Reset() {
	s.current.Store(&baseline{data: make([]uint16, s.width*s.height)})
}

// Snapshot returns the current baseline. It must be treated as read-only.
func (s *Store) Snapshot() []uint16 {
	return s.current.Load().data
}

// CapturedAt returns when the current baseline was captured, or the zero
// time if it has never been captured since the last Reset.
func (s *Store) CapturedAt() time.Time {
	return s.current.Load().capturedAt
}

// Calibrated reports whether a baseline has been captured.
func (s *Store) Calibrated() bool {
	return !s.CapturedAt().IsZero()
}

// Size returns the frame dimensions this store accepts.
func (s *Store) Size() (width, height int) {
	return s.width, s.height
}
