package capture

import (
	"errors"
	"fmt"
	"sync"
)

// ErrFrameDropped is returned by MockSensor for a nil entry in its sequence.
var ErrFrameDropped = errors.New("frame dropped")

// MockSensor plays back pre-recorded depth frames for testing.
// A nil entry simulates a frame lost upstream.
type MockSensor struct {
	frames  []*DepthFrame
	index   int
	loop    bool
	mu      sync.Mutex
	running bool
	reads   int
}

func NewMockSensor(frames []*DepthFrame, loop bool) *MockSensor {
	return &MockSensor{
		frames: frames,
		loop:   loop,
	}
}

func (s *MockSensor) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.index = 0
	return nil
}

func (s *MockSensor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

func (s *MockSensor) ReadFrame() (*DepthFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSensorNotOpen
	}

	if len(s.frames) == 0 {
		return nil, fmt.Errorf("no frames available")
	}

	if s.index >= len(s.frames) {
		if s.loop {
			s.index = 0
		} else {
			return nil, fmt.Errorf("no more frames")
		}
	}

	f := s.frames[s.index]
	s.index++
	s.reads++

	if f == nil {
		return nil, ErrFrameDropped
	}

	// Copy so the recorded frame isn't modified downstream
	data := make([]uint16, len(f.Data))
	copy(data, f.Data)
	out := *f
	out.Data = data

	return &out, nil
}

func (s *MockSensor) SetFPS(fps int) {}
func (s *MockSensor) FPS() int       { return DefaultFPS }
func (s *MockSensor) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Reads returns how many frames have been requested since creation.
func (s *MockSensor) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// SetFrames replaces the frame sequence
func (s *MockSensor) SetFrames(frames []*DepthFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = frames
	s.index = 0
}

// Reset restarts playback from the beginning
func (s *MockSensor) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = 0
}
