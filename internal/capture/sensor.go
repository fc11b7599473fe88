package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

var (
	// ErrSensorNotOpen is returned when trying to read from a sensor that is not open.
	ErrSensorNotOpen = errors.New("depth sensor is not open")
	// ErrNotDepth is returned when the device delivers something other than a 16-bit depth map.
	ErrNotDepth = errors.New("frame is not a 16-bit depth map")
)

// Sensor defines the interface for depth sensor implementations.
type Sensor interface {
	Open() error
	Close() error
	ReadFrame() (*DepthFrame, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// sensorImpl reads depth maps from an OpenNI2 device through GoCV.
type sensorImpl struct {
	deviceID int
	width    int
	height   int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
	fps      int
}

// NewSensor creates a new Sensor for the given OpenNI2 device and resolution.
func NewSensor(deviceID, width, height int) Sensor {
	return &sensorImpl{
		deviceID: deviceID,
		width:    width,
		height:   height,
		fps:      DefaultFPS,
	}
}

// Open opens the depth device.
func (s *sensorImpl) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	capture, err := gocv.OpenVideoCaptureWithAPI(s.deviceID, gocv.VideoCaptureOpenNI2)
	if err != nil {
		return fmt.Errorf("open depth device %d: %w", s.deviceID, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open depth device %d: %w", s.deviceID, ErrSensorNotOpen)
	}

	capture.Set(gocv.VideoCaptureFPS, float64(s.fps))

	s.capture = capture
	s.running = true

	return nil
}

// Close closes the device and releases resources.
func (s *sensorImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		s.running = false
		return nil
	}

	err := s.capture.Close()
	s.capture = nil
	s.running = false

	return err
}

// ReadFrame grabs the next depth map and copies it out of OpenCV memory.
func (s *sensorImpl) ReadFrame() (*DepthFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		return nil, ErrSensorNotOpen
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := s.capture.Read(&mat); !ok {
		return nil, errors.New("failed to read frame from depth sensor")
	}
	if mat.Empty() {
		return nil, errors.New("captured depth frame is empty")
	}

	return matToFrame(mat, s.width, s.height)
}

// matToFrame converts a CV_16UC1 mat into a DepthFrame of the expected size.
func matToFrame(mat gocv.Mat, width, height int) (*DepthFrame, error) {
	if mat.Type() != gocv.MatTypeCV16UC1 {
		return nil, fmt.Errorf("%w: mat type %v", ErrNotDepth, mat.Type())
	}
	if mat.Cols() != width || mat.Rows() != height {
		return nil, fmt.Errorf("depth frame is %dx%d, want %dx%d", mat.Cols(), mat.Rows(), width, height)
	}

	samples, err := mat.DataPtrUint16()
	if err != nil {
		return nil, fmt.Errorf("read depth samples: %w", err)
	}

	data := make([]uint16, len(samples))
	copy(data, samples)

	return &DepthFrame{
		Data:        data,
		Width:       width,
		Height:      height,
		MinReliable: DefaultMinReliable,
		MaxReliable: DefaultMaxReliable,
		Timestamp:   time.Now().UnixMilli(),
	}, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (s *sensorImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fps = fps

	if s.capture != nil {
		s.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (s *sensorImpl) FPS() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fps
}

// IsOpen returns true if the sensor is currently open and running.
func (s *sensorImpl) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}
