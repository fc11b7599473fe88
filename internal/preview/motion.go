package preview

import (
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/depthkeys/internal/capture"
)

const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21).
	GaussianBlurSize = 21
	// DiffThreshold is the gray-level change that counts a pixel as moved.
	DiffThreshold = 25
	// DefaultMotionThreshold is the percentage of moved pixels that makes a
	// frame worth re-encoding.
	DefaultMotionThreshold = 0.5
)

// MotionDetector tells whether a depth frame differs enough from the
// previous one to be worth showing. It blurs a scaled grayscale rendering of
// each frame and counts pixels whose level changed by more than
// DiffThreshold.
type MotionDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector creates a new MotionDetector with the given threshold,
// the percentage of pixels that must change to detect motion.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Gray scales each reliable sample of the frame linearly into 1..255.
// Unreliable samples are 0.
func Gray(frame *capture.DepthFrame) []byte {
	pix := make([]byte, len(frame.Data))
	lo, hi := int(frame.MinReliable), int(frame.MaxReliable)
	if hi <= lo {
		return pix
	}
	for i, depth := range frame.Data {
		d := int(depth)
		if d < lo || d > hi {
			continue
		}
		pix[i] = byte(1 + (d-lo)*254/(hi-lo))
	}
	return pix
}

// Detect compares frame with the previous frame and returns whether motion
// was detected and the percentage of pixels that changed. The first frame
// after construction or Reset only becomes the reference.
func (m *MotionDetector) Detect(frame *capture.DepthFrame) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame.Empty() {
		return false, 0
	}

	gray, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC1, Gray(frame))
	if err != nil {
		return false, 0
	}
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized || m.prevGray.Rows() != blurred.Rows() || m.prevGray.Cols() != blurred.Cols() {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	changePercent := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0

	blurred.CopyTo(&m.prevGray)
	return changePercent > m.threshold, changePercent
}

// Reset forgets the reference frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases resources used by the motion detector.
func (m *MotionDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
	return nil
}

func (m *MotionDetector) release() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// SetThreshold sets the motion detection threshold.
// Values less than or equal to 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Threshold returns the motion detection threshold.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}
