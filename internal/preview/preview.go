// Package preview renders depth frames as grayscale JPEG images for the
// live camera view shown while the keyboard is not detecting.
package preview

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/depthkeys/internal/capture"
)

// Intensity maps each depth sample to one gray byte. Samples outside the
// frame's reliable range are black; the rest keep their low byte, which
// renders distance as repeating bands.
func Intensity(frame *capture.DepthFrame) []byte {
	pix := make([]byte, len(frame.Data))
	for i, depth := range frame.Data {
		if depth >= frame.MinReliable && depth <= frame.MaxReliable {
			pix[i] = byte(depth)
		}
	}
	return pix
}

type motionGate interface {
	Detect(frame *capture.DepthFrame) (bool, float64)
	Close() error
}

// Preview keeps the most recent frame encoded as JPEG.
type Preview struct {
	mu      sync.RWMutex
	jpeg    []byte
	seq     uint64
	encoder func(*capture.DepthFrame) ([]byte, error)
	motion  motionGate
}

// New creates a Preview that encodes every shown frame with OpenCV.
func New() *Preview {
	return &Preview{encoder: EncodeJPEG}
}

// NewWithMotion creates a Preview that only re-encodes when more than
// threshold percent of the scene changed. A threshold of 0 or less disables
// the check.
func NewWithMotion(threshold float64) *Preview {
	p := New()
	if threshold > 0 {
		p.motion = NewMotionDetector(threshold)
	}
	return p
}

// Show encodes frame and makes it the latest image. With motion detection
// enabled, a frame too similar to the previous one keeps the current image.
func (p *Preview) Show(frame *capture.DepthFrame) error {
	if frame.Empty() {
		return nil
	}

	if p.motion != nil {
		moved, _ := p.motion.Detect(frame)
		p.mu.RLock()
		have := p.jpeg != nil
		p.mu.RUnlock()
		if !moved && have {
			return nil
		}
	}

	buf, err := p.encoder(frame)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.jpeg = buf
	p.seq++
	p.mu.Unlock()
	return nil
}

// Close releases the motion detector, if any.
func (p *Preview) Close() error {
	if p.motion != nil {
		return p.motion.Close()
	}
	return nil
}

// Latest returns the most recent JPEG and whether one exists.
func (p *Preview) Latest() ([]byte, bool) {
	img, _, ok := p.LatestSeq()
	return img, ok
}

// LatestSeq returns the most recent JPEG with its sequence number, which
// increases by one for each shown frame.
func (p *Preview) LatestSeq() ([]byte, uint64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jpeg, p.seq, p.jpeg != nil
}

// EncodeJPEG renders the frame's intensity image as JPEG.
func EncodeJPEG(frame *capture.DepthFrame) ([]byte, error) {
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC1, Intensity(frame))
	if err != nil {
		return nil, fmt.Errorf("build preview mat: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
