// Package capture provides depth sensor capture using GoCV (OpenCV).
package capture

// Kinect v2 depth stream defaults.
const (
	DefaultWidth       = 512
	DefaultHeight      = 424
	DefaultFPS         = 30
	DefaultMinReliable = 500
	DefaultMaxReliable = 4500
)

// DepthFrame is one depth snapshot: one distance sample per pixel, row-major.
type DepthFrame struct {
	Data   []uint16
	Width  int
	Height int

	// MinReliable and MaxReliable bound the distances the sensor reports
	// reliably. They are only used for visualisation.
	MinReliable uint16
	MaxReliable uint16

	Timestamp int64
}

// Empty reports whether the frame carries no usable data.
func (f *DepthFrame) Empty() bool {
	return f == nil || len(f.Data) == 0
}

// At returns the sample at (x, y).
func (f *DepthFrame) At(x, y int) uint16 {
	return f.Data[y*f.Width+x]
}
