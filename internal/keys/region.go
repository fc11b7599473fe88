// Package keys describes the virtual keys of a projected keyboard as sets of
// pixel offsets into a flattened depth frame.
package keys

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrOutOfBounds is returned when a key rectangle does not fit inside the frame.
	ErrOutOfBounds = errors.New("key rectangle outside frame bounds")
	// ErrEmptyKey is returned when a region has no key identifier.
	ErrEmptyKey = errors.New("key identifier is required")
)

// Rect is an axis-aligned rectangle in frame pixel coordinates.
type Rect struct {
	Left   int `json:"left" yaml:"left" toml:"left"`
	Top    int `json:"top" yaml:"top" toml:"top"`
	Width  int `json:"width" yaml:"width" toml:"width"`
	Height int `json:"height" yaml:"height" toml:"height"`
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

// Region is one virtual key. It is immutable once constructed.
type Region struct {
	ID    string
	Key   string
	Label string
	Rect  Rect

	// Indices are offsets into a width*height depth buffer, row-major.
	Indices []int
}

// NewRegion builds a Region for the given rectangle in a frame of
// frameWidth x frameHeight pixels. Rectangles that do not fit inside the
// frame are rejected with ErrOutOfBounds.
func NewRegion(rect Rect, key string, frameWidth, frameHeight int) (Region, error) {
	if key == "" {
		return Region{}, ErrEmptyKey
	}
	if err := validateRect(rect, frameWidth, frameHeight); err != nil {
		return Region{}, err
	}

	indices := make([]int, 0, rect.Width*rect.Height)
	for y := rect.Top; y < rect.Top+rect.Height; y++ {
		row := y * frameWidth
		for x := rect.Left; x < rect.Left+rect.Width; x++ {
			indices = append(indices, row+x)
		}
	}

	return Region{
		ID:      uuid.New().String(),
		Key:     key,
		Label:   key,
		Rect:    rect,
		Indices: indices,
	}, nil
}

// WithID returns a copy of the region carrying the given ID.
// Used when restoring persisted regions.
func (r Region) WithID(id string) Region {
	r.ID = id
	return r
}

// WithLabel returns a copy of the region carrying the given display label.
// An empty label keeps the current one.
func (r Region) WithLabel(label string) Region {
	if label != "" {
		r.Label = label
	}
	return r
}

func validateRect(rect Rect, frameWidth, frameHeight int) error {
	if frameWidth <= 0 || frameHeight <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrOutOfBounds, frameWidth, frameHeight)
	}
	if rect.Left < 0 || rect.Top < 0 || rect.Width < 0 || rect.Height < 0 {
		return fmt.Errorf("%w: negative rectangle %+v", ErrOutOfBounds, rect)
	}
	if rect.Left+rect.Width > frameWidth || rect.Top+rect.Height > frameHeight {
		return fmt.Errorf("%w: rectangle %+v exceeds %dx%d", ErrOutOfBounds, rect, frameWidth, frameHeight)
	}
	return nil
}
