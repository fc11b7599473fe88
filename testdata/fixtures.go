// Package testdata provides synthetic depth frames and sample layouts for tests.
package testdata

import (
	"embed"
	"fmt"

	"github.com/ayusman/depthkeys/internal/capture"
)

//go:embed layouts/*
var layoutsFS embed.FS

// BaselineDepth is the distance, in millimetres, of the flat surface used by
// the fixtures.
const BaselineDepth = 500

// LoadLayout returns the raw bytes of a sample layout file.
func LoadLayout(name string) ([]byte, error) {
	data, err := layoutsFS.ReadFile("layouts/" + name)
	if err != nil {
		return nil, fmt.Errorf("load layout %s: %w", name, err)
	}
	return data, nil
}

// Flat returns a frame where every pixel reads depth.
func Flat(width, height int, depth uint16) *capture.DepthFrame {
	data := make([]uint16, width*height)
	for i := range data {
		data[i] = depth
	}
	return &capture.DepthFrame{
		Data:        data,
		Width:       width,
		Height:      height,
		MinReliable: capture.DefaultMinReliable,
		MaxReliable: capture.DefaultMaxReliable,
	}
}

// Surface returns a flat frame of the default sensor size at BaselineDepth.
func Surface() *capture.DepthFrame {
	return Flat(capture.DefaultWidth, capture.DefaultHeight, BaselineDepth)
}

// Poke returns a copy of frame with pixel (x, y) set to depth, as if a
// fingertip hovered there.
func Poke(frame *capture.DepthFrame, x, y int, depth uint16) *capture.DepthFrame {
	out := *frame
	out.Data = make([]uint16, len(frame.Data))
	copy(out.Data, frame.Data)
	out.Data[y*frame.Width+x] = depth
	return &out
}

// Press returns a default-size surface frame with a fingertip at (x, y)
// that is delta millimetres closer than the surface.
func Press(x, y int, delta uint16) *capture.DepthFrame {
	return Poke(Surface(), x, y, BaselineDepth-delta)
}
