package preview

import (
	"testing"

	"github.com/ayusman/depthkeys/internal/capture"
)

func depthFrame(value uint16) *capture.DepthFrame {
	data := make([]uint16, 64*48)
	for i := range data {
		data[i] = value
	}
	return &capture.DepthFrame{
		Data:        data,
		Width:       64,
		Height:      48,
		MinReliable: capture.DefaultMinReliable,
		MaxReliable: capture.DefaultMaxReliable,
	}
}

func TestNewMotionDetector(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	if md.Threshold() != 1.0 {
		t.Errorf("threshold = %f, want 1.0", md.Threshold())
	}
	if md.initialized {
		t.Error("motion detector should not be initialized initially")
	}
}

func TestMotionDetector_NoMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	detected, changePercent := md.Detect(depthFrame(800))
	if detected || changePercent != 0 {
		t.Errorf("first frame = %v, %f; want false, 0", detected, changePercent)
	}

	detected, changePercent = md.Detect(depthFrame(800))
	if detected {
		t.Errorf("identical frames should not detect motion, changePercent = %f", changePercent)
	}
}

func TestMotionDetector_WithMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	md.Detect(depthFrame(capture.DefaultMinReliable))
	detected, changePercent := md.Detect(depthFrame(capture.DefaultMaxReliable))
	if !detected {
		t.Errorf("near to far should detect motion, changePercent = %f", changePercent)
	}
	if changePercent < 50.0 {
		t.Errorf("changePercent = %f, expected > 50%%", changePercent)
	}
}

func TestMotionDetector_SizeChangeResets(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	md.Detect(depthFrame(800))

	small := &capture.DepthFrame{Data: make([]uint16, 8*8), Width: 8, Height: 8, MinReliable: 500, MaxReliable: 4500}
	if detected, _ := md.Detect(small); detected {
		t.Error("a frame of a new size should become the reference")
	}
}

func TestMotionDetector_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	md.Detect(depthFrame(800))
	if !md.initialized {
		t.Error("detector should be initialized after first Detect")
	}

	md.Reset()
	if md.initialized {
		t.Error("detector should not be initialized after Reset")
	}
	if !md.prevGray.Empty() {
		t.Error("prevGray should be empty after Reset")
	}
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5.0)
	if md.Threshold() != 5.0 {
		t.Errorf("threshold = %f, want 5.0", md.Threshold())
	}

	md.SetThreshold(-1.0)
	if md.Threshold() != 5.0 {
		t.Errorf("negative threshold should be ignored, got %f", md.Threshold())
	}
}

func TestMotionDetector_IgnoresEmptyFrames(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	if detected, _ := md.Detect(nil); detected {
		t.Error("nil frame should not detect motion")
	}
	if md.initialized {
		t.Error("nil frame should not become the reference")
	}
}

func TestMotionDetector_Close_Multiple(t *testing.T) {
	md := NewMotionDetector(1.0)
	md.Close()
	md.Close()
}
