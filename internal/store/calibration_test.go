package store

import (
	"errors"
	"testing"
	"time"
)

func TestEncodeDecodeDepth(t *testing.T) {
	depth := []uint16{0, 1, 500, 4500, 65535}

	buf := encodeDepth(depth)
	if len(buf) != len(depth)*2 {
		t.Fatalf("encoded length = %d, want %d", len(buf), len(depth)*2)
	}
	// 500 = 0x01F4, little-endian
	if buf[4] != 0xF4 || buf[5] != 0x01 {
		t.Errorf("bytes for 500 = %#x %#x", buf[4], buf[5])
	}

	got, err := decodeDepth(buf)
	if err != nil {
		t.Fatalf("decodeDepth() error = %v", err)
	}
	for i := range depth {
		if got[i] != depth[i] {
			t.Errorf("depth[%d] = %d, want %d", i, got[i], depth[i])
		}
	}

	if _, err := decodeDepth([]byte{1, 2, 3}); err == nil {
		t.Error("decodeDepth() should reject odd-length blobs")
	}
}

func TestCalibrationRepository_SaveLatest(t *testing.T) {
	s := newTestStore(t)
	repo := s.Calibrations()

	if _, err := repo.Latest(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest() on empty store error = %v, want ErrNotFound", err)
	}

	first := &Calibration{Width: 2, Height: 2, Depth: []uint16{500, 500, 500, 500}}
	if err := repo.Save(first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if first.ID == 0 {
		t.Error("Save() should set ID")
	}
	if first.CapturedAt.IsZero() {
		t.Error("Save() should set CapturedAt")
	}

	second := &Calibration{
		Width:      2,
		Height:     2,
		Depth:      []uint16{1, 2, 3, 4},
		CapturedAt: time.Now().Add(time.Minute),
	}
	if err := repo.Save(second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	latest, err := repo.Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("Latest().ID = %d, want %d", latest.ID, second.ID)
	}
	if latest.Width != 2 || latest.Height != 2 {
		t.Errorf("Latest() size = %dx%d", latest.Width, latest.Height)
	}
	for i, want := range []uint16{1, 2, 3, 4} {
		if latest.Depth[i] != want {
			t.Errorf("Depth[%d] = %d, want %d", i, latest.Depth[i], want)
		}
	}
}

func TestCalibrationRepository_SaveRejectsSizeMismatch(t *testing.T) {
	s := newTestStore(t)

	err := s.Calibrations().Save(&Calibration{Width: 3, Height: 3, Depth: []uint16{1}})
	if err == nil {
		t.Error("Save() should reject depth of the wrong length")
	}
}

func TestCalibrationRepository_Prune(t *testing.T) {
	s := newTestStore(t)
	repo := s.Calibrations()

	var last int64
	for i := 0; i < 5; i++ {
		c := &Calibration{Width: 1, Height: 1, Depth: []uint16{uint16(i)}}
		if err := repo.Save(c); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		last = c.ID
	}

	removed, err := repo.Prune(2)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 3 {
		t.Errorf("Prune() removed %d, want 3", removed)
	}

	n, err := repo.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}

	latest, _ := repo.Latest()
	if latest.ID != last || latest.Depth[0] != 4 {
		t.Errorf("Prune() removed the newest calibration")
	}
}
