package calibration

import (
	"errors"
	"slices"
	"sync"
	"testing"
)

func TestNew_ZeroBaseline(t *testing.T) {
	s := New(4, 3)

	snap := s.Snapshot()
	if len(snap) != 12 {
		t.Fatalf("len(Snapshot()) = %d, want 12", len(snap))
	}
	for i, v := range snap {
		if v != 0 {
			t.Fatalf("Snapshot()[%d] = %d, want 0", i, v)
		}
	}
	if s.Calibrated() {
		t.Error("new store should not be calibrated")
	}
	if w, h := s.Size(); w != 4 || h != 3 {
		t.Errorf("Size() = %dx%d, want 4x3", w, h)
	}
}

func TestCapture_CopiesFrame(t *testing.T) {
	s := New(2, 2)
	frame := []uint16{500, 501, 502, 503}

	if err := s.Capture(frame); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	// Mutating the source must not leak into the baseline.
	frame[0] = 1

	if got := s.Snapshot(); !slices.Equal(got, []uint16{500, 501, 502, 503}) {
		t.Errorf("Snapshot() = %v", got)
	}
	if !s.Calibrated() {
		t.Error("store should be calibrated after Capture")
	}
}

func TestCapture_Idempotent(t *testing.T) {
	once := New(2, 2)
	twice := New(2, 2)
	frame := []uint16{7, 8, 9, 10}

	once.Capture(frame)
	twice.Capture(frame)
	twice.Capture(frame)

	if !slices.Equal(once.Snapshot(), twice.Snapshot()) {
		t.Errorf("baselines differ: %v vs %v", once.Snapshot(), twice.Snapshot())
	}
}

func TestCapture_ReplacesCompletely(t *testing.T) {
	s := New(2, 1)
	s.Capture([]uint16{100, 200})
	s.Capture([]uint16{300, 0})

	if got := s.Snapshot(); !slices.Equal(got, []uint16{300, 0}) {
		t.Errorf("Snapshot() = %v, want [300 0]", got)
	}
}

func TestCapture_SizeMismatch(t *testing.T) {
	s := New(2, 2)
	s.Capture([]uint16{1, 2, 3, 4})

	err := s.Capture([]uint16{1, 2, 3})
	if !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("Capture() error = %v, want ErrSizeMismatch", err)
	}
	if got := s.Snapshot(); !slices.Equal(got, []uint16{1, 2, 3, 4}) {
		t.Errorf("baseline changed after rejected capture: %v", got)
	}
}

func TestReset(t *testing.T) {
	s := New(2, 1)
	s.Capture([]uint16{5, 6})
	s.Reset()

	if got := s.Snapshot(); !slices.Equal(got, []uint16{0, 0}) {
		t.Errorf("Snapshot() after Reset = %v", got)
	}
	if s.Calibrated() {
		t.Error("store should not be calibrated after Reset")
	}
}

func TestSnapshot_StableAcrossCapture(t *testing.T) {
	s := New(1, 2)
	s.Capture([]uint16{10, 10})
	snap := s.Snapshot()

	s.Capture([]uint16{20, 20})

	if !slices.Equal(snap, []uint16{10, 10}) {
		t.Errorf("old snapshot changed: %v", snap)
	}
}

func TestCapture_ConcurrentReaders(t *testing.T) {
	const n = 64
	s := New(n, 1)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for v := uint16(1); v <= 200; v++ {
			frame := make([]uint16, n)
			for i := range frame {
				frame[i] = v
			}
			s.Capture(frame)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snap := s.Snapshot()
			for _, v := range snap {
				if v != snap[0] {
					t.Errorf("torn baseline: %v", snap)
					return
				}
			}
		}
	}()
	wg.Wait()
}
