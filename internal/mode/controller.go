// Package mode implements the state machine that decides how each incoming
// depth frame is interpreted: ignored, captured as the calibration baseline,
// or run through hit detection.
package mode

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/ayusman/depthkeys/internal/calibration"
	"github.com/ayusman/depthkeys/internal/detector"
	"github.com/ayusman/depthkeys/internal/keys"
)

// Mode is the operating state of the pipeline.
type Mode int

const (
	Idle Mode = iota
	Calibrating
	Detecting
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Calibrating:
		return "calibrating"
	case Detecting:
		return "detecting"
	default:
		return "unknown"
	}
}

var (
	// ErrDetecting is returned when calibration is requested while detecting.
	ErrDetecting = errors.New("cannot calibrate while detecting")
	// ErrCalibrationPending is returned when detection is started before a
	// requested calibration has consumed its frame.
	ErrCalibrationPending = errors.New("calibration pending")
)

// Result describes what happened to one frame.
type Result struct {
	// Mode is the mode the frame was handled in.
	Mode Mode
	// Calibrated is true when the frame became the new baseline.
	Calibrated bool
	// Hits lists the pressed regions, in region order, when Mode is Detecting.
	Hits []keys.Region
}

// Listener is called after each successful transition.
type Listener func(prev, next Mode)

// Controller serialises frames and commands. A command issued while a frame
// is being handled takes effect before the next frame.
type Controller struct {
	mu        sync.Mutex
	mode      Mode
	baseline  *calibration.Store
	regions   *keys.Set
	detector  *detector.Detector
	logger    *slog.Logger
	listeners []Listener
}

// New creates a Controller in Idle mode.
func New(baseline *calibration.Store, regions *keys.Set, det *detector.Detector, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if det == nil {
		det = detector.New(detector.DefaultConfig())
	}
	return &Controller{
		mode:     Idle,
		baseline: baseline,
		regions:  regions,
		detector: det,
		logger:   logger,
	}
}

// AddListener registers fn to be called on every mode transition.
// Listeners run with the controller locked and must not call back into it.
func (c *Controller) AddListener(fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// RequestCalibration arms a one-shot capture of the next frame.
func (c *Controller) RequestCalibration() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case Detecting:
		return ErrDetecting
	case Calibrating:
		return nil
	}
	c.transition(Calibrating)
	return nil
}

// StartDetecting switches to Detecting.
func (c *Controller) StartDetecting() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case Calibrating:
		return ErrCalibrationPending
	case Detecting:
		return nil
	}
	c.transition(Detecting)
	return nil
}

// StopDetecting switches back to Idle. It does nothing in any other mode.
func (c *Controller) StopDetecting() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == Detecting {
		c.transition(Idle)
	}
}

// Toggle starts detection when idle and stops it when detecting.
func (c *Controller) Toggle() (Mode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case Idle:
		c.transition(Detecting)
	case Detecting:
		c.transition(Idle)
	case Calibrating:
		return c.mode, ErrCalibrationPending
	}
	return c.mode, nil
}

// HandleFrame interprets one frame according to the current mode.
// The frame is only read.
func (c *Controller) HandleFrame(frame []uint16) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case Calibrating:
		if err := c.baseline.Capture(frame); err != nil {
			// Stay armed; the next well-formed frame will be captured.
			c.logger.Warn("calibration frame rejected", "error", err)
			return Result{Mode: Calibrating}
		}
		c.transition(Idle)
		return Result{Mode: Calibrating, Calibrated: true}

	case Detecting:
		hits := c.detector.Hits(c.regions.Snapshot(), c.baseline.Snapshot(), frame)
		return Result{Mode: Detecting, Hits: hits}

	default:
		return Result{Mode: Idle}
	}
}

// transition must be called with c.mu held.
func (c *Controller) transition(next Mode) {
	prev := c.mode
	c.mode = next
	c.logger.Debug("mode changed", "from", prev, "to", next)
	for _, fn := range c.listeners {
		fn(prev, next)
	}
}
