package app

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/depthkeys/internal/capture"
	"github.com/ayusman/depthkeys/internal/keystroke"
	applog "github.com/ayusman/depthkeys/internal/log"
	"github.com/ayusman/depthkeys/internal/mode"
)

// Previewer receives frames that are not being run through detection.
type Previewer interface {
	Show(frame *capture.DepthFrame) error
}

// Stats counts frames seen by a Pipeline.
type Stats struct {
	Frames  uint64 `json:"frames"`
	Dropped uint64 `json:"dropped"`
	Keys    uint64 `json:"keys"`
}

// Pipeline routes each depth frame through the mode controller and passes
// the outcome on: previews while idle or calibrating, key presses while
// detecting. Frames are handled one at a time, in arrival order.
type Pipeline struct {
	mu         sync.Mutex
	controller *mode.Controller
	preview    Previewer
	width      int
	height     int
	logger     *slog.Logger

	sinks        atomic.Pointer[keystroke.Multi]
	onCalibrated atomic.Pointer[func(*capture.DepthFrame)]

	frames  atomic.Uint64
	dropped atomic.Uint64
	keys    atomic.Uint64
}

// NewPipeline creates a Pipeline for frames of width x height. sink and
// preview may be nil.
func NewPipeline(controller *mode.Controller, sink keystroke.Sink, preview Previewer, width, height int, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		controller: controller,
		preview:    preview,
		width:      width,
		height:     height,
		logger:     logger,
	}

	sinks := keystroke.Multi{}
	if sink != nil {
		sinks = append(sinks, sink)
	}
	p.sinks.Store(&sinks)
	return p
}

// AddSink registers another receiver of key presses.
func (p *Pipeline) AddSink(s keystroke.Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := *p.sinks.Load()
	next := make(keystroke.Multi, len(current), len(current)+1)
	copy(next, current)
	next = append(next, s)
	p.sinks.Store(&next)
}

// OnCalibrated sets fn to run after a frame becomes the new baseline.
// fn runs on the frame path and must return quickly.
func (p *Pipeline) OnCalibrated(fn func(frame *capture.DepthFrame)) {
	p.onCalibrated.Store(&fn)
}

// OnFrame processes one frame. Frames that are nil, empty or of the wrong
// size are dropped.
func (p *Pipeline) OnFrame(frame *capture.DepthFrame) {
	if frame.Empty() || len(frame.Data) != p.width*p.height {
		p.dropped.Add(1)
		if frame.Empty() {
			p.logger.Debug("empty frame dropped")
		} else {
			p.logger.Debug("frame dropped", "samples", len(frame.Data), "want", p.width*p.height)
		}
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.frames.Add(1)
	result := p.controller.HandleFrame(frame.Data)

	switch result.Mode {
	case mode.Detecting:
		sinks := *p.sinks.Load()
		for _, r := range result.Hits {
			p.keys.Add(1)
			p.logger.Log(context.Background(), applog.LevelTrace, "key hit", "key", r.Key, "region", r.ID)
			sinks.Send(r.Key)
		}

	default:
		if result.Calibrated {
			p.logger.Info("baseline captured")
			if fn := p.onCalibrated.Load(); fn != nil && *fn != nil {
				(*fn)(frame)
			}
		}
		if p.preview != nil {
			if err := p.preview.Show(frame); err != nil {
				p.logger.Debug("preview failed", "error", err)
			}
		}
	}
}

// Stats returns frame counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Frames:  p.frames.Load(),
		Dropped: p.dropped.Load(),
		Keys:    p.keys.Load(),
	}
}

// runPipeline pulls the latest frame from the sensor at its frame rate until
// stopCh is closed.
func (a *App) runPipeline(sensor capture.Sensor, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	fps := sensor.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := sensor.ReadFrame()
			if err != nil {
				a.logger.Debug("frame read failed", "error", err)
				continue
			}
			a.pipeline.OnFrame(frame)
		}
	}
}
