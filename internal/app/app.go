// Package app wires the depth keyboard together: sensor, calibration,
// key regions, mode controller, frame pipeline and persistence.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/depthkeys/internal/calibration"
	"github.com/ayusman/depthkeys/internal/capture"
	"github.com/ayusman/depthkeys/internal/detector"
	"github.com/ayusman/depthkeys/internal/keys"
	"github.com/ayusman/depthkeys/internal/keystroke"
	"github.com/ayusman/depthkeys/internal/layout"
	"github.com/ayusman/depthkeys/internal/mode"
	"github.com/ayusman/depthkeys/internal/store"
)

// DefaultKeepCalibrations is how many saved baselines survive pruning.
const DefaultKeepCalibrations = 5

// ErrNoSensor is returned by Start when no sensor is configured.
var ErrNoSensor = errors.New("no depth sensor configured")

// Config holds configuration options for the application.
type Config struct {
	// Store persists regions and baselines. Optional.
	Store *store.Store
	// Sensor supplies frames once Start is called. Optional.
	Sensor capture.Sensor

	Width  int
	Height int

	Detector detector.Config
	Sink     keystroke.Sink
	Preview  Previewer
	Logger   *slog.Logger

	// RestoreCalibration loads the latest saved baseline on Load.
	RestoreCalibration bool
	KeepCalibrations   int
}

// Status is a point-in-time view of the application.
type Status struct {
	Mode         string    `json:"mode"`
	Calibrated   bool      `json:"calibrated"`
	CalibratedAt time.Time `json:"calibratedAt,omitzero"`
	Keys         int       `json:"keys"`
	Running      bool      `json:"running"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Stats        Stats     `json:"stats"`
}

// App is the main application.
type App struct {
	config     Config
	logger     *slog.Logger
	baseline   *calibration.Store
	regions    *keys.Set
	controller *mode.Controller
	pipeline   *Pipeline

	mu      sync.Mutex
	keysMu  sync.Mutex
	stopCh  chan struct{}
	done    chan struct{}
	persist sync.WaitGroup
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.Width <= 0 {
		config.Width = capture.DefaultWidth
	}
	if config.Height <= 0 {
		config.Height = capture.DefaultHeight
	}
	if config.KeepCalibrations <= 0 {
		config.KeepCalibrations = DefaultKeepCalibrations
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Sink == nil {
		config.Sink = keystroke.LogSink{Logger: config.Logger}
	}

	a := &App{
		config:   config,
		logger:   config.Logger,
		baseline: calibration.New(config.Width, config.Height),
		regions:  keys.NewSet(),
	}

	a.controller = mode.New(a.baseline, a.regions, detector.New(config.Detector), config.Logger.With("component", "mode"))
	a.pipeline = NewPipeline(a.controller, config.Sink, config.Preview, config.Width, config.Height, config.Logger.With("component", "pipeline"))
	a.pipeline.OnCalibrated(a.saveCalibration)

	return a
}

// Load restores key regions and, if configured, the latest baseline from
// the store.
func (a *App) Load() error {
	if a.config.Store == nil {
		return nil
	}
	if err := a.LoadKeys(); err != nil {
		return err
	}
	if a.config.RestoreCalibration {
		return a.restoreCalibration()
	}
	return nil
}

// LoadKeys replaces the live regions with the stored ones. Stored regions
// that no longer fit the frame are skipped.
func (a *App) LoadKeys() error {
	if a.config.Store == nil {
		return nil
	}

	stored, err := a.config.Store.Keys().List()
	if err != nil {
		return fmt.Errorf("load keys: %w", err)
	}

	regions := make([]keys.Region, 0, len(stored))
	for _, k := range stored {
		r, err := k.Region(a.config.Width, a.config.Height)
		if err != nil {
			a.logger.Warn("skipping stored key", "id", k.ID, "key", k.Key, "error", err)
			continue
		}
		regions = append(regions, r)
	}

	a.regions.Replace(regions)
	a.logger.Info("loaded keys", "count", len(regions))
	return nil
}

func (a *App) restoreCalibration() error {
	c, err := a.config.Store.Calibrations().Latest()
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load calibration: %w", err)
	}
	if c.Width != a.config.Width || c.Height != a.config.Height {
		a.logger.Warn("saved calibration has a different frame size, ignoring",
			"saved", fmt.Sprintf("%dx%d", c.Width, c.Height))
		return nil
	}
	if err := a.baseline.Capture(c.Depth); err != nil {
		return fmt.Errorf("restore calibration: %w", err)
	}
	a.logger.Info("restored calibration", "capturedAt", c.CapturedAt)
	return nil
}

// saveCalibration persists a captured baseline off the frame path.
func (a *App) saveCalibration(frame *capture.DepthFrame) {
	if a.config.Store == nil {
		return
	}

	depth := make([]uint16, len(frame.Data))
	copy(depth, frame.Data)

	a.persist.Add(1)
	go func() {
		defer a.persist.Done()

		repo := a.config.Store.Calibrations()
		c := &store.Calibration{Width: a.config.Width, Height: a.config.Height, Depth: depth}
		if err := repo.Save(c); err != nil {
			a.logger.Error("failed to save calibration", "error", err)
			return
		}
		if _, err := repo.Prune(a.config.KeepCalibrations); err != nil {
			a.logger.Warn("failed to prune calibrations", "error", err)
		}
	}()
}

// AddKey registers a new key region and persists it.
func (a *App) AddKey(rect keys.Rect, key, label string) (keys.Region, error) {
	r, err := keys.NewRegion(rect, key, a.config.Width, a.config.Height)
	if err != nil {
		return keys.Region{}, err
	}
	r = r.WithLabel(label)

	a.keysMu.Lock()
	defer a.keysMu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Keys().Create(store.FromRegion(r)); err != nil {
			return keys.Region{}, fmt.Errorf("save key: %w", err)
		}
	}

	a.regions.Add(r)
	a.logger.Info("key added", "id", r.ID, "key", r.Key, "rect", r.Rect)
	return r, nil
}

// ClearKeys removes every key region.
func (a *App) ClearKeys() error {
	a.keysMu.Lock()
	defer a.keysMu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Keys().DeleteAll(); err != nil {
			return fmt.Errorf("clear keys: %w", err)
		}
	}

	a.regions.Clear()
	a.logger.Info("keys cleared")
	return nil
}

// ApplyLayout replaces all key regions with the layout's keys. An invalid
// layout leaves the current regions untouched.
func (a *App) ApplyLayout(l *layout.Layout) error {
	regions, err := l.Regions(a.config.Width, a.config.Height)
	if err != nil {
		return err
	}

	a.keysMu.Lock()
	defer a.keysMu.Unlock()

	if a.config.Store != nil {
		stored := make([]*store.KeyRegion, len(regions))
		for i, r := range regions {
			stored[i] = store.FromRegion(r)
		}
		if err := a.config.Store.Keys().ReplaceAll(stored); err != nil {
			return fmt.Errorf("save layout: %w", err)
		}
	}

	a.regions.Replace(regions)
	a.logger.Info("layout applied", "name", l.Name, "keys", len(regions))
	return nil
}

// Keys returns the current key regions in insertion order.
func (a *App) Keys() []keys.Region {
	return a.regions.Snapshot()
}

// Key returns the region with the given ID.
func (a *App) Key(id string) (keys.Region, bool) {
	return a.regions.Get(id)
}

// Controller returns the mode controller.
func (a *App) Controller() *mode.Controller {
	return a.controller
}

// Pipeline returns the frame pipeline.
func (a *App) Pipeline() *Pipeline {
	return a.pipeline
}

// Calibration returns the baseline store.
func (a *App) Calibration() *calibration.Store {
	return a.baseline
}

// Status reports the current mode, calibration and key count.
func (a *App) Status() Status {
	return Status{
		Mode:         a.controller.Mode().String(),
		Calibrated:   a.baseline.Calibrated(),
		CalibratedAt: a.baseline.CapturedAt(),
		Keys:         a.regions.Len(),
		Running:      a.Running(),
		Width:        a.config.Width,
		Height:       a.config.Height,
		Stats:        a.pipeline.Stats(),
	}
}

// Start opens the sensor and begins feeding frames to the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	sensor := a.config.Sensor
	if sensor == nil {
		return ErrNoSensor
	}
	if err := sensor.Open(); err != nil {
		return fmt.Errorf("open sensor: %w", err)
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(sensor, a.stopCh, a.done)

	a.logger.Info("sensor pipeline started", "fps", sensor.FPS())
	return nil
}

// Running reports whether the sensor pipeline is active.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopCh != nil
}

// Stop halts the sensor pipeline, closes the sensor and waits for pending
// calibration writes.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh != nil {
		close(a.stopCh)
		<-a.done
		a.stopCh = nil
		a.done = nil

		if err := a.config.Sensor.Close(); err != nil {
			a.logger.Warn("error closing sensor", "error", err)
		}
		a.logger.Info("sensor pipeline stopped")
	}
	a.mu.Unlock()

	a.persist.Wait()
}
