package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/depthkeys/internal/app"
	"github.com/ayusman/depthkeys/internal/capture"
	"github.com/ayusman/depthkeys/internal/configpaths"
	"github.com/ayusman/depthkeys/internal/detector"
	"github.com/ayusman/depthkeys/internal/keystroke"
	"github.com/ayusman/depthkeys/internal/layout"
	"github.com/ayusman/depthkeys/internal/plugin"
	"github.com/ayusman/depthkeys/internal/preview"
	"github.com/ayusman/depthkeys/internal/server"
	"github.com/ayusman/depthkeys/internal/store"
	"github.com/ayusman/depthkeys/internal/tray"
)

const dbFileName = "depthkeys.db"

// SensorConfig selects the depth device.
type SensorConfig struct {
	Device int `help:"OpenNI2 device index" default:"0" env:"DEPTHKEYS_SENSOR_DEVICE"`
	Width  int `help:"Depth frame width" default:"512" env:"DEPTHKEYS_SENSOR_WIDTH"`
	Height int `help:"Depth frame height" default:"424" env:"DEPTHKEYS_SENSOR_HEIGHT"`
	FPS    int `help:"Frames per second" default:"30" env:"DEPTHKEYS_SENSOR_FPS"`
}

// DetectConfig tunes touch detection.
type DetectConfig struct {
	MinDelta           int  `help:"Smallest baseline difference, exclusive, that counts as a touch" default:"10" env:"DEPTHKEYS_DETECT_MIN_DELTA"`
	MaxDelta           int  `help:"Largest baseline difference, exclusive, that counts as a touch" default:"20" env:"DEPTHKEYS_DETECT_MAX_DELTA"`
	Workers            int  `help:"Goroutines per detection pass" default:"1" env:"DEPTHKEYS_DETECT_WORKERS"`
	RestoreCalibration bool `help:"Restore the last saved baseline at startup" env:"DEPTHKEYS_DETECT_RESTORE_CALIBRATION"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr   string `help:"HTTP listen address" default:":8080" env:"DEPTHKEYS_SERVER_ADDR"`
	WebDir string `help:"Directory with the settings web UI" env:"DEPTHKEYS_SERVER_WEB_DIR"`

	PreviewMotion float64 `help:"Percent of pixels that must change before the preview is re-encoded (0 re-encodes every frame)" default:"0.5" env:"DEPTHKEYS_SERVER_PREVIEW_MOTION"`
}

// Serve runs the keyboard: sensor, detection, key delivery, HTTP API and tray.
type Serve struct {
	Sensor SensorConfig `embed:"" prefix:"sensor."`
	Detect DetectConfig `embed:"" prefix:"detect."`
	Server ServerConfig `embed:"" prefix:"server."`

	DataDir      string `help:"Directory for the database" env:"DEPTHKEYS_DATA_DIR"`
	PluginDir    string `help:"Directory containing key delivery plugins" env:"DEPTHKEYS_PLUGIN_DIR"`
	Plugin       string `help:"Plugin that types detected keys" default:"keyboard" env:"DEPTHKEYS_PLUGIN"`
	PluginConfig string `help:"JSON config passed to the plugin" env:"DEPTHKEYS_PLUGIN_CONFIG"`
	Layout       string `help:"Key layout file to load and watch" type:"path" env:"DEPTHKEYS_LAYOUT"`
	Tray         bool   `help:"Show the system tray menu" env:"DEPTHKEYS_TRAY"`
}

// Run is called by Kong when the serve command is executed.
func (s *Serve) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.StartServer(ctx, logger)
}

// StartServer runs until ctx is cancelled or the HTTP server fails.
func (s *Serve) StartServer(ctx context.Context, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dataDir := s.DataDir
	if dataDir == "" {
		dataDir = configpaths.DefaultDataDir()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	st, err := store.New(filepath.Join(dataDir, dbFileName))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	plugins := plugin.NewManager(s.pluginDir(dataDir), logger.With("component", "plugins"))
	if err := plugins.Discover(); err != nil {
		logger.Warn("plugin discovery failed", "dir", plugins.PluginDir(), "error", err)
	}

	sink, closeSink := s.keySink(plugins, logger)
	defer closeSink()

	pv := preview.NewWithMotion(s.Server.PreviewMotion)
	defer pv.Close()
	sensor := capture.NewSensor(s.Sensor.Device, s.Sensor.Width, s.Sensor.Height)
	sensor.SetFPS(s.Sensor.FPS)

	a := app.New(app.Config{
		Store:  st,
		Sensor: sensor,
		Width:  s.Sensor.Width,
		Height: s.Sensor.Height,
		Detector: detector.Config{
			Band:    detector.Band{Min: s.Detect.MinDelta, Max: s.Detect.MaxDelta},
			Workers: s.Detect.Workers,
		},
		Sink:               sink,
		Preview:            pv,
		Logger:             logger,
		RestoreCalibration: s.Detect.RestoreCalibration,
	})
	if err := a.Load(); err != nil {
		return err
	}

	if s.Layout != "" {
		if err := s.loadLayout(ctx, a, logger); err != nil {
			return err
		}
	}

	if err := a.Start(); err != nil {
		// Without a sensor the API still works; detection stays inert.
		logger.Warn("depth sensor unavailable", "device", s.Sensor.Device, "error", err)
	}
	defer a.Stop()

	srv := server.New(server.Config{
		StaticDir: s.Server.WebDir,
		App:       a,
		Preview:   pv,
		Plugins:   plugins,
		Logger:    logger.With("component", "server"),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, s.Server.Addr)
	}()

	if s.Tray {
		t := tray.New(a.Controller())
		a.Pipeline().AddSink(t)
		t.OnSettings(func() { openBrowser(settingsURL(s.Server.Addr), logger) })
		t.OnQuit(cancel)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
		cancel()
	}

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "error", err)
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return <-errCh
	}
}

func (s *Serve) pluginDir(dataDir string) string {
	if s.PluginDir != "" {
		return s.PluginDir
	}
	return configpaths.DefaultPluginDir(dataDir)
}

// keySink returns the plugin sink for s.Plugin, or a log sink when the
// plugin cannot be used.
func (s *Serve) keySink(plugins *plugin.Manager, logger *slog.Logger) (keystroke.Sink, func()) {
	fallback := keystroke.LogSink{Logger: logger}
	if s.Plugin == "" {
		return fallback, func() {}
	}

	p, err := plugins.Get(s.Plugin)
	if err != nil {
		logger.Warn("key delivery plugin not found, logging keys instead", "plugin", s.Plugin)
		return fallback, func() {}
	}

	var cfg json.RawMessage
	if s.PluginConfig != "" {
		cfg = json.RawMessage(s.PluginConfig)
	}
	ps, err := keystroke.NewPluginSink(keystroke.PluginSinkConfig{
		Plugin: p,
		Config: cfg,
		Logger: logger.With("component", "keystroke"),
	})
	if err != nil {
		logger.Warn("key delivery plugin unusable, logging keys instead", "plugin", s.Plugin, "error", err)
		return fallback, func() {}
	}

	logger.Info("delivering keys through plugin", "plugin", p.Manifest.Name, "version", p.Manifest.Version)
	return ps, func() { ps.Close() }
}

func (s *Serve) loadLayout(ctx context.Context, a *app.App, logger *slog.Logger) error {
	l, err := layout.Load(s.Layout)
	if err != nil {
		return err
	}
	if err := a.ApplyLayout(l); err != nil {
		return fmt.Errorf("apply layout %s: %w", s.Layout, err)
	}
	logger.Info("layout loaded", "path", s.Layout, "keys", len(l.Keys))

	return layout.Watch(ctx, s.Layout, logger.With("component", "layout"), func(l *layout.Layout) {
		if err := a.ApplyLayout(l); err != nil {
			logger.Warn("layout reload rejected", "path", s.Layout, "error", err)
			return
		}
		logger.Info("layout reloaded", "path", s.Layout, "keys", len(l.Keys))
	})
}

func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string, logger *slog.Logger) {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", url)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		c = exec.Command("xdg-open", url)
	}
	if err := c.Start(); err != nil {
		logger.Warn("failed to open browser", "url", url, "error", err)
		return
	}
	go c.Wait()
}
