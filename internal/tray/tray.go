// Package tray provides the system tray menu for depthkeys.
package tray

import (
	"errors"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/depthkeys/internal/mode"
)

// Tray shows the detection mode and the last key, and lets the user toggle
// detection or request a calibration.
type Tray struct {
	controller *mode.Controller
	onSettings func()
	onQuit     func()
	mu         sync.RWMutex

	mode    mode.Mode
	lastKey string

	menuToggle    *systray.MenuItem
	menuCalibrate *systray.MenuItem
	menuLastKey   *systray.MenuItem
}

// New creates a Tray driving controller. The tray follows mode changes made
// elsewhere, such as through the HTTP API.
func New(controller *mode.Controller) *Tray {
	t := &Tray{
		controller: controller,
		mode:       controller.Mode(),
	}
	controller.AddListener(func(prev, next mode.Mode) {
		t.setMode(next)
	})
	return t
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit stops a running tray.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("depthkeys")
	systray.SetTooltip("Depth camera keyboard")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.mode), "Start or stop key detection")
	t.menuCalibrate = systray.AddMenuItem("Calibrate", "Capture the empty surface as the baseline")
	systray.AddSeparator()

	t.menuLastKey = systray.AddMenuItem(lastKeyTitle(t.lastKey), "Last detected key")
	t.menuLastKey.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit depthkeys")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuCalibrate.ClickedCh:
				t.handleCalibrate()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	if _, err := t.controller.Toggle(); errors.Is(err, mode.ErrCalibrationPending) {
		t.setCalibrateTitle("Calibrating...")
	}
}

func (t *Tray) handleCalibrate() {
	if err := t.controller.RequestCalibration(); errors.Is(err, mode.ErrDetecting) {
		t.setCalibrateTitle("Calibrate (stop detecting first)")
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// setMode runs inside a controller listener and must not call back into
// the controller.
func (t *Tray) setMode(m mode.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.mode = m
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(m))
	}
	if t.menuCalibrate != nil {
		if m == mode.Calibrating {
			t.menuCalibrate.SetTitle("Calibrating...")
		} else {
			t.menuCalibrate.SetTitle("Calibrate")
		}
	}
}

func (t *Tray) setCalibrateTitle(title string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuCalibrate != nil {
		t.menuCalibrate.SetTitle(title)
	}
}

// Send records the last key for display. Tray implements keystroke.Sink.
func (t *Tray) Send(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if key == t.lastKey {
		return
	}
	t.lastKey = key
	if t.menuLastKey != nil {
		t.menuLastKey.SetTitle(lastKeyTitle(key))
	}
}

// Mode returns the mode last shown in the menu.
func (t *Tray) Mode() mode.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

// LastKey returns the last key shown in the menu.
func (t *Tray) LastKey() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastKey
}

func toggleTitle(m mode.Mode) string {
	if m == mode.Detecting {
		return "● Detecting"
	}
	return "○ Paused"
}

func lastKeyTitle(key string) string {
	if key == "" {
		return "Last: none"
	}
	return "Last: " + key
}
