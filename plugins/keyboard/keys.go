package main

import (
	"fmt"
	"strings"
)

// Backends that can type a key.
const (
	BackendOsascript  = "osascript"
	BackendXdotool    = "xdotool"
	BackendPowerShell = "powershell"
)

func defaultBackend(goos string) string {
	switch goos {
	case "darwin":
		return BackendOsascript
	case "windows":
		return BackendPowerShell
	default:
		return BackendXdotool
	}
}

// namedKey holds a special key's name per backend. For osascript it is a
// key code.
type namedKey struct {
	keyCode  int
	xdotool  string
	sendKeys string
}

var namedKeys = map[string]namedKey{
	"enter":     {36, "Return", "{ENTER}"},
	"return":    {36, "Return", "{ENTER}"},
	"tab":       {48, "Tab", "{TAB}"},
	"space":     {49, "space", " "},
	"backspace": {51, "BackSpace", "{BACKSPACE}"},
	"escape":    {53, "Escape", "{ESC}"},
	"esc":       {53, "Escape", "{ESC}"},
	"delete":    {117, "Delete", "{DELETE}"},
	"left":      {123, "Left", "{LEFT}"},
	"right":     {124, "Right", "{RIGHT}"},
	"down":      {125, "Down", "{DOWN}"},
	"up":        {126, "Up", "{UP}"},
}

var appleModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

var xdotoolModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

var sendKeysModifiers = map[string]string{
	"alt":     "%",
	"option":  "%",
	"control": "^",
	"ctrl":    "^",
	"shift":   "+",
}

// command builds the command line that types key on the given backend.
func command(backend, key string, modifiers []string) (string, []string, error) {
	named, isNamed := namedKeys[strings.ToLower(key)]

	switch backend {
	case BackendOsascript:
		var action string
		if isNamed {
			action = fmt.Sprintf("key code %d", named.keyCode)
		} else {
			action = fmt.Sprintf("keystroke %q", key)
		}
		if mods := mapModifiers(modifiers, appleModifiers); len(mods) > 0 {
			action += " using {" + strings.Join(mods, ", ") + "}"
		}
		return "osascript", []string{"-e", `tell application "System Events" to ` + action}, nil

	case BackendXdotool:
		if !isNamed && len(modifiers) == 0 {
			return "xdotool", []string{"type", "--", key}, nil
		}
		name := key
		if isNamed {
			name = named.xdotool
		}
		combo := append(mapModifiers(modifiers, xdotoolModifiers), name)
		return "xdotool", []string{"key", "--", strings.Join(combo, "+")}, nil

	case BackendPowerShell:
		var keys string
		if isNamed {
			keys = named.sendKeys
		} else {
			keys = escapeSendKeys(key)
		}
		keys = strings.Join(mapModifiers(modifiers, sendKeysModifiers), "") + keys
		script := fmt.Sprintf(`Add-Type -AssemblyName System.Windows.Forms; [System.Windows.Forms.SendKeys]::SendWait('%s')`,
			strings.ReplaceAll(keys, "'", "''"))
		return "powershell", []string{"-NoProfile", "-NonInteractive", "-Command", script}, nil
	}

	return "", nil, fmt.Errorf("unknown backend: %s", backend)
}

func mapModifiers(modifiers []string, table map[string]string) []string {
	var out []string
	for _, m := range modifiers {
		if v, ok := table[strings.ToLower(m)]; ok {
			out = append(out, v)
		}
	}
	return out
}

// escapeSendKeys wraps SendKeys metacharacters in braces.
func escapeSendKeys(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '+', '^', '%', '~', '(', ')', '{', '}', '[', ']':
			b.WriteString("{" + string(r) + "}")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
