// Package main provides the keyboard plugin. It types detected keys on the
// host using osascript on macOS, xdotool on Linux and SendKeys on Windows.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Key    string          `json:"key"`
	Config json.RawMessage `json:"config"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the plugin configuration, validated against plugin.json.
type Config struct {
	Backend   string   `json:"backend"`
	Modifiers []string `json:"modifiers"`
	DryRun    bool     `json:"dryRun"`
}

func main() {
	resp := handle(os.Stdin, runtime.GOOS, runCommand)
	json.NewEncoder(os.Stdout).Encode(resp)
}

// handle decodes one request and types its key with run.
func handle(r io.Reader, goos string, run func(name string, args ...string) error) Response {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return errorResponse(fmt.Sprintf("failed to decode request: %v", err))
	}
	if req.Action != "keystroke" {
		return errorResponse(fmt.Sprintf("unknown action: %s", req.Action))
	}
	if req.Key == "" {
		return errorResponse("key is required")
	}

	var cfg Config
	if len(req.Config) > 0 && string(req.Config) != "null" {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return errorResponse(fmt.Sprintf("failed to parse config: %v", err))
		}
	}

	backend := cfg.Backend
	if backend == "" || backend == "auto" {
		backend = defaultBackend(goos)
	}

	name, args, err := command(backend, req.Key, cfg.Modifiers)
	if err != nil {
		return errorResponse(err.Error())
	}

	if cfg.DryRun {
		data, _ := json.Marshal(append([]string{name}, args...))
		return Response{Success: true, Data: data}
	}

	if err := run(name, args...); err != nil {
		return errorResponse(fmt.Sprintf("keystroke %q failed: %v", req.Key, err))
	}
	return Response{Success: true}
}

func errorResponse(msg string) Response {
	return Response{Success: false, Error: msg}
}

// runCommand executes a command and returns any error with its output.
func runCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
