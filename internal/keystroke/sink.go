// Package keystroke delivers detected key presses to their consumers.
package keystroke

import (
	"log/slog"
	"sync"
)

// Sink receives key presses. Send must not block the caller for long.
type Sink interface {
	Send(key string)
}

// Func adapts a function to the Sink interface.
type Func func(key string)

// Send calls f(key).
func (f Func) Send(key string) { f(key) }

// LogSink logs every key at info level.
type LogSink struct {
	Logger *slog.Logger
}

// Send logs the key.
func (s LogSink) Send(key string) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("key pressed", "key", key)
}

// Multi fans each key out to every sink in order. Nil sinks are skipped.
type Multi []Sink

// Send forwards the key to every sink.
func (m Multi) Send(key string) {
	for _, s := range m {
		if s != nil {
			s.Send(key)
		}
	}
}

// Recorder stores every key it receives.
type Recorder struct {
	mu   sync.Mutex
	keys []string
}

// Send records the key.
func (r *Recorder) Send(key string) {
	r.mu.Lock()
	r.keys = append(r.keys, key)
	r.mu.Unlock()
}

// Keys returns a copy of the recorded keys.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

// Len returns the number of recorded keys.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

// Reset drops all recorded keys.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.keys = nil
	r.mu.Unlock()
}
