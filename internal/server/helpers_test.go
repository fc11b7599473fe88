package server

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/ayusman/depthkeys/internal/app"
	"github.com/ayusman/depthkeys/internal/keystroke"
	"github.com/ayusman/depthkeys/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T) *app.App {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	a := app.New(app.Config{
		Store:  s,
		Sink:   &keystroke.Recorder{},
		Logger: discardLogger(),
	})
	t.Cleanup(a.Stop)
	return a
}
