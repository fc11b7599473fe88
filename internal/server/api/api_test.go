package api

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/ayusman/depthkeys/internal/app"
	"github.com/ayusman/depthkeys/internal/keystroke"
	"github.com/ayusman/depthkeys/internal/store"
)

// newTestApp creates an App backed by a temporary database.
func newTestApp(t *testing.T) *app.App {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	a := app.New(app.Config{
		Store:  s,
		Sink:   &keystroke.Recorder{},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(a.Stop)
	return a
}
