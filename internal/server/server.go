// Package server provides the HTTP server: key and mode API, live preview
// stream, key event feed and the static web UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/depthkeys/internal/app"
	"github.com/ayusman/depthkeys/internal/mode"
	"github.com/ayusman/depthkeys/internal/plugin"
	"github.com/ayusman/depthkeys/internal/server/api"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	App       *app.App
	Preview   FrameSource
	Plugins   *plugin.Manager
	Logger    *slog.Logger
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	events *EventsHandler
	logger *slog.Logger
	start  time.Time
}

// New creates a new Server with the given configuration. When an App is
// configured, the server subscribes to its key presses and mode changes.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		events: NewEventsHandler(logger),
		logger: logger,
		start:  time.Now(),
	}

	if config.App != nil {
		config.App.Pipeline().AddSink(s.events)
		config.App.Controller().AddListener(func(prev, next mode.Mode) {
			s.events.BroadcastMode(next)
		})
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/api/events", s.events)

	if s.config.App != nil {
		keyHandler := api.NewKeyHandler(s.config.App)
		s.mux.Handle("/api/keys", keyHandler)
		s.mux.Handle("/api/keys/", keyHandler)
		s.mux.Handle("/api/mode", api.NewModeHandler(s.config.App))
		s.mux.Handle("/api/layout", api.NewLayoutHandler(s.config.App))
	}

	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview))
	}

	if s.config.Plugins != nil {
		s.mux.Handle("/api/plugins", api.NewPluginHandler(s.config.Plugins))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// Events returns the key event broadcaster.
func (s *Server) Events() *EventsHandler {
	return s.events
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		response["mode"] = s.config.App.Controller().Mode().String()
		response["sensor"] = s.config.App.Running()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.events.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
