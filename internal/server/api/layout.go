package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ayusman/depthkeys/internal/keys"
	"github.com/ayusman/depthkeys/internal/layout"
)

// maxLayoutBytes bounds uploaded layout files.
const maxLayoutBytes = 1 << 20

// LayoutService replaces all keys from a layout.
type LayoutService interface {
	ApplyLayout(l *layout.Layout) error
}

// LayoutHandler accepts layout uploads on PUT /api/layout.
type LayoutHandler struct {
	svc LayoutService
}

// NewLayoutHandler creates a new LayoutHandler.
func NewLayoutHandler(svc LayoutService) *LayoutHandler {
	return &LayoutHandler{svc: svc}
}

// formatFromRequest uses ?format= first, then the Content-Type.
func formatFromRequest(r *http.Request) layout.Format {
	if f := r.URL.Query().Get("format"); f != "" {
		if f == "yml" {
			return layout.FormatYAML
		}
		return layout.Format(strings.ToLower(f))
	}

	ct := r.Header.Get("Content-Type")
	switch {
	case strings.Contains(ct, "yaml"):
		return layout.FormatYAML
	case strings.Contains(ct, "toml"):
		return layout.FormatTOML
	default:
		return layout.FormatJSON
	}
}

// ServeHTTP handles PUT /api/layout.
func (h *LayoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxLayoutBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	l, err := layout.Parse(data, formatFromRequest(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.ApplyLayout(l); err != nil {
		if errors.Is(err, keys.ErrOutOfBounds) || errors.Is(err, keys.ErrEmptyKey) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to apply layout")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"name": l.Name, "keys": len(l.Keys)})
}
