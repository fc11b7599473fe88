package api

import (
	"net/http"

	"github.com/ayusman/depthkeys/internal/plugin"
)

// PluginHandler lists the discovered plugins.
type PluginHandler struct {
	manager *plugin.Manager
}

// NewPluginHandler creates a new PluginHandler.
func NewPluginHandler(m *plugin.Manager) *PluginHandler {
	return &PluginHandler{manager: m}
}

type pluginResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

// ServeHTTP handles GET /api/plugins.
func (h *PluginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	plugins := h.manager.List()
	response := make([]pluginResponse, 0, len(plugins))
	for _, p := range plugins {
		response = append(response, pluginResponse{
			Name:        p.Manifest.Name,
			Version:     p.Manifest.Version,
			Description: p.Manifest.Description,
			Actions:     p.Manifest.Actions,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"plugins": response})
}
