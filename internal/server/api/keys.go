package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/depthkeys/internal/keys"
)

// KeyService manages the live key regions.
type KeyService interface {
	Keys() []keys.Region
	Key(id string) (keys.Region, bool)
	AddKey(rect keys.Rect, key, label string) (keys.Region, error)
	ClearKeys() error
}

// KeyHandler handles HTTP requests for key region resources.
type KeyHandler struct {
	keys KeyService
}

// NewKeyHandler creates a new KeyHandler.
func NewKeyHandler(k KeyService) *KeyHandler {
	return &KeyHandler{keys: k}
}

// ServeHTTP routes /api/keys and /api/keys/{id}.
func (h *KeyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/keys")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		case http.MethodDelete:
			h.clear(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createKeyRequest struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	keys.Rect
}

type keyResponse struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Label  string `json:"label"`
	Left   int    `json:"left"`
	Top    int    `json:"top"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Pixels int    `json:"pixels"`
}

type listKeysResponse struct {
	Keys  []keyResponse `json:"keys"`
	Count int           `json:"count"`
}

func toKeyResponse(r keys.Region) keyResponse {
	return keyResponse{
		ID:     r.ID,
		Key:    r.Key,
		Label:  r.Label,
		Left:   r.Rect.Left,
		Top:    r.Rect.Top,
		Width:  r.Rect.Width,
		Height: r.Rect.Height,
		Pixels: len(r.Indices),
	}
}

// list handles GET /api/keys.
func (h *KeyHandler) list(w http.ResponseWriter, r *http.Request) {
	regions := h.keys.Keys()

	response := listKeysResponse{
		Keys:  make([]keyResponse, 0, len(regions)),
		Count: len(regions),
	}
	for _, region := range regions {
		response.Keys = append(response.Keys, toKeyResponse(region))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/keys/{id}.
func (h *KeyHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	region, ok := h.keys.Key(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Key not found")
		return
	}
	writeJSON(w, http.StatusOK, toKeyResponse(region))
}

// create handles POST /api/keys.
func (h *KeyHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	region, err := h.keys.AddKey(req.Rect, req.Key, req.Label)
	switch {
	case errors.Is(err, keys.ErrEmptyKey):
		writeError(w, http.StatusBadRequest, "Key is required")
		return
	case errors.Is(err, keys.ErrOutOfBounds):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to add key")
		return
	}

	writeJSON(w, http.StatusCreated, toKeyResponse(region))
}

// clear handles DELETE /api/keys.
func (h *KeyHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.keys.ClearKeys(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear keys")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
