package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/depthkeys/internal/app"
	"github.com/ayusman/depthkeys/internal/mode"
)

// ModeService exposes the mode controller and the application status.
type ModeService interface {
	Controller() *mode.Controller
	Status() app.Status
}

// Commands accepted by POST /api/mode.
const (
	CommandCalibrate = "calibrate"
	CommandStart     = "start"
	CommandStop      = "stop"
	CommandToggle    = "toggle"
)

// ModeHandler reports and changes the detection mode.
type ModeHandler struct {
	svc ModeService
}

// NewModeHandler creates a new ModeHandler.
func NewModeHandler(svc ModeService) *ModeHandler {
	return &ModeHandler{svc: svc}
}

type modeCommandRequest struct {
	Command string `json:"command"`
}

// ServeHTTP handles GET and POST /api/mode.
func (h *ModeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.svc.Status())
	case http.MethodPost:
		h.command(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ModeHandler) command(w http.ResponseWriter, r *http.Request) {
	var req modeCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c := h.svc.Controller()

	var err error
	switch req.Command {
	case CommandCalibrate:
		err = c.RequestCalibration()
	case CommandStart:
		err = c.StartDetecting()
	case CommandStop:
		c.StopDetecting()
	case CommandToggle:
		_, err = c.Toggle()
	default:
		writeError(w, http.StatusBadRequest, "Unknown command")
		return
	}

	if errors.Is(err, mode.ErrDetecting) || errors.Is(err, mode.ErrCalibrationPending) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.svc.Status())
}
