package handlers

import (
	"net/http"

	"github.com/Project-Sylos/Tabula/internal/api/models"
	"github.com/Project-Sylos/Tabula/sdk"
)

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	BaseHandler
	ws *sdk.Tabula
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(ws *sdk.Tabula) *SystemHandler {
	return &SystemHandler{
		ws: ws,
	}
}

// Reset handles the reset endpoint
func (h *SystemHandler) Reset(w http.ResponseWriter, req *http.Request) {
	if err := h.ws.Reset(req.Context()); err != nil {
		h.sendFailure(w, req, "reset workspace", err)
		return
	}

	h.sendSuccess(w, "Workspace reset successfully", nil)
}

// Seed replaces the workspace with a generated sample
func (h *SystemHandler) Seed(w http.ResponseWriter, req *http.Request) {
	count, err := h.ws.Seed(req.Context())
	if err != nil {
		h.sendFailure(w, req, "seed workspace", err)
		return
	}

	h.sendSuccess(w, "Workspace seeded successfully", map[string]any{"nodes": count})
}

// GetStores handles the persisted keys endpoint
func (h *SystemHandler) GetStores(w http.ResponseWriter, req *http.Request) {
	info, err := h.ws.StoreInfo(req.Context())
	if err != nil {
		h.sendFailure(w, req, "get store info", err)
		return
	}

	h.sendSuccess(w, "Stores retrieved successfully", info)
}

// SetLogLevel changes the log level without a restart
func (h *SystemHandler) SetLogLevel(w http.ResponseWriter, req *http.Request) {
	var request models.LogLevelRequest
	if !h.decode(w, req, &request) {
		return
	}

	if err := h.ws.SetLogLevel(request.Level); err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.sendSuccess(w, "Log level updated successfully", h.ws.GetConfig().Logging)
}

// GetConfig handles the get config endpoint
func (h *SystemHandler) GetConfig(w http.ResponseWriter, req *http.Request) {
	config := h.ws.GetConfig()
	h.sendSuccess(w, "Config retrieved successfully", config)
}
