package handlers

import (
	"net/http"

	"github.com/Project-Sylos/Tabula/sdk"
)

// HealthHandler reports whether the API and its store are usable
type HealthHandler struct {
	BaseHandler
	ws *sdk.Tabula
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(ws *sdk.Tabula) *HealthHandler {
	return &HealthHandler{ws: ws}
}

// HealthCheck answers 503 when the store cannot be read
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, req *http.Request) {
	if err := h.ws.Ping(req.Context()); err != nil {
		h.sendError(w, http.StatusServiceUnavailable, "store unavailable: "+err.Error())
		return
	}
	info, err := h.ws.StoreInfo(req.Context())
	if err != nil {
		h.sendError(w, http.StatusServiceUnavailable, "store unavailable: "+err.Error())
		return
	}
	h.sendSuccess(w, "Tabula API is healthy", map[string]any{
		"driver": h.ws.GetConfig().Storage.Driver,
		"keys":   len(info),
	})
}
