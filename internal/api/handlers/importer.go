package handlers

import (
	"net/http"

	"github.com/Project-Sylos/Tabula/internal/api/models"
	"github.com/Project-Sylos/Tabula/internal/workspace"
	"github.com/Project-Sylos/Tabula/sdk"
)

// ImportHandler handles the import endpoints
type ImportHandler struct {
	BaseHandler
	ws *sdk.Tabula
}

// NewImportHandler creates a new import handler
func NewImportHandler(ws *sdk.Tabula) *ImportHandler {
	return &ImportHandler{
		ws: ws,
	}
}

// ImportCSV stores a posted CSV document as a new root file
func (h *ImportHandler) ImportCSV(w http.ResponseWriter, req *http.Request) {
	var request models.ImportRequest
	if !h.decode(w, req, &request) {
		return
	}

	node, err := h.ws.ImportCSV(req.Context(), workspace.SourceAPI, request.Name, request.CSV)
	if err != nil {
		h.sendFailure(w, req, "import csv", err)
		return
	}
	h.sendCreated(w, "CSV imported successfully", node)
}

// ImportURL fetches a remote CSV document and imports it
func (h *ImportHandler) ImportURL(w http.ResponseWriter, req *http.Request) {
	var request models.ImportURLRequest
	if !h.decode(w, req, &request) {
		return
	}
	if request.URL == "" {
		h.sendError(w, http.StatusBadRequest, "url is required")
		return
	}

	node, err := h.ws.FetchCSV(req.Context(), request.URL)
	if err != nil {
		h.sendFailure(w, req, "fetch csv", err)
		return
	}
	h.sendCreated(w, "CSV downloaded successfully", node)
}
