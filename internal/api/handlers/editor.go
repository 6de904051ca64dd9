package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Project-Sylos/Tabula/internal/api/models"
	"github.com/Project-Sylos/Tabula/sdk"
)

// EditorHandler handles the selection and grid editing endpoints
type EditorHandler struct {
	BaseHandler
	ws *sdk.Tabula
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(ws *sdk.Tabula) *EditorHandler {
	return &EditorHandler{
		ws: ws,
	}
}

// GetSelection returns the selection, projection and save status
func (h *EditorHandler) GetSelection(w http.ResponseWriter, req *http.Request) {
	h.sendSuccess(w, "Selection retrieved successfully", h.ws.State())
}

// Select focuses a node
func (h *EditorHandler) Select(w http.ResponseWriter, req *http.Request) {
	var request models.SelectRequest
	if !h.decode(w, req, &request) {
		return
	}

	state, err := h.ws.Select(req.Context(), request.ID)
	if err != nil {
		h.sendFailure(w, req, "select node", err)
		return
	}
	h.sendSuccess(w, "Node selected successfully", state)
}

// ClearSelection drops the selection
func (h *EditorHandler) ClearSelection(w http.ResponseWriter, req *http.Request) {
	state, err := h.ws.Select(req.Context(), "")
	if err != nil {
		h.sendFailure(w, req, "clear selection", err)
		return
	}
	h.sendSuccess(w, "Selection cleared successfully", state)
}

// SetCell commits one edited cell of the selected file
func (h *EditorHandler) SetCell(w http.ResponseWriter, req *http.Request) {
	var request models.SetCellRequest
	if !h.decode(w, req, &request) {
		return
	}

	state, err := h.ws.SetCell(req.Context(), request.Row, request.Field, request.Value)
	if err != nil {
		h.sendFailure(w, req, "edit cell", err)
		return
	}
	h.sendSuccess(w, "Cell saved successfully", state)
}

// ApplyCommand runs a grid context menu command
func (h *EditorHandler) ApplyCommand(w http.ResponseWriter, req *http.Request) {
	var request models.MenuCommandRequest
	if !h.decode(w, req, &request) {
		return
	}

	state, err := h.ws.ApplyMenuCommand(req.Context(), request.Command, request.Ranges)
	if err != nil {
		h.sendFailure(w, req, "apply command", err)
		return
	}
	h.sendSuccess(w, "Command applied successfully", state)
}

// DoubleClick reports whether a double click opens a column rename
func (h *EditorHandler) DoubleClick(w http.ResponseWriter, req *http.Request) {
	var request models.DoubleClickRequest
	if !h.decode(w, req, &request) {
		return
	}

	info, ok := h.ws.CellDoubleClicked(request.Row, request.Col, request.Value)
	response := map[string]any{
		"rename": ok,
	}
	if ok {
		response["column"] = info
	}
	h.sendSuccess(w, "Double click handled", response)
}

// RenameColumn renames the column shown at the {col} index
func (h *EditorHandler) RenameColumn(w http.ResponseWriter, req *http.Request) {
	col, err := strconv.Atoi(chi.URLParam(req, "col"))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "column index must be an integer")
		return
	}

	var request models.RenameRequest
	if !h.decode(w, req, &request) {
		return
	}

	state, err := h.ws.RenameColumn(req.Context(), col, request.Name)
	if err != nil {
		h.sendFailure(w, req, "rename column", err)
		return
	}
	h.sendSuccess(w, "Column renamed successfully", state)
}
