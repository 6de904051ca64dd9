package handlers

import (
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Project-Sylos/Tabula/internal/api/models"
	"github.com/Project-Sylos/Tabula/sdk"
)

// NodeHandler handles tree and node endpoints
type NodeHandler struct {
	BaseHandler
	ws *sdk.Tabula
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(ws *sdk.Tabula) *NodeHandler {
	return &NodeHandler{
		ws: ws,
	}
}

// GetTree handles the get tree endpoint
func (h *NodeHandler) GetTree(w http.ResponseWriter, req *http.Request) {
	forest, err := h.ws.Tree(req.Context())
	if err != nil {
		h.sendFailure(w, req, "load tree", err)
		return
	}
	h.sendSuccess(w, "Tree retrieved successfully", forest)
}

// GetOutline handles the flat tree listing endpoint
func (h *NodeHandler) GetOutline(w http.ResponseWriter, req *http.Request) {
	entries, err := h.ws.Outline(req.Context())
	if err != nil {
		h.sendFailure(w, req, "load outline", err)
		return
	}
	h.sendSuccess(w, "Outline retrieved successfully", entries)
}

// GetNode handles the get node endpoint
func (h *NodeHandler) GetNode(w http.ResponseWriter, req *http.Request) {
	node, err := h.ws.GetNode(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		h.sendFailure(w, req, "get node", err)
		return
	}
	h.sendSuccess(w, "Node retrieved successfully", node)
}

// CreateFile handles the create file endpoint
func (h *NodeHandler) CreateFile(w http.ResponseWriter, req *http.Request) {
	var request models.CreateNodeRequest
	if !h.decode(w, req, &request) {
		return
	}

	node, err := h.ws.CreateFile(req.Context(), request.ParentID)
	if err != nil {
		h.sendFailure(w, req, "create file", err)
		return
	}
	h.sendCreated(w, "File created successfully", node)
}

// CreateFolder handles the create folder endpoint
func (h *NodeHandler) CreateFolder(w http.ResponseWriter, req *http.Request) {
	var request models.CreateNodeRequest
	if !h.decode(w, req, &request) {
		return
	}

	node, err := h.ws.CreateFolder(req.Context(), request.ParentID)
	if err != nil {
		h.sendFailure(w, req, "create folder", err)
		return
	}
	h.sendCreated(w, "Folder created successfully", node)
}

// DeleteNode handles the delete node endpoint
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, req *http.Request) {
	if err := h.ws.DeleteNode(req.Context(), chi.URLParam(req, "id")); err != nil {
		h.sendFailure(w, req, "delete node", err)
		return
	}
	h.sendSuccess(w, "Node deleted successfully", nil)
}

// RenameNode handles the rename endpoint
func (h *NodeHandler) RenameNode(w http.ResponseWriter, req *http.Request) {
	var request models.RenameRequest
	if !h.decode(w, req, &request) {
		return
	}

	id := chi.URLParam(req, "id")
	if err := h.ws.Rename(req.Context(), id, request.Name); err != nil {
		h.sendFailure(w, req, "rename node", err)
		return
	}
	node, err := h.ws.GetNode(req.Context(), id)
	if err != nil {
		h.sendFailure(w, req, "get node", err)
		return
	}
	h.sendSuccess(w, "Node renamed successfully", node)
}

// DuplicateNode handles the duplicate endpoint
func (h *NodeHandler) DuplicateNode(w http.ResponseWriter, req *http.Request) {
	node, err := h.ws.Duplicate(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		h.sendFailure(w, req, "duplicate node", err)
		return
	}
	h.sendCreated(w, "Node duplicated successfully", node)
}

// MoveNodes handles a drag and drop of tree nodes
func (h *NodeHandler) MoveNodes(w http.ResponseWriter, req *http.Request) {
	var request models.MoveRequest
	if !h.decode(w, req, &request) {
		return
	}

	if err := h.ws.Move(req.Context(), request.IDs, request.ParentID, request.Index); err != nil {
		h.sendFailure(w, req, "move node", err)
		return
	}
	forest, err := h.ws.Tree(req.Context())
	if err != nil {
		h.sendFailure(w, req, "load tree", err)
		return
	}
	h.sendSuccess(w, "Node moved successfully", forest)
}

// GetContent handles the get file content endpoint
func (h *NodeHandler) GetContent(w http.ResponseWriter, req *http.Request) {
	node, text, checksum, err := h.ws.GetContent(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		h.sendFailure(w, req, "get content", err)
		return
	}

	response := map[string]any{
		"id":       node.ID,
		"name":     node.Name,
		"csv":      text,
		"checksum": checksum,
		"size":     len(text),
	}
	h.sendSuccess(w, "Content retrieved successfully", response)
}

// DownloadContent writes a file's CSV text as a text/csv attachment
func (h *NodeHandler) DownloadContent(w http.ResponseWriter, req *http.Request) {
	node, text, checksum, err := h.ws.GetContent(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		h.sendFailure(w, req, "get content", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": node.Name + ".csv"}))
	w.Header().Set("ETag", `"`+checksum+`"`)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, text)
}

// AttachNode handles the attach endpoint
func (h *NodeHandler) AttachNode(w http.ResponseWriter, req *http.Request) {
	payload, err := h.ws.Attach(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		h.sendFailure(w, req, "attach file", err)
		return
	}
	h.sendSuccess(w, "Attachment prepared successfully", payload)
}
