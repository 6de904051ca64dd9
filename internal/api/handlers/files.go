package handlers

import (
	"net/http"
	"path"
	"strings"

	"github.com/Project-Sylos/Tabula/sdk"
)

// NodeHeader carries the id of the node behind a served path
const NodeHeader = "X-Tabula-Node-Id"

// nodeIndex is implemented by workspace views that map paths back to nodes
type nodeIndex interface {
	NodeID(name string) (string, bool)
}

// FilesHandler serves a read-only browsable view of the workspace
type FilesHandler struct {
	BaseHandler
	ws     *sdk.Tabula
	prefix string
}

// NewFilesHandler creates a files handler mounted under prefix
func NewFilesHandler(ws *sdk.Tabula, prefix string) *FilesHandler {
	return &FilesHandler{
		ws:     ws,
		prefix: prefix,
	}
}

// ServeHTTP serves folders as directory listings and files as <name>.csv
func (h *FilesHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	fsys, err := h.ws.AsFS(req.Context())
	if err != nil {
		h.sendFailure(w, req, "load workspace", err)
		return
	}

	if idx, ok := fsys.(nodeIndex); ok {
		name := path.Clean(strings.TrimPrefix(strings.TrimPrefix(req.URL.Path, h.prefix), "/"))
		if id, ok := idx.NodeID(name); ok {
			w.Header().Set(NodeHeader, id)
		}
	}

	http.StripPrefix(h.prefix, http.FileServer(http.FS(fsys))).ServeHTTP(w, req)
}
