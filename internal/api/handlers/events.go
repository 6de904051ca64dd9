package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Project-Sylos/Tabula/internal/logging"
	"github.com/Project-Sylos/Tabula/internal/store"
	"github.com/Project-Sylos/Tabula/sdk"
)

const keepAliveInterval = 30 * time.Second

// EventsHandler streams store change notifications as server-sent events
type EventsHandler struct {
	BaseHandler
	ws *sdk.Tabula
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(ws *sdk.Tabula) *EventsHandler {
	return &EventsHandler{
		ws: ws,
	}
}

// Stream writes one "change" event per store write until the client leaves
func (h *EventsHandler) Stream(w http.ResponseWriter, req *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.sendError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch := h.ws.Subscribe()
	defer h.ws.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := logging.WithContext(req.Context())
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-req.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := store.MarshalEvent(ev)
			if err != nil {
				logger.Warn("failed to encode event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
