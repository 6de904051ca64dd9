package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Project-Sylos/Tabula/internal/logging"
	"github.com/Project-Sylos/Tabula/internal/projection"
	"github.com/Project-Sylos/Tabula/internal/types"
	"github.com/Project-Sylos/Tabula/internal/workspace"
)

// BaseHandler provides common functionality for all API handlers
type BaseHandler struct{}

// sendJSON sends a JSON response with the given status code and data
func (h *BaseHandler) sendJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response with the given status code and message
func (h *BaseHandler) sendError(w http.ResponseWriter, statusCode int, message string) {
	h.sendJSON(w, statusCode, types.APIResponse{
		Success: false,
		Message: message,
	})
}

// sendSuccess sends a success response with the given data
func (h *BaseHandler) sendSuccess(w http.ResponseWriter, message string, data any) {
	h.sendJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// sendCreated sends a 201 response with the given data
func (h *BaseHandler) sendCreated(w http.ResponseWriter, message string, data any) {
	h.sendJSON(w, http.StatusCreated, types.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// sendFailure maps a workspace error to its status code and sends it
func (h *BaseHandler) sendFailure(w http.ResponseWriter, req *http.Request, action string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.WithContext(req.Context()).Error("request failed", zap.String("action", action), zap.Error(err))
	}
	h.sendError(w, status, fmt.Sprintf("Failed to %s: %v", action, err))
}

// decode reads a JSON body into v, answering 400 on failure
func (h *BaseHandler) decode(w http.ResponseWriter, req *http.Request, v any) bool {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		h.sendError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workspace.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workspace.ErrNoFileSelected):
		return http.StatusConflict
	case errors.Is(err, workspace.ErrShapeMismatch),
		errors.Is(err, projection.ErrMalformed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workspace.ErrContentType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, workspace.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, workspace.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, workspace.ErrNotAFile),
		errors.Is(err, workspace.ErrNotAFolder),
		errors.Is(err, workspace.ErrInvalidMove),
		errors.Is(err, workspace.ErrInvalidSelection),
		errors.Is(err, workspace.ErrUnknownCommand),
		errors.Is(err, workspace.ErrEmptyName),
		errors.Is(err, projection.ErrUnknownColumn),
		errors.Is(err, projection.ErrColumnExists),
		errors.Is(err, projection.ErrEmptyColumn),
		errors.Is(err, projection.ErrOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
