// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/infrastructure/http/middleware"
	"github.com/dietcompass/planner/internal/infrastructure/monitoring"
	"github.com/dietcompass/planner/pkg/errors"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

func writeData(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	writeJSON(w, logger, status, APIResponse{Success: true, Data: data})
}

// writeError maps err onto its HTTP status and the error envelope
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	appErr := errors.Wrap(err, "An unexpected error occurred")
	status := appErr.StatusCode()

	log := monitoring.WithContext(r.Context(), logger)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed",
			zap.String("code", string(appErr.Code)),
			zap.String("message", appErr.Message),
			zap.Error(err),
		)
	} else {
		log.Debug("Request rejected",
			zap.String("code", string(appErr.Code)),
			zap.String("details", appErr.Details),
		)
	}

	writeJSON(w, logger, status, errors.ToErrorResponse(appErr, chimiddleware.GetReqID(r.Context())))
}

// decodeJSON decodes a request body. Bodies over the server limit fail
// with the reader error of http.MaxBytesReader.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.NewBadRequestError(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

func household(r *http.Request) string {
	return middleware.HouseholdFromContext(r.Context())
}

func wantsEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// eventStream writes server-sent events, flushing after each one
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	logger  *zap.Logger
}

func newEventStream(w http.ResponseWriter, logger *zap.Logger) (*eventStream, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &eventStream{w: w, flusher: flusher, logger: logger}, true
}

func (s *eventStream) send(event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("Failed to encode event", zap.String("event", event), zap.Error(err))
		return
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		s.logger.Debug("Event stream closed by client", zap.Error(err))
		return
	}
	s.flusher.Flush()
}

func (s *eventStream) fail(r *http.Request, err error) {
	appErr := errors.Wrap(err, "An unexpected error occurred")
	s.send("error", errors.ToErrorResponse(appErr, chimiddleware.GetReqID(r.Context())))
}

// progressEvent is one progress update relayed to the client
type progressEvent struct {
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
}
