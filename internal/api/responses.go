package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	app_errors "relay-chat/internal/errors"
	"relay-chat/internal/model"
)

// This file contains shared DTOs for API responses and helpers for sending
// consistent HTTP and SSE responses.

// ErrorResponse defines the standard JSON structure for error messages.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SendMessageRequest is the body of both message endpoints.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=8000" example:"What is in the onboarding guide?"`
}

// TurnResponse is the result of a non-streaming turn. Reply is set when the
// assistant message was appended; Error is set whenever a banner was shown.
type TurnResponse struct {
	Outcome model.Outcome `json:"outcome" example:"success"`
	Reply   string        `json:"reply,omitempty"`
	Error   string        `json:"error,omitempty"`
	Status  int           `json:"status,omitempty"`
	Events  []model.Event `json:"events"`
}

func newTurnResponse(result model.TurnResult, events []model.Event) TurnResponse {
	resp := TurnResponse{Outcome: result.Outcome, Status: result.Status, Events: events}
	if resp.Events == nil {
		resp.Events = []model.Event{}
	}
	if result.AppendsReply() {
		resp.Reply = result.Text
	}
	if result.Outcome != model.OutcomeSuccess {
		resp.Error = result.Text
	}
	return resp
}

// respondWithError maps service errors to HTTP status codes and writes a
// standard JSON error response.
func respondWithError(w http.ResponseWriter, err error) {
	var statusCode int
	var message string

	switch {
	case errors.Is(err, app_errors.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "The requested session was not found."
	case errors.Is(err, app_errors.ErrValidation):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, app_errors.ErrConflict):
		statusCode = http.StatusConflict
		message = "A reply is still being generated for this session."
	case errors.Is(err, app_errors.ErrInternal):
		// Details stay in the log.
		statusCode = http.StatusInternalServerError
		message = "An unexpected internal server error occurred."
	default:
		slog.Error("Unclassified error reached the API", "error", err)
		statusCode = http.StatusInternalServerError
		message = "An unexpected internal server error occurred."
	}

	slog.Warn("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)

	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondWithJSON marshals payload and writes it with the given status code.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// sendStreamError sends a structured error message over an SSE stream.
func sendStreamError(w http.ResponseWriter, message string) {
	slog.Warn("Sending stream error to client", "message", message)
	if err := writeStreamEvent(w, string(model.EventError), model.Event{Type: model.EventError, Error: message}); err != nil {
		slog.Warn("Failed to write stream error, client might have disconnected", "error", err)
	}
}

// writeStreamEvent writes one named SSE event. A write failure means the
// client has gone away.
func writeStreamEvent(w http.ResponseWriter, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal stream data to JSON", "error", err)
		return nil
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData)); err != nil {
		return fmt.Errorf("failed to write data to stream: %w", err)
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// StatusResponse is returned by operations that have no resource to send back.
type StatusResponse struct {
	Status string `json:"status"`
}
