package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	app_errors "relay-chat/internal/errors"
	"relay-chat/internal/interfaces"
	"relay-chat/internal/model"
	"relay-chat/internal/service"
)

const (
	defaultDebugLimit = 20
	maxDebugLimit     = 200
)

// ChatHandler serves the session and message endpoints.
type ChatHandler struct {
	service interfaces.ChatService
}

func NewChatHandler(svc interfaces.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// GetSettings godoc
// @Summary      Connection settings
// @Description  Returns the remote workspace the relay talks to. The API key is masked.
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  service.Settings
// @Router       /v1/settings [get]
func (h *ChatHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.Settings())
}

// CreateSession godoc
// @Summary      Start a session
// @Description  Creates a session whose transcript holds the assistant greeting.
// @Tags         Sessions
// @Produce      json
// @Success      201  {object}  model.SessionView
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/sessions [post]
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.StartSession(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, session.View())
}

// GetSession godoc
// @Summary      Get a session
// @Description  Returns the transcript of a session in display order.
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  model.SessionView
// @Failure      404        {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID} [get]
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	view, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// DeleteSession godoc
// @Summary      End a session
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  StatusResponse
// @Failure      404        {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID} [delete]
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.service.EndSession(r.Context(), sessionID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// SendMessage godoc
// @Summary      Send a message
// @Description  Runs one turn and returns its outcome with the display events it produced.
// @Description  Remote failures are reported in the body with a 200 status.
// @Tags         Messages
// @Accept       json
// @Produce      json
// @Param        sessionID  path      string              true  "Session ID"
// @Param        request    body      SendMessageRequest  true  "Message"
// @Success      200        {object}  TurnResponse
// @Failure      400        {object}  ErrorResponse
// @Failure      404        {object}  ErrorResponse
// @Failure      409        {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/messages [post]
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	req, err := decodeMessage(r)
	if err != nil {
		respondWithError(w, err)
		return
	}

	rec := &service.Recorder{}
	result, err := h.service.SendMessage(r.Context(), sessionID, req.Content, rec)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newTurnResponse(result, rec.Events()))
}

// StreamMessage godoc
// @Summary      Send a message (SSE)
// @Description  Runs one turn and streams its display events (append, busy, idle, error) as Server-Sent Events.
// @Tags         Messages
// @Accept       json
// @Produce      text/event-stream
// @Param        sessionID  path  string              true  "Session ID"
// @Param        request    body  SendMessageRequest  true  "Message"
// @Success      200  {string}  string  "SSE stream"
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/messages/stream [post]
func (h *ChatHandler) StreamMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	req, err := decodeMessage(r)
	if err != nil {
		respondWithError(w, err)
		return
	}

	stream := &eventStream{w: w, sessionID: sessionID}
	if _, err := h.service.SendMessage(r.Context(), sessionID, req.Content, service.EventPresenter(stream.send)); err != nil {
		if !stream.started {
			respondWithError(w, err)
			return
		}
		sendStreamError(w, err.Error())
	}
	slog.Debug("Finished streaming turn", "session_id", sessionID)
}

// GetDebug godoc
// @Summary      Troubleshooting entries
// @Description  Returns the latest request/response records of a session, newest first. The API key is redacted.
// @Tags         Debug
// @Produce      json
// @Param        sessionID  path      string  true   "Session ID"
// @Param        limit      query     int     false  "Maximum number of entries"
// @Success      200        {array}   model.DebugEntry
// @Failure      400        {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/debug [get]
func (h *ChatHandler) GetDebug(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	limit := defaultDebugLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxDebugLimit {
			respondWithError(w, fmt.Errorf("%w: limit must be between 1 and %d", app_errors.ErrValidation, maxDebugLimit))
			return
		}
		limit = n
	}

	entries, err := h.service.DebugEntries(r.Context(), sessionID, limit)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if entries == nil {
		entries = []model.DebugEntry{}
	}
	respondWithJSON(w, http.StatusOK, entries)
}

// ClearDebug godoc
// @Summary      Clear troubleshooting entries
// @Tags         Debug
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  StatusResponse
// @Failure      500        {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/debug [delete]
func (h *ChatHandler) ClearDebug(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.service.ClearDebug(r.Context(), sessionID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func decodeMessage(r *http.Request) (*SendMessageRequest, error) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: invalid request payload: %v", app_errors.ErrValidation, err)
	}
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// eventStream writes SSE headers on the first event, so errors raised before
// the turn starts can still be sent as plain JSON responses.
type eventStream struct {
	w         http.ResponseWriter
	sessionID string
	started   bool
	broken    bool
}

func (s *eventStream) send(e model.Event) {
	if s.broken {
		return
	}
	if !s.started {
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	e.SessionID = s.sessionID
	if err := writeStreamEvent(s.w, string(e.Type), e); err != nil {
		slog.Warn("Client disconnected during stream", "session_id", s.sessionID, "error", err)
		s.broken = true
	}
}
