package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"relay-chat/internal/api"
	app_errors "relay-chat/internal/errors"
	"relay-chat/internal/interfaces/mocks"
	"relay-chat/internal/model"
	"relay-chat/internal/service"
)

func setupChatHandler(t *testing.T) (*api.ChatHandler, *mocks.MockChatService) {
	mockChatSvc := mocks.NewMockChatService(t)
	return api.NewChatHandler(mockChatSvc), mockChatSvc
}

// addChiURLParams injects URL parameters the way the chi router does.
func addChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for key, value := range params {
		chiCtx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestChatHandler_GetSettings(t *testing.T) {
	handler, mockChatSvc := setupChatHandler(t)
	mockChatSvc.On("Settings").Return(service.Settings{WorkspaceID: "docs", APIKey: "sk-1...7890"}).Once()

	rr := httptest.NewRecorder()
	handler.GetSettings(rr, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	settings := decodeBody[service.Settings](t, rr)
	assert.Equal(t, "docs", settings.WorkspaceID)
	assert.Equal(t, "sk-1...7890", settings.APIKey)
}

func TestChatHandler_CreateSession(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockChatSvc := setupChatHandler(t)
		session := model.NewSession("Hello! How can I help you?")
		mockChatSvc.On("StartSession", mock.Anything).Return(session, nil).Once()

		rr := httptest.NewRecorder()
		handler.CreateSession(rr, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))

		assert.Equal(t, http.StatusCreated, rr.Code)
		view := decodeBody[model.SessionView](t, rr)
		assert.Equal(t, session.ID, view.ID)
		require.Len(t, view.Messages, 1)
		assert.Equal(t, "Hello! How can I help you?", view.Messages[0].Content)
	})

	t.Run("Failure", func(t *testing.T) {
		handler, mockChatSvc := setupChatHandler(t)
		mockChatSvc.On("StartSession", mock.Anything).Return(nil, errors.New("boom")).Once()

		rr := httptest.NewRecorder()
		handler.CreateSession(rr, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "boom")
	})

	t.Run("Store failure", func(t *testing.T) {
		handler, mockChatSvc := setupChatHandler(t)
		storeErr := fmt.Errorf("%w: could not create session: %w", app_errors.ErrInternal, errors.New("database is locked"))
		mockChatSvc.On("StartSession", mock.Anything).Return(nil, storeErr).Once()

		rr := httptest.NewRecorder()
		handler.CreateSession(rr, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "An unexpected internal server error occurred.", decodeBody[api.ErrorResponse](t, rr).Error)
		assert.NotContains(t, rr.Body.String(), "database is locked")
	})
}

func TestChatHandler_GetSession(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockChatSvc := setupChatHandler(t)
		view := &model.SessionView{ID: "s1", Messages: []model.Message{model.NewMessage(model.RoleAssistant, "hi")}}
		mockChatSvc.On("GetSession", mock.Anything, "s1").Return(view, nil).Once()

		req := addChiURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1", nil), map[string]string{"sessionID": "s1"})
		rr := httptest.NewRecorder()
		handler.GetSession(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "s1", decodeBody[model.SessionView](t, rr).ID)
	})

	t.Run("Not found", func(t *testing.T) {
		handler, mockChatSvc := setupChatHandler(t)
		mockChatSvc.On("GetSession", mock.Anything, "nope").Return(nil, app_errors.ErrNotFound).Once()

		req := addChiURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/nope", nil), map[string]string{"sessionID": "nope"})
		rr := httptest.NewRecorder()
		handler.GetSession(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestChatHandler_DeleteSession(t *testing.T) {
	handler, mockChatSvc := setupChatHandler(t)
	mockChatSvc.On("EndSession", mock.Anything, "s1").Return(nil).Once()

	req := addChiURLParams(httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/s1", nil), map[string]string{"sessionID": "s1"})
	rr := httptest.NewRecorder()
	handler.DeleteSession(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestChatHandler_SendMessage(t *testing.T) {
	newRequest := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/messages", strings.NewReader(body))
		return addChiURLParams(req, map[string]string{"sessionID": "s1"})
	}

	t.Run("Success", func(t *testing.T) {
		handler, mockChatSvc := setupChatHandler(t)
		mockChatSvc.On("SendMessage", mock.Anything, "s1", "hello", mock.Anything).
			Run(func(args mock.Arguments) {
				p := args.Get(3).(service.Presenter)
				p.Append(model.NewMessage(model.RoleUser, "hello"))
				p.SetBusy(true)
				p.SetBusy(false)
				p.Append(model.NewMessage(model.RoleAssistant, "hey"))
			}).
			Return(model.TurnResult{Outcome: model.OutcomeSuccess, Text: "hey", Status: 200}, nil).Once()

		rr := httptest.NewRecorder()
		handler.SendMessage(rr, newRequest(`{"content":"hello"}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decodeBody[api.TurnResponse](t, rr)
		assert.Equal(t, model.OutcomeSuccess, resp.Outcome)
		assert.Equal(t, "hey", resp.Reply)
		assert.Empty(t, resp.Error)
		require.Len(t, resp.Events, 4)
		assert.Equal(t, model.EventAppend, resp.Events[0].Type)
		assert.Equal(t, model.EventBusy, resp.Events[1].Type)
		assert.Equal(t, model.EventIdle, resp.Events[2].Type)
		assert.Equal(t, "hey", resp.Events[3].Message.Content)
	})

	t.Run("Remote failure is a 200 with an error", func(t *testing.T) {
		handler, mockChatSvc := setupChatHandler(t)
		mockChatSvc.On("SendMessage", mock.Anything, "s1", "hello", mock.Anything).
			Return(model.TurnResult{Outcome: model.OutcomeHTTPError, Text: "The chat API returned HTTP 500 (Internal Server Error).", Status: 500}, nil).Once()

		rr := httptest.NewRecorder()
		handler.SendMessage(rr, newRequest(`{"content":"hello"}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decodeBody[api.TurnResponse](t, rr)
		assert.Equal(t, model.OutcomeHTTPError, resp.Outcome)
		assert.Empty(t, resp.Reply)
		assert.Equal(t, 500, resp.Status)
		assert.Contains(t, resp.Error, "500")
		assert.NotNil(t, resp.Events)
	})

	t.Run("Remote error carries reply and error", func(t *testing.T) {
		handler, mockChatSvc := setupChatHandler(t)
		mockChatSvc.On("SendMessage", mock.Anything, "s1", "hello", mock.Anything).
			Return(model.TurnResult{Outcome: model.OutcomeRemoteError, Text: "The chat API reported an error: x"}, nil).Once()

		rr := httptest.NewRecorder()
		handler.SendMessage(rr, newRequest(`{"content":"hello"}`))

		resp := decodeBody[api.TurnResponse](t, rr)
		assert.Equal(t, "The chat API reported an error: x", resp.Reply)
		assert.Equal(t, "The chat API reported an error: x", resp.Error)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		handler, _ := setupChatHandler(t)
		rr := httptest.NewRecorder()
		handler.SendMessage(rr, newRequest(`{`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Missing content", func(t *testing.T) {
		handler, _ := setupChatHandler(t)
		rr := httptest.NewRecorder()
		handler.SendMessage(rr, newRequest(`{"content":""}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Content")
	})

	t.Run("Turn in flight", func(t *testing.T) {
		handler, mockChatSvc := setupChatHandler(t)
		mockChatSvc.On("SendMessage", mock.Anything, "s1", "hello", mock.Anything).
			Return(model.TurnResult{}, app_errors.ErrConflict).Once()

		rr := httptest.NewRecorder()
		handler.SendMessage(rr, newRequest(`{"content":"hello"}`))
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("Unknown session", func(t *testing.T) {
		handler, mockChatSvc := setupChatHandler(t)
		mockChatSvc.On("SendMessage", mock.Anything, "s1", "hello", mock.Anything).
			Return(model.TurnResult{}, app_errors.ErrNotFound).Once()

		rr := httptest.NewRecorder()
		handler.SendMessage(rr, newRequest(`{"content":"hello"}`))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

// readSSE returns the event names and data lines of a recorded stream.
func readSSE(t *testing.T, body string) ([]string, []string) {
	t.Helper()
	var names, data []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			names = append(names, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
	require.NoError(t, scanner.Err())
	return names, data
}

func TestChatHandler_StreamMessage(t *testing.T) {
	newRequest := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/messages/stream", strings.NewReader(body))
		return addChiURLParams(req, map[string]string{"sessionID": "s1"})
	}

	t.Run("Streams display events", func(t *testing.T) {
		handler, mockChatSvc := setupChatHandler(t)
		mockChatSvc.On("SendMessage", mock.Anything, "s1", "hello", mock.Anything).
			Run(func(args mock.Arguments) {
				p := args.Get(3).(service.Presenter)
				p.Append(model.NewMessage(model.RoleUser, "hello"))
				p.SetBusy(true)
				p.SetBusy(false)
				p.ShowError("Received an unexpected response format from the chat API.")
			}).
			Return(model.TurnResult{Outcome: model.OutcomeMalformedResponse}, nil).Once()

		rr := httptest.NewRecorder()
		handler.StreamMessage(rr, newRequest(`{"content":"hello"}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))

		names, data := readSSE(t, rr.Body.String())
		assert.Equal(t, []string{"append", "busy", "idle", "error"}, names)

		var last model.Event
		require.NoError(t, json.Unmarshal([]byte(data[3]), &last))
		assert.Equal(t, "s1", last.SessionID)
		assert.Equal(t, "Received an unexpected response format from the chat API.", last.Error)
	})

	t.Run("Errors before the turn are plain JSON", func(t *testing.T) {
		handler, mockChatSvc := setupChatHandler(t)
		mockChatSvc.On("SendMessage", mock.Anything, "s1", "hello", mock.Anything).
			Return(model.TurnResult{}, app_errors.ErrConflict).Once()

		rr := httptest.NewRecorder()
		handler.StreamMessage(rr, newRequest(`{"content":"hello"}`))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	})

	t.Run("Validation", func(t *testing.T) {
		handler, _ := setupChatHandler(t)
		rr := httptest.NewRecorder()
		handler.StreamMessage(rr, newRequest(`{}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestChatHandler_GetDebug(t *testing.T) {
	newRequest := func(query string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/debug"+query, nil)
		return addChiURLParams(req, map[string]string{"sessionID": "s1"})
	}

	t.Run("Default limit", func(t *testing.T) {
		handler, mockChatSvc := setupChatHandler(t)
		mockChatSvc.On("DebugEntries", mock.Anything, "s1", 20).
			Return([]model.DebugEntry{{ID: "e1", SessionID: "s1", Headers: map[string]string{"Authorization": "Bearer ***"}}}, nil).Once()

		rr := httptest.NewRecorder()
		handler.GetDebug(rr, newRequest(""))

		assert.Equal(t, http.StatusOK, rr.Code)
		entries := decodeBody[[]model.DebugEntry](t, rr)
		require.Len(t, entries, 1)
		assert.Equal(t, "Bearer ***", entries[0].Headers["Authorization"])
	})

	t.Run("Explicit limit and empty result", func(t *testing.T) {
		handler, mockChatSvc := setupChatHandler(t)
		mockChatSvc.On("DebugEntries", mock.Anything, "s1", 5).Return(nil, nil).Once()

		rr := httptest.NewRecorder()
		handler.GetDebug(rr, newRequest("?limit=5"))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("Invalid limit", func(t *testing.T) {
		handler, _ := setupChatHandler(t)
		for _, q := range []string{"?limit=abc", "?limit=0", "?limit=1000"} {
			rr := httptest.NewRecorder()
			handler.GetDebug(rr, newRequest(q))
			assert.Equal(t, http.StatusBadRequest, rr.Code, q)
		}
	})
}

func TestChatHandler_ClearDebug(t *testing.T) {
	handler, mockChatSvc := setupChatHandler(t)
	mockChatSvc.On("ClearDebug", mock.Anything, "s1").Return(nil).Once()

	req := addChiURLParams(httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/s1/debug", nil), map[string]string{"sessionID": "s1"})
	rr := httptest.NewRecorder()
	handler.ClearDebug(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
