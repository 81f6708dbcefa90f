package service_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"relay-chat/internal/debug"
	app_errors "relay-chat/internal/errors"
	mock_llm "relay-chat/internal/llm/mocks"
	"relay-chat/internal/locale"
	"relay-chat/internal/model"
	"relay-chat/internal/repository"
	"relay-chat/internal/service"
)

func setupChatService(t *testing.T) (*service.ChatService, *mock_llm.MockProvider) {
	provider := mock_llm.NewMockProvider(t)
	svc := service.NewChatService(repository.NewMemoryStore(), provider, locale.Default(), service.Settings{WorkspaceID: "docs"})
	return svc, provider
}

var debugColumns = []string{"id", "session_id", "endpoint", "headers", "payload", "status", "body", "outcome", "error", "latency_ms", "created_at"}

// setupDebugHistory backs the service's debug history with a buffer and a
// SQLite log on top of sqlmock.
func setupDebugHistory(t *testing.T) (*service.ChatService, *mock_llm.MockProvider, *debug.Buffer, sqlmock.Sqlmock) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc, provider := setupChatService(t)
	buffer := debug.NewBuffer(10)
	svc.WithDebugHistory(buffer, repository.NewSQLiteDebugRepository(db))
	return svc, provider, buffer, sqlMock
}

func eventTypes(events []model.Event) []model.EventType {
	types := make([]model.EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

func TestChatService_StartSession(t *testing.T) {
	svc, _ := setupChatService(t)
	ctx := context.Background()

	first, err := svc.StartSession(ctx)
	require.NoError(t, err)
	second, err := svc.StartSession(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	view, err := svc.GetSession(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, view.Messages, 1)
	assert.Equal(t, model.RoleAssistant, view.Messages[0].Role)
	assert.Equal(t, "Hello! How can I help you?", view.Messages[0].Content)
}

func TestChatService_GetSession_NotFound(t *testing.T) {
	svc, _ := setupChatService(t)

	_, err := svc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, app_errors.ErrNotFound)
}

func TestChatService_EndSession(t *testing.T) {
	svc, _ := setupChatService(t)
	ctx := context.Background()
	buffer := debug.NewBuffer(5)
	svc.WithDebugHistory(buffer, nil)

	session, err := svc.StartSession(ctx)
	require.NoError(t, err)
	buffer.Record(ctx, model.DebugEntry{SessionID: session.ID})

	require.NoError(t, svc.EndSession(ctx, session.ID))

	_, err = svc.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, app_errors.ErrNotFound)
	assert.Empty(t, buffer.Entries(session.ID))
	assert.ErrorIs(t, svc.EndSession(ctx, session.ID), app_errors.ErrNotFound)
}

func TestChatService_SendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("Success appends the reply", func(t *testing.T) {
		svc, provider := setupChatService(t)
		session, err := svc.StartSession(ctx)
		require.NoError(t, err)

		provider.On("SendTurn", mock.Anything, session.ID, "What is Go?").
			Return(model.TurnResult{Outcome: model.OutcomeSuccess, Text: "A language.", Status: 200}).Once()

		rec := &service.Recorder{}
		result, err := svc.SendMessage(ctx, session.ID, "  What is Go?  ", rec)
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeSuccess, result.Outcome)

		view, err := svc.GetSession(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, view.Messages, 3)
		assert.Equal(t, model.RoleUser, view.Messages[1].Role)
		assert.Equal(t, "What is Go?", view.Messages[1].Content)
		assert.Equal(t, model.RoleAssistant, view.Messages[2].Role)
		assert.Equal(t, "A language.", view.Messages[2].Content)

		assert.Equal(t, []model.EventType{model.EventAppend, model.EventBusy, model.EventIdle, model.EventAppend}, eventTypes(rec.Events()))
	})

	t.Run("Remote error appends and shows a banner", func(t *testing.T) {
		svc, provider := setupChatService(t)
		session, err := svc.StartSession(ctx)
		require.NoError(t, err)

		provider.On("SendTurn", mock.Anything, session.ID, "hi").
			Return(model.TurnResult{Outcome: model.OutcomeRemoteError, Text: "The chat API reported an error: boom", Status: 200}).Once()

		rec := &service.Recorder{}
		_, err = svc.SendMessage(ctx, session.ID, "hi", rec)
		require.NoError(t, err)

		view, _ := svc.GetSession(ctx, session.ID)
		require.Len(t, view.Messages, 3)
		assert.Equal(t, "The chat API reported an error: boom", view.Messages[2].Content)

		events := rec.Events()
		assert.Equal(t, []model.EventType{model.EventAppend, model.EventBusy, model.EventIdle, model.EventAppend, model.EventError}, eventTypes(events))
		assert.Equal(t, "The chat API reported an error: boom", events[4].Error)
	})

	for _, outcome := range []model.Outcome{model.OutcomeTransportFailure, model.OutcomeHTTPError, model.OutcomeMalformedResponse} {
		t.Run("No reply on "+string(outcome), func(t *testing.T) {
			svc, provider := setupChatService(t)
			session, err := svc.StartSession(ctx)
			require.NoError(t, err)

			provider.On("SendTurn", mock.Anything, session.ID, "hi").
				Return(model.TurnResult{Outcome: outcome, Text: "something went wrong"}).Once()

			rec := &service.Recorder{}
			result, err := svc.SendMessage(ctx, session.ID, "hi", rec)
			require.NoError(t, err)
			assert.Equal(t, outcome, result.Outcome)

			view, _ := svc.GetSession(ctx, session.ID)
			require.Len(t, view.Messages, 2)
			assert.Equal(t, model.RoleUser, view.Messages[1].Role)

			events := rec.Events()
			assert.Equal(t, []model.EventType{model.EventAppend, model.EventBusy, model.EventIdle, model.EventError}, eventTypes(events))
			assert.Equal(t, "something went wrong", events[3].Error)
		})
	}

	t.Run("Empty message is rejected", func(t *testing.T) {
		svc, _ := setupChatService(t)
		session, err := svc.StartSession(ctx)
		require.NoError(t, err)

		rec := &service.Recorder{}
		_, err = svc.SendMessage(ctx, session.ID, "   \n\t", rec)
		assert.ErrorIs(t, err, app_errors.ErrValidation)
		assert.Empty(t, rec.Events())

		view, _ := svc.GetSession(ctx, session.ID)
		assert.Len(t, view.Messages, 1)
	})

	t.Run("Unknown session", func(t *testing.T) {
		svc, _ := setupChatService(t)
		_, err := svc.SendMessage(ctx, "missing", "hi", &service.Recorder{})
		assert.ErrorIs(t, err, app_errors.ErrNotFound)
	})
}

func TestChatService_SendMessage_OneTurnInFlight(t *testing.T) {
	svc, provider := setupChatService(t)
	ctx := context.Background()
	session, err := svc.StartSession(ctx)
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	provider.On("SendTurn", mock.Anything, session.ID, "first").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(model.TurnResult{Outcome: model.OutcomeSuccess, Text: "done"}).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.SendMessage(ctx, session.ID, "first", &service.Recorder{})
		assert.NoError(t, err)
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first turn never reached the provider")
	}

	_, err = svc.SendMessage(ctx, session.ID, "second", &service.Recorder{})
	assert.ErrorIs(t, err, app_errors.ErrConflict)

	close(release)
	wg.Wait()

	view, _ := svc.GetSession(ctx, session.ID)
	require.Len(t, view.Messages, 3)
	assert.Equal(t, "first", view.Messages[1].Content)
	assert.Equal(t, "done", view.Messages[2].Content)
}

func TestChatService_DebugEntries(t *testing.T) {
	ctx := context.Background()

	t.Run("From the buffer, newest first and limited", func(t *testing.T) {
		svc, _ := setupChatService(t)
		buffer := debug.NewBuffer(10)
		svc.WithDebugHistory(buffer, nil)

		for _, id := range []string{"e1", "e2", "e3"} {
			buffer.Record(ctx, model.DebugEntry{ID: id, SessionID: "s1"})
		}

		entries, err := svc.DebugEntries(ctx, "s1", 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "e3", entries[0].ID)
		assert.Equal(t, "e2", entries[1].ID)
		assert.False(t, svc.Settings().DebugLog)
	})

	t.Run("Without history", func(t *testing.T) {
		svc, _ := setupChatService(t)
		entries, err := svc.DebugEntries(ctx, "s1", 0)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Persistent log wins over the buffer", func(t *testing.T) {
		svc, _, buffer, sqlMock := setupDebugHistory(t)
		buffer.Record(ctx, model.DebugEntry{ID: "from-buffer", SessionID: "s1"})

		rows := sqlmock.NewRows(debugColumns).
			AddRow("from-log", "s1", "http://x", `{}`, "{}", 200, `{"textResponse":"ok"}`, "success", nil, 30, time.Now())
		sqlMock.ExpectQuery(regexp.QuoteMeta("FROM debug_entries")).
			WithArgs("s1", 20).
			WillReturnRows(rows)

		entries, err := svc.DebugEntries(ctx, "s1", 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "from-log", entries[0].ID)
		assert.True(t, svc.Settings().DebugLog)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("Read failure is wrapped", func(t *testing.T) {
		svc, _, _, sqlMock := setupDebugHistory(t)
		dbErr := errors.New("disk I/O error")
		sqlMock.ExpectQuery(regexp.QuoteMeta("FROM debug_entries")).
			WithArgs("s1", 5).
			WillReturnError(dbErr)

		entries, err := svc.DebugEntries(ctx, "s1", 5)
		assert.Nil(t, entries)
		assert.ErrorContains(t, err, "could not read debug log")
		assert.ErrorIs(t, err, dbErr)
		assert.ErrorIs(t, err, app_errors.ErrInternal)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}

func TestChatService_ClearDebug(t *testing.T) {
	ctx := context.Background()

	t.Run("Clears the buffer and the persistent log", func(t *testing.T) {
		svc, _, buffer, sqlMock := setupDebugHistory(t)
		buffer.Record(ctx, model.DebugEntry{ID: "e1", SessionID: "s1"})
		buffer.Record(ctx, model.DebugEntry{ID: "e2", SessionID: "s2"})
		sqlMock.ExpectExec(regexp.QuoteMeta("DELETE FROM debug_entries WHERE session_id = ?")).
			WithArgs("s1").
			WillReturnResult(sqlmock.NewResult(0, 3))

		require.NoError(t, svc.ClearDebug(ctx, "s1"))

		assert.Empty(t, buffer.Entries("s1"))
		assert.Len(t, buffer.Entries("s2"), 1)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("Delete failure is wrapped", func(t *testing.T) {
		svc, _, buffer, sqlMock := setupDebugHistory(t)
		buffer.Record(ctx, model.DebugEntry{ID: "e1", SessionID: "s1"})
		dbErr := errors.New("database is locked")
		sqlMock.ExpectExec(regexp.QuoteMeta("DELETE FROM debug_entries WHERE session_id = ?")).
			WithArgs("s1").
			WillReturnError(dbErr)

		err := svc.ClearDebug(ctx, "s1")
		assert.ErrorContains(t, err, "could not clear debug log")
		assert.ErrorIs(t, err, dbErr)
		assert.ErrorIs(t, err, app_errors.ErrInternal)
		assert.Empty(t, buffer.Entries("s1"))
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("Buffer only", func(t *testing.T) {
		svc, _ := setupChatService(t)
		buffer := debug.NewBuffer(5)
		svc.WithDebugHistory(buffer, nil)
		buffer.Record(ctx, model.DebugEntry{ID: "e1", SessionID: "s1"})

		require.NoError(t, svc.ClearDebug(ctx, "s1"))
		assert.Empty(t, buffer.Entries("s1"))
	})
}
