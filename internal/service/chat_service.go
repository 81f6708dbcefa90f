package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"relay-chat/internal/debug"
	app_errors "relay-chat/internal/errors"
	"relay-chat/internal/llm"
	"relay-chat/internal/locale"
	"relay-chat/internal/model"
	"relay-chat/internal/repository"
)

// Settings is the non-secret view of the connection, safe to show to users.
type Settings struct {
	BaseURL     string `json:"base_url"`
	WorkspaceID string `json:"workspace_id"`
	Endpoint    string `json:"endpoint"`
	APIKey      string `json:"api_key"`
	Locale      string `json:"locale"`
	DebugLog    bool   `json:"debug_log"`
}

// ChatService runs conversation turns against the remote workspace for
// sessions held in a SessionStore.
type ChatService struct {
	store    repository.SessionStore
	llm      llm.Provider
	catalog  *locale.Catalog
	settings Settings

	buffer   *debug.Buffer
	debugLog repository.DebugRepository
}

// NewChatService creates a ChatService. A nil catalog falls back to the
// default locale.
func NewChatService(store repository.SessionStore, provider llm.Provider, catalog *locale.Catalog, settings Settings) *ChatService {
	if catalog == nil {
		catalog = locale.Default()
	}
	return &ChatService{store: store, llm: provider, catalog: catalog, settings: settings}
}

// WithDebugHistory sets where DebugEntries reads from. The persistent log
// takes precedence over the in-memory buffer when both are set.
func (s *ChatService) WithDebugHistory(buffer *debug.Buffer, debugLog repository.DebugRepository) *ChatService {
	s.buffer = buffer
	s.debugLog = debugLog
	s.settings.DebugLog = debugLog != nil
	return s
}

// Settings returns the connection summary.
func (s *ChatService) Settings() Settings {
	return s.settings
}

// StartSession creates a session with a fresh id and the greeting.
func (s *ChatService) StartSession(ctx context.Context) (*model.Session, error) {
	session := model.NewSession(s.catalog.Greeting)
	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: could not create session: %w", app_errors.ErrInternal, err)
	}
	slog.InfoContext(ctx, "Session started", "session_id", session.ID, "active_sessions", s.store.Count(ctx))
	return session, nil
}

// GetSession returns a snapshot of a session's transcript.
func (s *ChatService) GetSession(ctx context.Context, sessionID string) (*model.SessionView, error) {
	session, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := session.View()
	return &view, nil
}

// EndSession forgets a session and its buffered debug entries.
func (s *ChatService) EndSession(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: session %s", app_errors.ErrNotFound, sessionID)
		}
		return fmt.Errorf("%w: could not delete session: %w", app_errors.ErrInternal, err)
	}
	if s.buffer != nil {
		s.buffer.Forget(sessionID)
	}
	slog.InfoContext(ctx, "Session ended", "session_id", sessionID, "active_sessions", s.store.Count(ctx))
	return nil
}

// SendMessage runs one turn: the user's message is appended and rendered,
// the remote service is called, and the reply is appended for Success and
// RemoteError outcomes. Other outcomes only raise an error banner, leaving
// the user's message without a reply.
//
// The returned error covers problems with the call itself (empty message,
// unknown session, turn in flight); remote failures live in the TurnResult.
func (s *ChatService) SendMessage(ctx context.Context, sessionID, content string, p Presenter) (model.TurnResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.TurnResult{}, fmt.Errorf("%w: message cannot be empty", app_errors.ErrValidation)
	}

	session, err := s.lookup(ctx, sessionID)
	if err != nil {
		return model.TurnResult{}, err
	}

	if !session.TryBeginTurn() {
		return model.TurnResult{}, fmt.Errorf("%w: a turn is already in progress for session %s", app_errors.ErrConflict, sessionID)
	}
	defer session.EndTurn()

	p.Append(session.Append(model.RoleUser, content))

	p.SetBusy(true)
	result := s.llm.SendTurn(ctx, session.ID, content)
	p.SetBusy(false)

	switch result.Outcome {
	case model.OutcomeSuccess:
		p.Append(session.Append(model.RoleAssistant, result.Text))
	case model.OutcomeRemoteError:
		p.Append(session.Append(model.RoleAssistant, result.Text))
		p.ShowError(result.Text)
	default:
		p.ShowError(result.Text)
	}

	return result, nil
}

// DebugEntries returns the latest troubleshooting records of a session,
// newest first.
func (s *ChatService) DebugEntries(ctx context.Context, sessionID string, limit int) ([]model.DebugEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.debugLog != nil {
		entries, err := s.debugLog.ListEntries(ctx, sessionID, limit)
		if err != nil {
			return nil, fmt.Errorf("%w: could not read debug log: %w", app_errors.ErrInternal, err)
		}
		return entries, nil
	}
	if s.buffer == nil {
		return []model.DebugEntry{}, nil
	}
	entries := s.buffer.Entries(sessionID)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// ClearDebug drops the troubleshooting records of a session from the buffer
// and the persistent log.
func (s *ChatService) ClearDebug(ctx context.Context, sessionID string) error {
	if s.buffer != nil {
		s.buffer.Forget(sessionID)
	}
	if s.debugLog != nil {
		if err := s.debugLog.DeleteSession(ctx, sessionID); err != nil {
			return fmt.Errorf("%w: could not clear debug log: %w", app_errors.ErrInternal, err)
		}
	}
	return nil
}

func (s *ChatService) lookup(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: session %s", app_errors.ErrNotFound, sessionID)
		}
		return nil, fmt.Errorf("%w: could not get session: %w", app_errors.ErrInternal, err)
	}
	return session, nil
}
