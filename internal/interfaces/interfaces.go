package interfaces

import (
	"context"

	"relay-chat/internal/model"
	"relay-chat/internal/service"
)

// ChatService is what the transports (HTTP, WebSocket, terminal) need from
// the chat layer.
type ChatService interface {
	Settings() service.Settings
	StartSession(ctx context.Context) (*model.Session, error)
	GetSession(ctx context.Context, sessionID string) (*model.SessionView, error)
	EndSession(ctx context.Context, sessionID string) error
	SendMessage(ctx context.Context, sessionID, content string, p service.Presenter) (model.TurnResult, error)
	DebugEntries(ctx context.Context, sessionID string, limit int) ([]model.DebugEntry, error)
	ClearDebug(ctx context.Context, sessionID string) error
}

var _ ChatService = (*service.ChatService)(nil)
